// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/vtgo/internal/attrs"
)

// filterRegex splits key, operand and target. Operands are one of
// = ^ ~ < > @ or /, optionally negated with a leading '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter represents a single parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Malformed entries are logged and skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("VT_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil || parts[1] == "" {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  strings.HasPrefix(parts[2], "!"),
			Operand: strings.TrimPrefix(parts[2], "!"),
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset keeps the candidates that pass every filter and projects each
// onto attrs. Transforms are left to the caller. Unknown filter keys are
// reported to warn and otherwise ignored.
func FilterDataset(candidates gjson.Result, al attrs.AttrList, spec string, warn io.Writer) []map[string]interface{} {
	//nolint:prealloc
	var rows []map[string]interface{}

	filters := BuildFilters(spec)

	for _, candidate := range candidates.Array() {
		if !matches(candidate, al, filters, warn) {
			continue
		}

		row := make(map[string]interface{}, len(al))
		for _, attr := range al {
			row[attr.OutputKey] = candidate.Get(attr.Key).Value()
		}
		rows = append(rows, row)
	}

	return rows
}

func matches(candidate gjson.Result, al attrs.AttrList, filters []Filter, warn io.Writer) bool {
	for _, filter := range filters {
		key := ""
		for _, attr := range al {
			if attr.OutputKey == filter.Key {
				key = attr.Key
				break
			}
		}

		if key == "" {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Error(msg)
			if warn != nil {
				fmt.Fprintf(warn, "warning: %s\n", msg)
			}
			continue
		}

		value := candidate.Get(key)
		if !value.Exists() || value.Type == gjson.Null {
			return false
		}

		var ok bool
		switch value.Type {
		case gjson.String:
			ok = checkString(value.Str, filter)
		case gjson.True, gjson.False:
			ok = checkString(strconv.FormatBool(value.Bool()), filter)
		case gjson.Number:
			ok = checkNumber(value.Num, filter)
		default:
			ok = checkContains(value, filter)
		}

		if !ok {
			return false
		}
	}

	return true
}

// checkContains handles '@' against arrays (element equality) and objects
// (key presence).
func checkContains(value gjson.Result, filter Filter) bool {
	if filter.Operand != "@" {
		log.Errorf("operand %s not supported on %s", filter.Operand, value.Type)
		return false
	}

	found := false
	switch {
	case value.IsArray():
		for _, item := range value.Array() {
			if item.String() == filter.Target {
				found = true
				break
			}
		}
	case value.IsObject():
		found = value.Get(gjson.Escape(filter.Target)).Exists()
	}
	return found != filter.Negate
}

func checkNumber(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		// Fall back to comparing the textual form, e.g. version^1.
		return checkString(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) != filter.Negate
	case ">":
		return (value > tgt) != filter.Negate
	case "<":
		return (value < tgt) != filter.Negate
	default:
		return checkString(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}
}

func checkString(value string, filter Filter) bool {
	var ok bool
	switch filter.Operand {
	case "=":
		ok = value == filter.Target
	case "~":
		ok = strings.EqualFold(value, filter.Target)
	case "^":
		ok = strings.HasPrefix(value, filter.Target)
	case ">":
		ok = value > filter.Target
	case "<":
		ok = value < filter.Target
	case "@":
		ok = strings.Contains(value, filter.Target)
	case "/":
		re, err := regexp.Compile(filter.Target)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		ok = re.MatchString(value)
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
	return ok != filter.Negate
}
