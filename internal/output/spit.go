// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"

	"github.com/staranto/vtgo/internal/attrs"
)

// Formats accepted by --output.
var Formats = []string{"text", "json", "raw", "yaml"}

// Colors are the lipgloss colors used for titles and alternating rows.
type Colors struct {
	Title string
	Even  string
	Odd   string
}

// DefaultColors match the palette used when the config has no colors block.
var DefaultColors = Colors{Title: "#f6be00", Even: "#ffffff", Odd: "#00c8f0"}

// Options carries the output flags of a listing command.
type Options struct {
	Format  string
	Filter  string
	Sort    string
	Titles  bool
	Color   bool
	Padding int
	Colors  Colors
	// Warn receives user facing warnings such as unknown filter keys.
	Warn io.Writer
}

// SliceDiceSpit filters, transforms, sorts and renders raw, a JSON array of
// records, according to al and opts.
func SliceDiceSpit(raw []byte, al attrs.AttrList, opts Options, w io.Writer) error {
	// If raw, just dump it and go home.
	if opts.Format == "raw" {
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}

	dataset := gjson.ParseBytes(raw)
	if !dataset.IsArray() {
		return fmt.Errorf("expected a JSON array, got %s", dataset.Type)
	}

	// Filter first so the remaining passes work on a smaller dataset.
	rows := FilterDataset(dataset, al, opts.Filter, opts.Warn)

	for _, row := range rows {
		for i := range al {
			if al[i].TransformSpec != "" {
				row[al[i].OutputKey] = al[i].Transform(row[al[i].OutputKey])
			}
		}
	}

	SortDataset(rows, opts.Sort)

	// Attrs that were only there for filtering and sorting go away now.
	included := al.Included()
	for _, row := range rows {
		for _, attr := range al {
			if !attr.Include {
				delete(row, attr.OutputKey)
			}
		}
	}
	log.Debugf("rows: %d, attrs: %s", len(rows), included.String())

	switch opts.Format {
	case "json":
		if rows == nil {
			rows = []map[string]interface{}{}
		}
		doc, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(doc))
		return err
	case "yaml":
		doc, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(doc)
		return err
	default:
		TableWriter(rows, included, opts, w)
		return nil
	}
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(resultSet []map[string]interface{}, al attrs.AttrList, opts Options, w io.Writer) {
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		c := opts.Colors
		if c == (Colors{}) {
			c = DefaultColors
		}
		headerStyle = headerStyle.Foreground(lipgloss.Color(c.Title))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(c.Even))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(c.Odd))
	}

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(al))
		for _, attr := range al {
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}

			return style
		}).
		Rows(rows...)

	if opts.Titles {
		headers := make([]string, 0, len(al))
		for _, attr := range al {
			headers = append(headers, attr.OutputKey)
		}
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	fmt.Fprintln(w, t)
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}

	switch value := value.(type) {
	case nil:
		return empty
	case string:
		if value == "" {
			return empty
		}
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
