// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode says whether output is read by a person at a terminal or by another
// program. It is decided once at startup and handed to whatever formats
// output.
type Mode int

const (
	Piped Mode = iota
	Interactive
)

func (m Mode) String() string {
	if m == Interactive {
		return "interactive"
	}
	return "piped"
}

// Interactive reports whether m is the interactive mode.
func (m Mode) Interactive() bool {
	return m == Interactive
}

// ParseMode accepts "interactive"/"tty" and "piped"/"pipe".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interactive", "tty":
		return Interactive, nil
	case "piped", "pipe":
		return Piped, nil
	default:
		return Piped, fmt.Errorf("unknown output mode %q", s)
	}
}

// DetectMode honors VT_OUTPUT_MODE and otherwise asks whether f is a terminal.
func DetectMode(f *os.File) Mode {
	if v, ok := os.LookupEnv("VT_OUTPUT_MODE"); ok && v != "" {
		if m, err := ParseMode(v); err == nil {
			return m
		}
	}
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return Interactive
	}
	return Piped
}
