// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// VT_LOG env variable.
func InitLogger() {
	log.SetHandler(&CustomHandler{})
	log.SetLevel(levelFromEnv())
}

// levelFromEnv parses VT_LOG, falling back to ERROR when it is empty or not a
// level apex knows.
func levelFromEnv() log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv("VT_LOG"))))
	if err != nil {
		return log.ErrorLevel
	}
	return level
}

// CustomHandler formats log messages and writes them to W, or stderr when W
// is nil. Stdout is reserved for command output so pipes stay clean.
type CustomHandler struct {
	W io.Writer
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	w := h.W
	if w == nil {
		w = os.Stderr
	}
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(w, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(w, " %s=%v", name, e.Fields.Get(name))
	}
	fmt.Fprintln(w)
	return nil
}
