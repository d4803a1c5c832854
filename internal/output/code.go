// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/apex/log"
	"github.com/tidwall/pretty"
)

// DefaultStyle is the chroma style used when the config names none.
const DefaultStyle = "monokai"

// Code writes val source to w. Interactive output is syntax highlighted as
// TypeScript, piped output is the source byte for byte.
func Code(w io.Writer, code string, mode Mode, style string) error {
	if !mode.Interactive() {
		_, err := io.WriteString(w, code)
		return err
	}

	if style == "" {
		style = DefaultStyle
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, "typescript", "terminal256", style); err != nil {
		log.WithError(err).Debug("highlight failed, writing plain source")
		buf.Reset()
		buf.WriteString(code)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteString("\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// JSON writes an API response. Interactive output is indented and colored,
// piped output is the document as received plus a trailing newline.
func JSON(w io.Writer, doc []byte, mode Mode) error {
	if mode.Interactive() {
		doc = pretty.Color(pretty.Pretty(doc), nil)
	} else {
		doc = bytes.TrimRight(doc, "\n")
		doc = append(doc, '\n')
	}
	_, err := w.Write(doc)
	return err
}
