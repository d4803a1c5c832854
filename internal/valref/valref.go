// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package valref turns the val identifiers users type on the command line
// into an author and a name.
package valref

import (
	"errors"
	"fmt"
	"strings"
)

// Separators are the characters accepted between author and name. Only the
// first occurrence of any of them splits the reference.
const Separators = "./"

var ErrMalformedReference = errors.New("malformed val reference")

// Ref identifies a val by its author's username and its name.
type Ref struct {
	Author string
	Name   string
}

// Resolve parses [@]<author><sep><name>. It never fails: input without a
// separator comes back with an empty Name, and callers that care use
// Validate.
func Resolve(raw string) Ref {
	raw = strings.TrimPrefix(raw, "@")

	i := strings.IndexAny(raw, Separators)
	if i < 0 {
		return Ref{Author: raw}
	}
	return Ref{Author: raw[:i], Name: raw[i+1:]}
}

// Validate reports ErrMalformedReference when either half is empty.
func (r Ref) Validate() error {
	if r.Author == "" || r.Name == "" {
		return fmt.Errorf("%w: %q, expected [@]author/name or author.name", ErrMalformedReference, r.raw())
	}
	return nil
}

// String renders the canonical @author/name form.
func (r Ref) String() string {
	return "@" + r.Author + "/" + r.Name
}

func (r Ref) raw() string {
	if r.Name == "" {
		return r.Author
	}
	return r.Author + "/" + r.Name
}
