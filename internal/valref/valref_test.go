// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package valref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Ref
	}{
		{name: "at dot", raw: "@A.B", want: Ref{"A", "B"}},
		{name: "dot", raw: "A.B", want: Ref{"A", "B"}},
		{name: "at slash", raw: "@A/B", want: Ref{"A", "B"}},
		{name: "slash", raw: "A/B", want: Ref{"A", "B"}},
		{name: "first separator only", raw: "@x.y.z", want: Ref{"x", "y.z"}},
		{name: "mixed separators", raw: "x/y.z", want: Ref{"x", "y.z"}},
		{name: "dot before slash", raw: "x.y/z", want: Ref{"x", "y/z"}},
		{name: "no separator", raw: "@lonely", want: Ref{Author: "lonely"}},
		{name: "only one sigil stripped", raw: "@@a.b", want: Ref{"@a", "b"}},
		{name: "trailing separator", raw: "a.", want: Ref{Author: "a"}},
		{name: "leading separator", raw: "/b", want: Ref{Name: "b"}},
		{name: "empty", raw: "", want: Ref{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.raw))
		})
	}
}

func TestRef_Validate(t *testing.T) {
	assert.NoError(t, Resolve("@a/b").Validate())
	assert.ErrorIs(t, Resolve("a").Validate(), ErrMalformedReference)
	assert.ErrorIs(t, Resolve("/b").Validate(), ErrMalformedReference)
	assert.ErrorIs(t, Resolve("").Validate(), ErrMalformedReference)
}

func TestRef_String(t *testing.T) {
	assert.Equal(t, "@stevekrouse/hello", Resolve("stevekrouse.hello").String())
}
