// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/staranto/vtgo/internal/cacheutil"
	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
	"github.com/staranto/vtgo/internal/valref"
)

const helloVal = `{"id":"val-1","name":"hello","version":3,"privacy":"public",` +
	`"code":"export const hello = 1;\n","author":{"id":"u-1","username":"alice"},` +
	`"runStartAt":"2025-01-01T00:00:00Z"}`

type call struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeTown is a minimal stand in for the vals API.
type fakeTown struct {
	mu     sync.Mutex
	calls  []call
	routes map[string]string
}

func (f *fakeTown) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, call{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	res, ok := f.routes[r.Method+" "+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
		return
	}
	if res == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = io.WriteString(w, res)
}

func (f *fakeTown) find(method, path string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			return c, true
		}
	}
	return call{}, false
}

type harness struct {
	town   *fakeTown
	meta   meta.Meta
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T, mode output.Mode, stdin string) *harness {
	t.Helper()

	town := &fakeTown{routes: map[string]string{
		"GET /v1/me":                    `{"id":"u-1","username":"alice"}`,
		"GET /v1/alias/alice/hello":     helloVal,
		"GET /v1/alias/bob":             `{"id":"u-2","username":"bob"}`,
		"POST /v1/vals":                 `{"id":"val-2","name":"fresh","author":{"username":"alice"}}`,
		"POST /v1/vals/val-1/versions":  `{"id":"val-1","version":4}`,
		"PATCH /v1/vals/val-1":          "",
		"DELETE /v1/vals/val-1":         "",
		"GET /v1/users/u-1/vals":        `{"data":[` + helloVal + `],"links":{}}`,
		"GET /v1/users/u-2/vals":        `{"data":[],"links":{}}`,
		"GET /v1/search/vals":           `{"data":[` + helloVal + `],"links":{}}`,
		"POST /v1/run/alice.hello":      `{"ok":true}`,
		"POST /v1/eval":                 `2`,
	}}
	srv := httptest.NewServer(town)
	t.Cleanup(srv.Close)

	h := &harness{town: town, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.meta = meta.Meta{
		Context: context.Background(),
		Token:   "tok",
		APIURL:  srv.URL,
		Mode:    mode,
		Cache:   cacheutil.Store{Base: t.TempDir()},
		Stdin:   strings.NewReader(stdin),
		Stdout:  h.stdout,
		Stderr:  h.stderr,
	}
	return h
}

func (h *harness) run(args ...string) error {
	return NewApp(h.meta).Run(context.Background(), append([]string{"vt"}, args...))
}

func TestView_Piped(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("view", "@alice.hello"))
	assert.Equal(t, "export const hello = 1;\n", h.stdout.String())
}

func TestView_Interactive(t *testing.T) {
	h := newHarness(t, output.Interactive, "")
	require.NoError(t, h.run("view", "alice/hello"))
	out := h.stdout.String()
	assert.Contains(t, out, "@alice/hello")
	assert.Contains(t, out, "v3")
	assert.Contains(t, out, WebURL+"alice/hello")
	assert.Contains(t, out, "hello")
}

func TestView_JSON(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("view", "--json", "alice/hello"))
	assert.Equal(t, "val-1", gjson.Get(h.stdout.String(), "id").String())
}

func TestView_MalformedRef(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	err := h.run("view", "alice")
	require.ErrorIs(t, err, valref.ErrMalformedReference)
	assert.Empty(t, h.town.calls)
}

func TestCreate_FromStdin(t *testing.T) {
	h := newHarness(t, output.Piped, "export default 1;\n")
	require.NoError(t, h.run("create", "--privacy", "unlisted", "fresh"))

	c, ok := h.town.find(http.MethodPost, "/v1/vals")
	require.True(t, ok)
	assert.Equal(t, "fresh", gjson.Get(c.Body, "name").String())
	assert.Equal(t, "unlisted", gjson.Get(c.Body, "privacy").String())
	assert.Equal(t, "export default 1;\n", gjson.Get(c.Body, "code").String())
	assert.Equal(t, "created @alice/fresh\n", h.stdout.String())
}

func TestCreate_BadPrivacy(t *testing.T) {
	h := newHarness(t, output.Piped, "x")
	require.Error(t, h.run("create", "--privacy", "secret"))
	_, ok := h.town.find(http.MethodPost, "/v1/vals")
	assert.False(t, ok)
}

func TestEdit_Editor(t *testing.T) {
	h := newHarness(t, output.Interactive, "")
	var edited string
	h.meta.Edit = func(_ context.Context, path string) error {
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		edited = string(b)
		return os.WriteFile(path, []byte("export const hello = 2;\n"), 0o600)
	}

	require.NoError(t, h.run("edit", "@alice/hello"))
	assert.Equal(t, "export const hello = 1;\n", edited)

	c, ok := h.town.find(http.MethodPost, "/v1/vals/val-1/versions")
	require.True(t, ok)
	assert.Equal(t, "export const hello = 2;\n", gjson.Get(c.Body, "code").String())
	assert.Contains(t, h.stdout.String(), "v4")
}

func TestEdit_Unchanged(t *testing.T) {
	h := newHarness(t, output.Interactive, "")
	h.meta.Edit = func(context.Context, string) error { return nil }

	require.NoError(t, h.run("edit", "alice/hello"))
	_, ok := h.town.find(http.MethodPost, "/v1/vals/val-1/versions")
	assert.False(t, ok)
	assert.Contains(t, h.stdout.String(), "unchanged")
}

func TestEdit_PrivacyOnly(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("edit", "--privacy", "private", "alice/hello"))

	c, ok := h.town.find(http.MethodPatch, "/v1/vals/val-1")
	require.True(t, ok)
	assert.JSONEq(t, `{"privacy":"private"}`, c.Body)
	_, ok = h.town.find(http.MethodPost, "/v1/vals/val-1/versions")
	assert.False(t, ok)
}

func TestEdit_FromFile(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	file := filepath.Join(t.TempDir(), "hello.tsx")
	require.NoError(t, os.WriteFile(file, []byte("export const hello = 3;\n"), 0o600))

	require.NoError(t, h.run("edit", "--file", file, "alice/hello"))
	c, ok := h.town.find(http.MethodPost, "/v1/vals/val-1/versions")
	require.True(t, ok)
	assert.Equal(t, "export const hello = 3;\n", gjson.Get(c.Body, "code").String())
}

func TestRename(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("rename", "alice/hello", "howdy"))

	c, ok := h.town.find(http.MethodPatch, "/v1/vals/val-1")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"howdy"}`, c.Body)
	assert.Equal(t, "renamed @alice/hello to @alice/howdy\n", h.stdout.String())
}

func TestRename_MissingName(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.ErrorIs(t, h.run("rename", "alice/hello"), ErrMissingArgument)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		mode    output.Mode
		stdin   string
		args    []string
		wantErr error
		deleted bool
	}{
		{"yes flag", output.Piped, "", []string{"delete", "-y", "alice/hello"}, nil, true},
		{"piped without yes", output.Piped, "", []string{"delete", "alice/hello"}, ErrNeedsYes, false},
		{"confirmed", output.Interactive, "y\n", []string{"delete", "alice/hello"}, nil, true},
		{"declined", output.Interactive, "n\n", []string{"delete", "alice/hello"}, ErrNotConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.mode, tt.stdin)
			err := h.run(tt.args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			_, ok := h.town.find(http.MethodDelete, "/v1/vals/val-1")
			assert.Equal(t, tt.deleted, ok)
		})
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("search", "-o", "json", "hello", "world"))

	c, ok := h.town.find(http.MethodGet, "/v1/search/vals")
	require.True(t, ok)
	assert.Contains(t, c.Query, "query=hello+world")

	res := gjson.Parse(h.stdout.String())
	require.True(t, res.IsArray())
	assert.Equal(t, "alice", res.Get("0.author").String())
	assert.Equal(t, "hello", res.Get("0.name").String())
}

func TestList_DefaultsToIdentity(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("list", "--titles"))

	_, ok := h.town.find(http.MethodGet, "/v1/users/u-1/vals")
	assert.True(t, ok)
	assert.Contains(t, h.stdout.String(), "hello")

	// The identity is now cached, a second listing skips /v1/me.
	h.town.calls = nil
	require.NoError(t, NewApp(h.meta).Run(context.Background(), []string{"vt", "list"}))
	_, ok = h.town.find(http.MethodGet, "/v1/me")
	assert.False(t, ok)
}

func TestList_User(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("list", "@bob"))

	_, ok := h.town.find(http.MethodGet, "/v1/users/u-2/vals")
	assert.True(t, ok)
	_, ok = h.town.find(http.MethodGet, "/v1/me")
	assert.False(t, ok)
}

func TestDecodeArgs(t *testing.T) {
	got := DecodeArgs([]string{"1", "x", `{"a":true}`, `"quoted"`, "[1,2]"})
	assert.Equal(t, []any{float64(1), "x", map[string]any{"a": true}, "quoted", []any{float64(1), float64(2)}}, got)
	assert.Equal(t, []any{}, DecodeArgs(nil))
}

func TestRun(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("run", "alice.hello", "1", "x"))

	c, ok := h.town.find(http.MethodPost, "/v1/run/alice.hello")
	require.True(t, ok)
	assert.JSONEq(t, `{"args":[1,"x"]}`, c.Body)
	assert.Equal(t, "{\"ok\":true}\n", h.stdout.String())
}

func TestEval(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("eval", "--args", "[1]", "1", "+", "1"))

	c, ok := h.town.find(http.MethodPost, "/v1/eval")
	require.True(t, ok)
	assert.JSONEq(t, `{"code":"1 + 1","args":[1]}`, c.Body)
	assert.Equal(t, "2\n", h.stdout.String())
}

func TestEval_BadArgs(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.Error(t, h.run("eval", "--args", "{", "1"))
}

func TestAPI(t *testing.T) {
	h := newHarness(t, output.Piped, `{"code":"1"}`)
	require.NoError(t, h.run("api", "-d", "@-", "v1/eval"))

	c, ok := h.town.find(http.MethodPost, "/v1/eval")
	require.True(t, ok)
	assert.Equal(t, `{"code":"1"}`, c.Body)
	assert.Equal(t, "2\n", h.stdout.String())
}

func TestAPI_GetAndError(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("api", "/v1/me"))
	assert.Equal(t, "alice", gjson.Get(h.stdout.String(), "username").String())

	require.Error(t, h.run("api", "-X", "delete", "/v1/nothing"))
}

func TestWhoami(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	require.NoError(t, h.run("whoami"))
	assert.Equal(t, "@alice\n", h.stdout.String())

	h.stdout.Reset()
	require.NoError(t, h.run("whoami", "--json"))
	assert.Equal(t, "u-1", gjson.Get(h.stdout.String(), "id").String())
}

func TestWhoami_NoToken(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	h.meta.Token = ""
	require.Error(t, h.run("whoami"))
	assert.Empty(t, h.town.calls)
}

func TestInstall(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	dir := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, h.run("install", "--dir", dir, "--name", "hi", "@alice/hello"))

	path := filepath.Join(dir, "hi")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nexec vt run '@alice/hello' \"$@\"\n", string(b))
}

func TestInstall_UnknownVal(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	dir := t.TempDir()
	require.Error(t, h.run("install", "--dir", dir, "alice/nope"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompletion(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	app := NewApp(h.meta)

	var bash bytes.Buffer
	require.NoError(t, WriteCompletion(&bash, app, "bash"))
	assert.Contains(t, bash.String(), "complete -F _vt vt")
	assert.Contains(t, bash.String(), "view)")
	assert.Contains(t, bash.String(), "--json")

	var zsh bytes.Buffer
	require.NoError(t, WriteCompletion(&zsh, app, "zsh"))
	assert.Contains(t, zsh.String(), "'search:search vals'")
	assert.Contains(t, zsh.String(), "{-o,--output}")

	assert.Error(t, WriteCompletion(io.Discard, app, "fish"))
}

func TestShimName(t *testing.T) {
	tests := []struct {
		ref     string
		name    string
		want    string
		wantErr bool
	}{
		{"@alice/hello", "", "hello", false},
		{"@x.y/z", "", "y-z", false},
		{"@alice/hello", "hi", "hi", false},
		{"@alice/hello", "../hi", "", true},
		{"@alice/hello", "bin/hi", "", true},
		{"@alice/hello", "..", "", true},
	}

	for _, tt := range tests {
		got, err := ShimName(valref.Resolve(tt.ref), tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBadShimName, tt.name)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteShim_QuotesReference(t *testing.T) {
	dir := t.TempDir()
	ref := valref.Ref{Author: "x", Name: "it's;rm"}

	path, err := WriteShim(dir, "odd", ref)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "odd"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nexec vt run '@x/it'\\''s;rm' \"$@\"\n", string(b))
}

func TestInstall_NestedValName(t *testing.T) {
	h := newHarness(t, output.Piped, "")
	h.town.routes["GET /v1/alias/x/y/z"] = `{"id":"val-9"}`
	dir := t.TempDir()

	require.NoError(t, h.run("install", "--dir", dir, "@x.y/z"))
	assert.FileExists(t, filepath.Join(dir, "y-z"))
}
