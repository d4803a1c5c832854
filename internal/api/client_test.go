// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/vtgo/internal/valref"
)

// recorded is a request as seen by the fake API.
type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// fakeAPI answers every request with status and body and records it.
func fakeAPI(t *testing.T, status int, body string) (*Client, *[]recorded) {
	t.Helper()

	var seen []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = append(seen, recorded{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(b),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL, "secret", WithHTTPClient(srv.Client())), &seen
}

func TestClient_Do(t *testing.T) {
	c, seen := fakeAPI(t, http.StatusOK, `{"ok":true}`)

	doc, err := c.Do(context.Background(), http.MethodPost, "v1/thing", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(doc))

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/thing", got.Path)
	assert.Equal(t, "Bearer secret", got.Auth)
	assert.JSONEq(t, `{"a":"b"}`, got.Body)
}

func TestClient_Do_RawBody(t *testing.T) {
	c, seen := fakeAPI(t, http.StatusOK, `{}`)

	_, err := c.Do(context.Background(), http.MethodPut, "/v1/raw", []byte(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, (*seen)[0].Body)
}

func TestClient_Do_Error(t *testing.T) {
	c, _ := fakeAPI(t, http.StatusUnauthorized, `{"message":"bad token"}`)

	_, err := c.Do(context.Background(), http.MethodGet, "/v1/me", nil)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad token")
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Do_NoToken(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	_, err := c.Do(context.Background(), http.MethodGet, "/v1/me", nil)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_URL(t *testing.T) {
	c := New("https://api.example.test/", "t")
	assert.Equal(t, "https://api.example.test/v1/me", c.URL("v1/me"))
	assert.Equal(t, "https://api.example.test/v1/me", c.URL("/v1/me"))
	assert.Equal(t, "https://other.test/next?offset=5", c.URL("https://other.test/next?offset=5"))
	assert.Equal(t, DefaultBaseURL+"/v1/me", New("", "t").URL("/v1/me"))
}

func TestClient_Endpoints(t *testing.T) {
	ref := valref.Resolve("@alice/hello")
	name := "renamed"

	tests := []struct {
		name     string
		call     func(*Client) error
		method   string
		path     string
		wantBody string
	}{
		{
			name:   "me",
			call:   func(c *Client) error { _, err := c.Me(context.Background(), "secret"); return err },
			method: http.MethodGet,
			path:   "/v1/me",
		},
		{
			name:   "alias",
			call:   func(c *Client) error { _, err := c.Alias(context.Background(), ref); return err },
			method: http.MethodGet,
			path:   "/v1/alias/alice/hello",
		},
		{
			name:   "alias user",
			call:   func(c *Client) error { _, err := c.AliasUser(context.Background(), "@alice"); return err },
			method: http.MethodGet,
			path:   "/v1/alias/alice",
		},
		{
			name: "create",
			call: func(c *Client) error {
				_, err := c.CreateVal(context.Background(), CreateValRequest{Name: "n", Code: "1", Privacy: "public"})
				return err
			},
			method:   http.MethodPost,
			path:     "/v1/vals",
			wantBody: `{"name":"n","code":"1","privacy":"public"}`,
		},
		{
			name:     "update code",
			call:     func(c *Client) error { _, err := c.UpdateCode(context.Background(), "id1", "2"); return err },
			method:   http.MethodPost,
			path:     "/v1/vals/id1/versions",
			wantBody: `{"code":"2"}`,
		},
		{
			name:     "rename",
			call:     func(c *Client) error { return c.UpdateVal(context.Background(), "id1", ValPatch{Name: &name}) },
			method:   http.MethodPatch,
			path:     "/v1/vals/id1",
			wantBody: `{"name":"renamed"}`,
		},
		{
			name:   "delete",
			call:   func(c *Client) error { return c.DeleteVal(context.Background(), "id1") },
			method: http.MethodDelete,
			path:   "/v1/vals/id1",
		},
		{
			name:     "eval",
			call:     func(c *Client) error { _, err := c.Eval(context.Background(), "1+1", nil); return err },
			method:   http.MethodPost,
			path:     "/v1/eval",
			wantBody: `{"code":"1+1","args":[]}`,
		},
		{
			name:     "run",
			call:     func(c *Client) error { _, err := c.Run(context.Background(), ref, []any{"x", 2.0}); return err },
			method:   http.MethodPost,
			path:     "/v1/run/alice.hello",
			wantBody: `{"args":["x",2]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := fakeAPI(t, http.StatusOK, `{"id":"id1"}`)
			require.NoError(t, tt.call(c))
			require.Len(t, *seen, 1)
			assert.Equal(t, tt.method, (*seen)[0].Method)
			assert.Equal(t, tt.path, (*seen)[0].Path)
			assert.Equal(t, "Bearer secret", (*seen)[0].Auth)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, (*seen)[0].Body)
			}
		})
	}
}

func TestClient_AliasID(t *testing.T) {
	c, _ := fakeAPI(t, http.StatusOK, `{"id":"abc","name":"hello"}`)
	id, err := c.AliasID(context.Background(), valref.Resolve("a.hello"))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	c, _ = fakeAPI(t, http.StatusNotFound, `not found`)
	_, err = c.AliasID(context.Background(), valref.Resolve("a.hello"))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Contains(t, err.Error(), "@a/hello")
}

func TestClient_Paginate(t *testing.T) {
	var srvURL string
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		offset := r.URL.Query().Get("offset")
		var page any
		switch offset {
		case "0":
			page = map[string]any{
				"data":  []map[string]string{{"id": "1"}, {"id": "2"}},
				"links": map[string]string{"next": fmt.Sprintf("%s%s?limit=2&offset=2", srvURL, r.URL.Path)},
			}
		case "2":
			page = map[string]any{
				"data":  []map[string]string{{"id": "3"}},
				"links": map[string]string{},
			}
		default:
			t.Errorf("unexpected offset %q", offset)
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := New(srv.URL, "secret", WithHTTPClient(srv.Client()))

	doc, err := c.UserVals(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"},{"id":"2"},{"id":"3"}]`, string(doc))
	assert.Equal(t, 2, calls)

	calls = 0
	doc, err = c.UserVals(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(doc))
	assert.Equal(t, 1, calls)
}

func TestClient_SearchVals_Query(t *testing.T) {
	c, seen := fakeAPI(t, http.StatusOK, `{"data":[],"links":{}}`)
	doc, err := c.SearchVals(context.Background(), "hello world", 0)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(doc))
	assert.Equal(t, "/v1/search/vals", (*seen)[0].Path)
	assert.Contains(t, (*seen)[0].Query, "query=hello+world")
}

func TestClient_Me_UsesGivenToken(t *testing.T) {
	c, seen := fakeAPI(t, http.StatusOK, `{"id":"u"}`)

	_, err := c.Me(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, "Bearer other", (*seen)[0].Auth)

	_, err = c.Me(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_Do_ForeignHostGetsNoToken(t *testing.T) {
	foreign, seen := fakeAPI(t, http.StatusOK, `{}`)
	c := New("https://api.example.test", "secret", WithHTTPClient(foreign.HTTP))

	_, err := c.Do(context.Background(), http.MethodGet, foreign.BaseURL+"/v1/me", nil)
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].Auth)
}

func TestClient_SameHost(t *testing.T) {
	c := New("https://api.example.test", "t")
	assert.True(t, c.SameHost("https://api.example.test/v1/me"))
	assert.True(t, c.SameHost("https://API.example.test/v1/vals?offset=2"))
	assert.False(t, c.SameHost("http://api.example.test/v1/me"))
	assert.False(t, c.SameHost("https://evil.test/v1/me"))
	assert.False(t, c.SameHost("https://api.example.test.evil.test/"))
}
