// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/staranto/vtgo/internal/version"
)

// DefaultBaseURL is used when neither --api-url, VALTOWN_API_URL nor the
// config file name one.
const DefaultBaseURL = "https://api.val.town"

var ErrNoToken = errors.New("no API token, set VALTOWN_TOKEN or token in vt.yaml")

// Client talks to the vals REST API with a bearer token. It holds no state
// beyond its configuration, so one Client serves a whole invocation.
type Client struct {
	BaseURL   string
	Token     string
	HTTP      *http.Client
	UserAgent string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// New returns a Client for baseURL authenticating with token.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		HTTP:      cleanhttp.DefaultPooledClient(),
		UserAgent: "vt/" + version.Version,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is returned for any non-2xx response. Body is the raw response body,
// which the API fills with a human readable reason.
type Error struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *Error) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.Status, body)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// URL resolves path against BaseURL. Absolute URLs, as found in pagination
// links, pass through untouched; Do withholds the token from foreign hosts.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// SameHost reports whether rawURL has the scheme and host of BaseURL.
func (c *Client) SameHost(rawURL string) bool {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return false
	}
	base, err := neturl.Parse(c.BaseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host)
}

// Do issues one request and returns the response body. body may be nil, a
// []byte or io.Reader sent verbatim, or any other value which is sent as
// JSON.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	return c.send(ctx, c.Token, method, path, body)
}

// send is Do with an explicit bearer token.
func (c *Client) send(ctx context.Context, token, method, path string, body any) ([]byte, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case io.Reader:
		reader = b
	default:
		doc, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(doc)
	}

	url := c.URL(path)
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The token only goes to the API host, never to a host named by an
	// absolute path or a pagination link.
	if c.SameHost(url) {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		log.Warnf("not sending credentials to %s", url)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("%s %s", method, url)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debugf("%s %s: %d (%d bytes)", method, url, resp.StatusCode, doc.Len())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return doc.Bytes(), &Error{
			Method: method,
			URL:    url,
			Status: resp.StatusCode,
			Body:   doc.String(),
		}
	}

	return doc.Bytes(), nil
}
