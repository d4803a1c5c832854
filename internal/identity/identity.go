// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package identity answers "who does this token belong to" with at most one
// network round trip per token. The answer is memoized on disk under a
// digest of the token and is never expired.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/vtgo/internal/api"
	"github.com/staranto/vtgo/internal/cacheutil"
)

// subdirs places identities at <cache root>/user/<digest>.
var subdirs = []string{"user"}

// Fetcher is the one API call the cache needs. Me must authenticate with
// token, the same value the entry is cached under.
type Fetcher interface {
	Me(ctx context.Context, token string) ([]byte, error)
}

// Identity is the authenticated user's profile. Raw holds the JSON exactly as
// the API (or the cache file) returned it; ID and Username are decoded from
// it for convenience.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Raw      []byte `json:"-"`
}

// FetchError means the identity endpoint refused or failed and nothing was
// cached.
type FetchError struct {
	Status int
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("failed to fetch identity: %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("failed to fetch identity: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CacheWriteError means the identity was fetched but could not be stored.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("failed to cache identity: %v", e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// Cache resolves identities through Store, falling back to Fetcher.
type Cache struct {
	Store   cacheutil.Store
	Fetcher Fetcher
}

// New returns a Cache over store that fetches with f.
func New(store cacheutil.Store, f Fetcher) *Cache {
	return &Cache{Store: store, Fetcher: f}
}

// Path returns where the identity for token is, or would be, cached.
func (c *Cache) Path(token string) string {
	p, _ := c.Store.EntryPath(subdirs, token)
	return p
}

// Load returns the identity for token. A cache hit short-circuits with no
// freshness check. On a miss the identity is fetched, written and returned.
// The token is both the cache key and the credential for the fetch.
func (c *Cache) Load(ctx context.Context, token string) (Identity, error) {
	if entry, ok := c.Store.Read(subdirs, token); ok {
		id, err := parse(entry.Data)
		if err == nil {
			log.Debugf("identity cache hit: %s", entry.Path)
			return id, nil
		}
		log.WithError(err).Warnf("ignoring unreadable identity cache %s", entry.Path)
	}

	doc, err := c.Fetcher.Me(ctx, token)
	if err != nil {
		fe := &FetchError{Err: err}
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			fe.Status = apiErr.Status
			fe.Body = apiErr.Body
		}
		return Identity{}, fe
	}

	id, err := parse(doc)
	if err != nil {
		return Identity{}, &FetchError{Body: string(doc), Err: err}
	}

	p, err := c.Store.Write(subdirs, token, id.Raw)
	if err != nil {
		return id, &CacheWriteError{Path: c.Path(token), Err: err}
	}
	if p != "" {
		log.Debugf("identity cached: %s", p)
	}

	return id, nil
}

var errNotObject = errors.New("identity is not a JSON object")

func parse(doc []byte) (Identity, error) {
	doc = bytes.TrimSpace(doc)
	if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		return Identity{}, errNotObject
	}

	var id Identity
	if err := json.Unmarshal(doc, &id); err != nil {
		return Identity{}, fmt.Errorf("failed to parse identity: %w", err)
	}
	id.Raw = doc
	return id, nil
}
