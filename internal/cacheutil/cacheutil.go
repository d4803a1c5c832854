// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
)

// Entry represents a cached artifact on disk.
// Key is the clear-text key; EncodedKey is the hashed filename.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
}

// Store is a cache rooted at Base. The zero value is a disabled store.
type Store struct {
	Base     string
	Disabled bool
}

// Dir resolves the base cache directory.
// Precedence:
//  1. VT_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/vt
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("VT_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "vt"), true
	}
	return "", false
}

// Enabled returns true unless VT_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("VT_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// Default returns the Store described by the environment.
func Default() Store {
	base, ok := Dir()
	return Store{Base: base, Disabled: !ok || !Enabled()}
}

func (s Store) usable() bool {
	return !s.Disabled && s.Base != ""
}

// EnsureBaseDir creates the base cache directory if the store is usable.
// Returns the path, whether it is usable, and an error if creation failed.
func (s Store) EnsureBaseDir() (string, bool, error) {
	if !s.usable() {
		return "", false, nil
	}
	if err := os.MkdirAll(s.Base, 0o755); err != nil { //nolint:mnd
		return s.Base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return s.Base, true, nil
}

// EntryPath returns the absolute path where a cache entry would live given
// subdirectory components and the clear-text key. It also returns true if a
// file currently exists at that path.
func (s Store) EntryPath(subdirs []string, clearKey string) (string, bool) {
	if s.Base == "" {
		return "", false
	}
	p := filepath.Join(append([]string{s.Base}, append(subdirs, EncodeKey(clearKey))...)...)
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p, true
	}
	return p, false
}

// Read attempts to read a cached entry.
func (s Store) Read(subdirs []string, clearKey string) (*Entry, bool) {
	if !s.usable() {
		return nil, false
	}
	p, ok := s.EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		log.WithError(err).Debugf("failed to read cache file %s", p)
		return nil, false
	}
	b = bytes.TrimSpace(b)
	return &Entry{
		Key:        clearKey,
		EncodedKey: EncodeKey(clearKey),
		Path:       p,
		Data:       b,
	}, true
}

// Write stores data for the given key beneath subdirs. Creates directories as
// needed. The data lands in a temp file first and is renamed into place, so a
// concurrent reader never sees a partial entry. Returns the entry path.
func (s Store) Write(subdirs []string, clearKey string, data []byte) (string, error) {
	if !s.usable() {
		return "", nil // treat as disabled.
	}
	dir := filepath.Join(append([]string{s.Base}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	p := filepath.Join(dir, EncodeKey(clearKey))

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil { //nolint:mnd
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", fmt.Errorf("failed to write to cache: %w", err)
	}
	return p, nil
}

// EncodeKey hashes k with SHA-1 and returns the hex string. Only the digest
// ever reaches the filesystem.
func EncodeKey(k string) string {
	h := sha1.New() //nolint:gosec
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
