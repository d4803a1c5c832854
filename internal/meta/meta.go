// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apex/log"

	"github.com/staranto/vtgo/internal/api"
	"github.com/staranto/vtgo/internal/cacheutil"
	"github.com/staranto/vtgo/internal/config"
	"github.com/staranto/vtgo/internal/identity"
	"github.com/staranto/vtgo/internal/output"
)

// EditFunc lets the user edit the file at path and returns once they are done.
type EditFunc func(ctx context.Context, path string) error

// Meta is everything a command needs from the process environment. It is
// resolved once in InitApp and handed to every command, so nothing below
// this point reads the environment for the token or the terminal.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context

	// Token is the API bearer token. It is never logged.
	Token  string
	APIURL string

	Mode  output.Mode
	Cache cacheutil.Store

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Edit EditFunc
}

// Client returns an API client for m's endpoint and token.
func (m Meta) Client() *api.Client {
	return api.New(m.APIURL, m.Token)
}

// Identity resolves the token's owner through the identity cache. A failure to
// write the cache is reported on Stderr but does not fail the command.
func (m Meta) Identity(ctx context.Context) (identity.Identity, error) {
	if m.Token == "" {
		return identity.Identity{}, api.ErrNoToken
	}

	id, err := identity.New(m.Cache, m.Client()).Load(ctx, m.Token)

	var cwe *identity.CacheWriteError
	if errors.As(err, &cwe) {
		log.WithError(cwe.Err).Warn("identity not cached")
		if m.Stderr != nil {
			fmt.Fprintf(m.Stderr, "warning: %v\n", err)
		}
		return id, nil
	}

	return id, err
}
