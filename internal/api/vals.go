// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/vtgo/internal/valref"
)

// pageSize is the largest page the list endpoints accept.
const pageSize = 100

// CreateValRequest is the body of POST /v1/vals.
type CreateValRequest struct {
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Privacy string `json:"privacy,omitempty"`
	Type    string `json:"type,omitempty"`
}

// ValPatch is the body of PATCH /v1/vals/{id}. Nil fields are left alone.
type ValPatch struct {
	Name    *string `json:"name,omitempty"`
	Privacy *string `json:"privacy,omitempty"`
}

type codeBody struct {
	Code string `json:"code"`
}

type evalBody struct {
	Code string `json:"code"`
	Args []any  `json:"args"`
}

type runBody struct {
	Args []any `json:"args"`
}

// Me returns the profile of token's owner. The token is passed explicitly so a
// cache keyed by it cannot end up holding another token's profile.
func (c *Client) Me(ctx context.Context, token string) ([]byte, error) {
	return c.send(ctx, token, http.MethodGet, "/v1/me", nil)
}

// Alias looks a val up by author and name.
func (c *Client) Alias(ctx context.Context, ref valref.Ref) ([]byte, error) {
	return c.Do(ctx, http.MethodGet,
		"/v1/alias/"+url.PathEscape(ref.Author)+"/"+url.PathEscape(ref.Name), nil)
}

// AliasUser looks a user up by username.
func (c *Client) AliasUser(ctx context.Context, username string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, "/v1/alias/"+url.PathEscape(strings.TrimPrefix(username, "@")), nil)
}

// AliasID resolves ref and returns only the val id.
func (c *Client) AliasID(ctx context.Context, ref valref.Ref) (string, error) {
	doc, err := c.Alias(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to find %s: %w", ref, err)
	}
	id := gjson.GetBytes(doc, "id").String()
	if id == "" {
		return "", fmt.Errorf("failed to find %s: response has no id", ref)
	}
	return id, nil
}

// Val fetches a val by id.
func (c *Client) Val(ctx context.Context, id string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, "/v1/vals/"+url.PathEscape(id), nil)
}

// CreateVal creates a val and returns its record.
func (c *Client) CreateVal(ctx context.Context, r CreateValRequest) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, "/v1/vals", r)
}

// UpdateCode saves code as a new version of val id.
func (c *Client) UpdateCode(ctx context.Context, id, code string) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, "/v1/vals/"+url.PathEscape(id)+"/versions", codeBody{Code: code})
}

// UpdateVal changes a val's metadata.
func (c *Client) UpdateVal(ctx context.Context, id string, p ValPatch) error {
	_, err := c.Do(ctx, http.MethodPatch, "/v1/vals/"+url.PathEscape(id), p)
	return err
}

// DeleteVal removes val id.
func (c *Client) DeleteVal(ctx context.Context, id string) error {
	_, err := c.Do(ctx, http.MethodDelete, "/v1/vals/"+url.PathEscape(id), nil)
	return err
}

// UserVals lists the vals of userID, at most limit of them when limit > 0.
// The result is a JSON array.
func (c *Client) UserVals(ctx context.Context, userID string, limit int) ([]byte, error) {
	return c.Paginate(ctx, "/v1/users/"+url.PathEscape(userID)+"/vals", url.Values{}, limit)
}

// SearchVals returns vals matching query as a JSON array.
func (c *Client) SearchVals(ctx context.Context, query string, limit int) ([]byte, error) {
	return c.Paginate(ctx, "/v1/search/vals", url.Values{"query": {query}}, limit)
}

// Eval evaluates code server side.
func (c *Client) Eval(ctx context.Context, code string, args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return c.Do(ctx, http.MethodPost, "/v1/eval", evalBody{Code: code, Args: args})
}

// Run invokes the val's exported function with args.
func (c *Client) Run(ctx context.Context, ref valref.Ref, args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return c.Do(ctx, http.MethodPost,
		"/v1/run/"+url.PathEscape(ref.Author)+"."+url.PathEscape(ref.Name), runBody{Args: args})
}

// Paginate walks a list endpoint following links.next and concatenates every
// page's data array into one JSON array. limit <= 0 means no limit.
func (c *Client) Paginate(ctx context.Context, path string, query url.Values, limit int) ([]byte, error) {
	size := pageSize
	if limit > 0 && limit < size {
		size = limit
	}
	query.Set("limit", strconv.Itoa(size))
	query.Set("offset", "0")
	next := path + "?" + query.Encode()

	var items []string
	for next != "" {
		doc, err := c.Do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}

		page := gjson.GetBytes(doc, "data").Array()
		for _, item := range page {
			items = append(items, item.Raw)
			if limit > 0 && len(items) >= limit {
				break
			}
		}
		log.Debugf("page of %d, %d so far", len(page), len(items))

		if len(page) == 0 || (limit > 0 && len(items) >= limit) {
			break
		}
		next = gjson.GetBytes(doc, "links.next").String()
	}

	return []byte("[" + strings.Join(items, ",") + "]"), nil
}
