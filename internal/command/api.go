// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

// APICommandBuilder constructs the api passthrough command.
func APICommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "api",
		Usage:     "make an authenticated API request",
		UsageText: "vt api <path> [-X METHOD] [-d DATA | -d @FILE | -d @-]",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"X"},
				Usage:   "HTTP method, default GET or POST when data is given",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "request body, @FILE reads a file and @- reads stdin",
			},
		},
		Action: apiCommandAction,
	}
}

func apiCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: API path, e.g. /v1/me", ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") && !strings.Contains(path, "://") {
		path = "/" + path
	}

	body, err := requestBody(m, cmd.String("data"))
	if err != nil {
		return err
	}

	method := strings.ToUpper(cmd.String("method"))
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}
	log.Debugf("api %s %s", method, path)

	var payload any
	if body != nil {
		payload = body
	}
	res, err := m.Client().Do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return nil
	}
	return output.JSON(m.Stdout, res, m.Mode)
}

// requestBody resolves the --data value. nil means no body.
func requestBody(m meta.Meta, data string) ([]byte, error) {
	switch {
	case data == "":
		return nil, nil
	case data == "@-":
		if m.Stdin == nil {
			return nil, fmt.Errorf("%w: data on stdin", ErrMissingArgument)
		}
		return io.ReadAll(m.Stdin)
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}
		return b, nil
	}
	return []byte(data), nil
}
