// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

// EvalCommandBuilder constructs the eval command.
func EvalCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "evaluate an expression",
		UsageText: "vt eval <expr> [--args JSON]\n   echo '1 + 1' | vt eval -",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "args",
				Usage: "JSON array of arguments",
			},
		},
		Action: evalCommandAction,
	}
}

func evalCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	expr := strings.Join(cmd.Args().Slice(), " ")
	if expr == "-" {
		code, err := ReadCode(m, "-")
		if err != nil {
			return err
		}
		expr = code
	}
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("%w: expression", ErrMissingArgument)
	}

	var args []any
	if a := cmd.String("args"); a != "" {
		if err := json.Unmarshal([]byte(a), &args); err != nil {
			return fmt.Errorf("--args must be a JSON array: %w", err)
		}
	}

	res, err := m.Client().Eval(ctx, expr, args)
	if err != nil {
		return fmt.Errorf("eval failed: %w", err)
	}
	return output.JSON(m.Stdout, res, m.Mode)
}
