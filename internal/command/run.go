// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

// RunCommandBuilder constructs the run command.
func RunCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a val's exported function",
		UsageText: "vt run <ref> [args...]",
		Metadata: map[string]any{
			"meta": m,
		},
		Action: runCommandAction,
	}
}

func runCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	ref, err := RefArg(cmd, 0)
	if err != nil {
		return err
	}

	res, err := m.Client().Run(ctx, ref, DecodeArgs(cmd.Args().Tail()))
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", ref, err)
	}
	return output.JSON(m.Stdout, res, m.Mode)
}

// DecodeArgs turns command line arguments into JSON values. Anything that is
// not valid JSON is passed as a string, so `vt run @a/b 1 x` sends [1,"x"].
func DecodeArgs(raw []string) []any {
	args := make([]any, 0, len(raw))
	for _, r := range raw {
		var v any
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			v = r
		}
		args = append(args, v)
	}
	return args
}
