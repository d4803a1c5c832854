// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/api"
	"github.com/staranto/vtgo/internal/meta"
)

// RenameCommandBuilder constructs the rename command.
func RenameCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "rename a val",
		UsageText: "vt rename <ref> <new-name>",
		Metadata: map[string]any{
			"meta": m,
		},
		Action: renameCommandAction,
	}
}

func renameCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	ref, err := RefArg(cmd, 0)
	if err != nil {
		return err
	}
	name := cmd.Args().Get(1)
	if name == "" {
		return fmt.Errorf("%w: new name", ErrMissingArgument)
	}

	client := m.Client()
	id, err := client.AliasID(ctx, ref)
	if err != nil {
		return err
	}

	if err := client.UpdateVal(ctx, id, api.ValPatch{Name: &name}); err != nil {
		return fmt.Errorf("failed to rename %s: %w", ref, err)
	}

	fmt.Fprintf(m.Stdout, "renamed %s to @%s/%s\n", ref, ref.Author, name)
	return nil
}
