// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

// WhoamiCommandBuilder constructs the whoami command.
func WhoamiCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the user the token belongs to",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the full profile as JSON",
			},
		},
		Action: whoamiCommandAction,
	}
}

func whoamiCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	id, err := m.Identity(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return output.JSON(m.Stdout, id.Raw, m.Mode)
	}
	fmt.Fprintf(m.Stdout, "@%s\n", id.Username)
	return nil
}
