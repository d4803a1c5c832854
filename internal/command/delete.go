// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
)

var (
	ErrNotConfirmed = errors.New("delete not confirmed")
	ErrNeedsYes     = errors.New("refusing to delete without --yes when not interactive")
)

// DeleteCommandBuilder constructs the delete command.
func DeleteCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a val",
		UsageText: "vt delete <ref> [--yes]",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip the confirmation prompt",
			},
		},
		Action: deleteCommandAction,
	}
}

func deleteCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	ref, err := RefArg(cmd, 0)
	if err != nil {
		return err
	}

	if !cmd.Bool("yes") {
		if !m.Mode.Interactive() {
			return ErrNeedsYes
		}
		fmt.Fprintf(m.Stdout, "delete %s? [y/N] ", ref)
		if !confirmed(m) {
			return ErrNotConfirmed
		}
	}

	client := m.Client()
	id, err := client.AliasID(ctx, ref)
	if err != nil {
		return err
	}
	if err := client.DeleteVal(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", ref, err)
	}

	fmt.Fprintf(m.Stdout, "deleted %s\n", ref)
	return nil
}

func confirmed(m meta.Meta) bool {
	if m.Stdin == nil {
		return false
	}
	answer, _ := bufio.NewReader(m.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
