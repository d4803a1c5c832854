// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/api"
	"github.com/staranto/vtgo/internal/meta"
)

// CreateCommandBuilder constructs the create command. Code comes from --file
// or stdin; the optional argument names the val.
func CreateCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "create a new val",
		UsageText: "vt create [name] [--file FILE] [--privacy LEVEL]",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			NewFileFlag(),
			NewPrivacyFlag("create", m.Config.Source),
			&cli.StringFlag{
				Name:  "type",
				Usage: "val type: script, http, interval or email",
			},
		},
		Action: createCommandAction,
	}
}

func createCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	code, err := ReadCode(m, cmd.String("file"))
	if err != nil {
		return err
	}

	req := api.CreateValRequest{
		Name:    cmd.Args().First(),
		Code:    code,
		Privacy: cmd.String("privacy"),
		Type:    cmd.String("type"),
	}
	log.Debugf("create %q (%d bytes, privacy %q)", req.Name, len(code), req.Privacy)

	doc, err := m.Client().CreateVal(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create val: %w", err)
	}

	author := gjson.GetBytes(doc, "author.username").String()
	name := gjson.GetBytes(doc, "name").String()
	fmt.Fprintf(m.Stdout, "created @%s/%s\n", author, name)
	if m.Mode.Interactive() {
		fmt.Fprintln(m.Stdout, link(author, name))
	}
	return nil
}
