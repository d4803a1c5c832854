// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/config"
	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

// ViewCommandBuilder constructs the view command.
func ViewCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "show a val",
		UsageText: "vt view <ref> [--json] [--code]",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the val record as JSON",
			},
			&cli.BoolFlag{
				Name:  "code",
				Usage: "print only the code",
			},
		},
		Action: viewCommandAction,
	}
}

func viewCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	ref, err := RefArg(cmd, 0)
	if err != nil {
		return err
	}

	doc, err := m.Client().Alias(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", ref, err)
	}

	if cmd.Bool("json") {
		return output.JSON(m.Stdout, doc, m.Mode)
	}

	code := gjson.GetBytes(doc, "code").String()
	if m.Mode.Interactive() && !cmd.Bool("code") {
		writeHeader(m.Stdout, gjson.ParseBytes(doc))
	}

	style, _ := config.GetString("style", output.DefaultStyle)
	return output.Code(m.Stdout, code, m.Mode, style)
}

// writeHeader prints the val's identity and version line above its code.
func writeHeader(w io.Writer, val gjson.Result) {
	author := val.Get("author.username").String()
	name := val.Get("name").String()

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(getColors("colors").Title))
	fmt.Fprintln(w, title.Render(fmt.Sprintf("@%s/%s", author, name)))

	line := fmt.Sprintf("v%d  %s", val.Get("version").Int(), val.Get("privacy").String())
	if t, err := time.Parse(time.RFC3339, val.Get("runStartAt").String()); err == nil {
		line += "  updated " + humanize.Time(t)
	}
	fmt.Fprintln(w, lipgloss.NewStyle().Faint(true).Render(line))
	fmt.Fprintln(w, link(author, name))
	fmt.Fprintln(w)
}
