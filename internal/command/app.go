// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/api"
	"github.com/staranto/vtgo/internal/cacheutil"
	"github.com/staranto/vtgo/internal/config"
	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

// InitApp resolves the process environment into a meta.Meta and builds the
// command tree around it.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	// The arg[1] immediately following the binary (arg[0]) is the vt
	// subcommand and also represents the namespace key to be used when retrieving
	// config values. arg[1] could be -h/--help, so ignore it if it appears to be
	// a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load(ns)
	if err != nil {
		log.Debugf("config: %v", err)
	}

	m := meta.Meta{
		Args:    args,
		Config:  cfg,
		Context: ctx,
		Token:   resolveToken(),
		APIURL:  resolveAPIURL(),
		Mode:    output.DetectMode(os.Stdout),
		Cache:   cacheutil.Default(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Edit:    runEditor,
	}
	log.Debugf("api: %s, mode: %s, cache: %s", m.APIURL, m.Mode, m.Cache.Base)

	return NewApp(m), nil
}

// NewApp builds the vt command tree for m.
func NewApp(m meta.Meta) *cli.Command {
	app := &cli.Command{
		Name:      "vt",
		Usage:     "command line client for vals",
		Writer:    m.Stdout,
		ErrWriter: m.Stderr,
		Reader:    m.Stdin,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "vt version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		APICommandBuilder(m),
		CreateCommandBuilder(m),
		DeleteCommandBuilder(m),
		EditCommandBuilder(m),
		EvalCommandBuilder(m),
		InstallCommandBuilder(m),
		ListCommandBuilder(m),
		RenameCommandBuilder(m),
		RunCommandBuilder(m),
		SearchCommandBuilder(m),
		ViewCommandBuilder(m),
		WhoamiCommandBuilder(m),
	)
	app.Commands = append(app.Commands, CompletionCommandBuilder(app, m))

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}

// resolveToken reads the bearer token once. VALTOWN_TOKEN wins over the
// config file.
func resolveToken() string {
	for _, env := range []string{"VALTOWN_TOKEN", "VAL_TOWN_API_KEY"} {
		if t := os.Getenv(env); t != "" {
			return t
		}
	}
	t, _ := config.GetString("token", "")
	return t
}

func resolveAPIURL() string {
	if u := os.Getenv("VALTOWN_API_URL"); u != "" {
		return u
	}
	u, _ := config.GetString("api_url", api.DefaultBaseURL)
	return u
}

// runEditor opens path in $VISUAL or $EDITOR, falling back to vi. The editor
// value may carry arguments, e.g. "code --wait".
func runEditor(ctx context.Context, path string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	parts := strings.Fields(editor)
	c := exec.CommandContext(ctx, parts[0], append(parts[1:], path)...) //nolint:gosec
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
