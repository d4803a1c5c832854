// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/api"
	"github.com/staranto/vtgo/internal/meta"
)

var ErrNoEditor = errors.New("no editor available")

// EditCommandBuilder constructs the edit command.
func EditCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "edit a val's code or privacy",
		UsageText: "vt edit <ref> [--file FILE] [--privacy LEVEL]",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			NewFileFlag(),
			NewPrivacyFlag("edit", m.Config.Source),
		},
		Action: editCommandAction,
	}
}

func editCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	ref, err := RefArg(cmd, 0)
	if err != nil {
		return err
	}

	client := m.Client()
	doc, err := client.Alias(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", ref, err)
	}
	id := gjson.GetBytes(doc, "id").String()
	old := gjson.GetBytes(doc, "code").String()

	// --privacy alone only touches metadata.
	if privacy := cmd.String("privacy"); privacy != "" {
		if err := client.UpdateVal(ctx, id, api.ValPatch{Privacy: &privacy}); err != nil {
			return fmt.Errorf("failed to update %s: %w", ref, err)
		}
		fmt.Fprintf(m.Stdout, "%s is now %s\n", ref, privacy)
		if !cmd.IsSet("file") {
			return nil
		}
	}

	code, err := editedCode(ctx, cmd, m, ref.Name, old)
	if err != nil {
		return err
	}

	if code == old {
		fmt.Fprintf(m.Stdout, "%s unchanged\n", ref)
		return nil
	}

	res, err := client.UpdateCode(ctx, id, code)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", ref, err)
	}
	fmt.Fprintf(m.Stdout, "saved %s v%d\n", ref, gjson.GetBytes(res, "version").Int())
	return nil
}

// editedCode returns the new source. With --file or a pipe it is read
// directly, otherwise the current source goes through the editor.
func editedCode(ctx context.Context, cmd *cli.Command, m meta.Meta, name, old string) (string, error) {
	if cmd.IsSet("file") || !m.Mode.Interactive() {
		return ReadCode(m, cmd.String("file"))
	}

	if m.Edit == nil {
		return "", ErrNoEditor
	}

	dir, err := os.MkdirTemp("", "vt-edit-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name+".tsx")
	if err := os.WriteFile(path, []byte(old), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Debugf("editing %s", path)
	if err := m.Edit(ctx, path); err != nil {
		return "", fmt.Errorf("editor failed: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}
