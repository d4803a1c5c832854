// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/valref"
)

// InstallCommandBuilder constructs the install command, which drops a shell
// shim that runs the val into a directory on $PATH.
func InstallCommandBuilder(m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "install a val as an executable",
		UsageText: "vt install <ref> [--dir DIR] [--name NAME]",
		Metadata: map[string]any{
			"meta": m,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "install into `DIR`, default ~/.local/bin",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("install.dir", altsrc.StringSourcer(m.Config.Source)),
				),
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "executable name, default the val name",
			},
		},
		Action: installCommandAction,
	}
}

func installCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	ref, err := RefArg(cmd, 0)
	if err != nil {
		return err
	}

	// Fail before touching the filesystem if the val does not exist.
	if _, err := m.Client().AliasID(ctx, ref); err != nil {
		return err
	}

	dir := cmd.String("dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "bin")
	}
	name, err := ShimName(ref, cmd.String("name"))
	if err != nil {
		return err
	}

	path, err := WriteShim(dir, name, ref)
	if err != nil {
		return err
	}
	log.Debugf("installed %s", path)

	fmt.Fprintf(m.Stdout, "installed %s as %s\n", ref, path)
	return nil
}

var ErrBadShimName = errors.New("executable name must not contain a path separator")

// ShimName picks the executable name. An explicit name is used as is and must
// be a plain file name; the default is the val name with any separators
// replaced by "-".
func ShimName(ref valref.Ref, name string) (string, error) {
	if name == "" {
		name = strings.NewReplacer("/", "-", string(filepath.Separator), "-").Replace(ref.Name)
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) ||
		name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadShimName, name)
	}
	return name, nil
}

// shellQuote single-quotes s for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// WriteShim writes an executable script named name into dir that forwards its
// arguments to `vt run`.
func WriteShim(dir, name string, ref valref.Ref) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	shim := fmt.Sprintf("#!/bin/sh\nexec vt run %s \"$@\"\n", shellQuote(ref.String()))
	if err := os.WriteFile(path, []byte(shim), 0o755); err != nil { //nolint:gosec
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o755); err != nil { //nolint:gosec
		return "", fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return path, nil
}
