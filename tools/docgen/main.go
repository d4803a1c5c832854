// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/command"
	"github.com/staranto/vtgo/internal/meta"
)

// Doc generator driven by the command tree itself:
// - docs/commands/vt-<cmd>.md rendered from name, usage and flags
// - docs/man/share/man1/vt-<cmd>.1 via md2man
// - docs/tldr/vt-<cmd>.md from the usage lines

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, dir := range []string{commandsDir, manOutDir, tldrOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatalf("creating output dir %s: %v", dir, err)
		}
	}

	app := command.NewApp(meta.Meta{})

	var processed int
	for _, cmd := range app.Commands {
		md := buildMarkdown(cmd)

		mdPath := filepath.Join(commandsDir, fmt.Sprintf("vt-%s.md", cmd.Name))
		if err := writeFileIfChanged(mdPath, []byte(md), writeOnlyIfChanged); err != nil {
			fatalf("writing markdown for %s: %v", cmd.Name, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("vt-%s.1", cmd.Name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(md)), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd.Name, err)
		}

		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("vt-%s.md", cmd.Name))
		if err := writeFileIfChanged(tldrPath, []byte(buildTLDR(cmd)), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", cmd.Name, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no commands found")
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

// buildMarkdown renders a man-page shaped markdown document for cmd.
func buildMarkdown(cmd *cli.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%% VT-%s 1\n\n", strings.ToUpper(cmd.Name))
	b.WriteString("# NAME\n\n")
	fmt.Fprintf(&b, "vt-%s - %s\n\n", cmd.Name, cmd.Usage)

	b.WriteString("# SYNOPSIS\n\n")
	for _, ln := range usageLines(cmd) {
		fmt.Fprintf(&b, "`%s`\n\n", ln)
	}

	if len(cmd.Flags) > 0 {
		b.WriteString("# OPTIONS\n\n")
		for _, f := range cmd.Flags {
			var names []string
			for _, n := range f.Names() {
				if len(n) == 1 {
					names = append(names, "-"+n)
				} else {
					names = append(names, "--"+n)
				}
			}
			fmt.Fprintf(&b, "**%s**\n:   %s\n\n", strings.Join(names, ", "), flagUsage(f))
		}
	}

	b.WriteString("# ENVIRONMENT\n\n")
	b.WriteString("**VALTOWN_TOKEN**\n:   API token\n\n")
	b.WriteString("**VT_CFG**\n:   config file location\n\n")
	b.WriteString("**VT_CACHE_DIR**, **VT_CACHE**\n:   cache location, 0 disables the cache\n\n")
	b.WriteString("**VT_LOG**\n:   log level\n")

	return b.String()
}

func flagUsage(f cli.Flag) string {
	if df, ok := f.(cli.DocGenerationFlag); ok {
		return strings.ReplaceAll(df.GetUsage(), "`", "")
	}
	return ""
}

func usageLines(cmd *cli.Command) []string {
	text := cmd.UsageText
	if text == "" {
		text = "vt " + cmd.Name + " [options]"
	}
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if s := sanitizeCommand(ln); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

func buildTLDR(cmd *cli.Command) string {
	var b strings.Builder
	b.WriteString("# vt-" + cmd.Name + "\n\n")
	b.WriteString("> " + cmd.Usage + ".\n")
	b.WriteString("> More information: https://github.com/staranto/vtgo.\n\n")

	for i, ln := range usageLines(cmd) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + strings.ToUpper(cmd.Usage[:1]) + cmd.Usage[1:] + ":\n\n")
		b.WriteString("`" + ln + "`\n")
	}
	return b.String()
}

func sanitizeCommand(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
