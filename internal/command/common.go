// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/attrs"
	"github.com/staranto/vtgo/internal/config"
	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
	"github.com/staranto/vtgo/internal/valref"
)

// WebURL is where vals are browsed.
const WebURL = "https://www.val.town/v/"

var ErrMissingArgument = errors.New("missing argument")

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// RefArg resolves positional argument i as a val reference and rejects
// references missing either half.
func RefArg(cmd *cli.Command, i int) (valref.Ref, error) {
	raw := cmd.Args().Get(i)
	if raw == "" {
		return valref.Ref{}, fmt.Errorf("%w: val reference, e.g. @author/name", ErrMissingArgument)
	}
	ref := valref.Resolve(raw)
	if err := ref.Validate(); err != nil {
		return valref.Ref{}, err
	}
	return ref, nil
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (attrs.AttrList, error) {
	var al attrs.AttrList
	for _, d := range defaults {
		if err := al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return nil, fmt.Errorf("invalid --attrs: %w", err)
		}
	}
	if err := al.SetGlobalTransformSpec(); err != nil {
		return nil, err
	}
	return al, nil
}

// OutputOptions collects the global output flags of cmd.
func OutputOptions(cmd *cli.Command, m meta.Meta) output.Options {
	pad, _ := config.GetInt("padding", 1)
	return output.Options{
		Format:  cmd.String("output"),
		Filter:  cmd.String("filter"),
		Sort:    cmd.String("sort"),
		Titles:  cmd.Bool("titles"),
		Color:   cmd.Bool("color"),
		Padding: pad,
		Colors:  getColors("colors"),
		Warn:    m.Stderr,
	}
}

// getColors returns configured color values for table rendering.
func getColors(key string) output.Colors {
	d := output.DefaultColors
	title, _ := config.GetString(key+".title", d.Title)
	even, _ := config.GetString(key+".even", d.Even)
	odd, _ := config.GetString(key+".odd", d.Odd)
	return output.Colors{Title: title, Even: even, Odd: odd}
}

// ReadCode returns val source from file, "-" meaning stdin. An empty file
// name also reads stdin.
func ReadCode(m meta.Meta, file string) (string, error) {
	var (
		b   []byte
		err error
	)
	if file == "" || file == "-" {
		if m.Stdin == nil {
			return "", fmt.Errorf("%w: code on stdin or --file", ErrMissingArgument)
		}
		b, err = io.ReadAll(m.Stdin)
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return string(b), nil
}

// QueryCommandBuilder constructs a cli.Command for listing subcommands
// (search, list) using a consistent pattern. The builder wires metadata,
// adds the limit and global output flags.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	src := qcb.Meta.Config.Source
	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append([]cli.Flag{
			NewLimitFlag(qcb.Name, src),
		}, NewGlobalFlags(qcb.Name, src)...)...),
		Action: qcb.Action,
	}
}

// QueryActionRunner encapsulates the common listing action: build attrs,
// fetch a JSON array, emit it per the output flags.
type QueryActionRunner struct {
	CommandName  string
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command, meta.Meta) ([]byte, error)
}

// Run executes the query action with the provided context and command.
func (qar *QueryActionRunner) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %s %v", qar.CommandName, cmd.Args().Slice())

	al, err := BuildAttrs(cmd, qar.DefaultAttrs...)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	results, err := qar.FetchFn(ctx, cmd, m)
	if err != nil {
		return err
	}

	return output.SliceDiceSpit(results, al, OutputOptions(cmd, m), m.Stdout)
}

// valDefaultAttrs are the columns search and list show without --attrs.
var valDefaultAttrs = []string{
	"author.username:author",
	"name",
	"version",
	"privacy",
	"!id",
}

// link renders the web URL for a val.
func link(author, name string) string {
	return WebURL + strings.TrimPrefix(author, "@") + "/" + name
}
