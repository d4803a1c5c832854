// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
)

// SearchCommandBuilder constructs the search command.
func SearchCommandBuilder(m meta.Meta) *cli.Command {
	runner := &QueryActionRunner{
		CommandName:  "search",
		DefaultAttrs: valDefaultAttrs,
		FetchFn:      searchFetch,
	}
	return (&QueryCommandBuilder{
		Name:      "search",
		Usage:     "search vals",
		UsageText: "vt search <query> [options]",
		Meta:      m,
		Action:    runner.Run,
	}).Build()
}

func searchFetch(ctx context.Context, cmd *cli.Command, m meta.Meta) ([]byte, error) {
	query := strings.Join(cmd.Args().Slice(), " ")
	if query == "" {
		return nil, fmt.Errorf("%w: search query", ErrMissingArgument)
	}
	return m.Client().SearchVals(ctx, query, int(cmd.Int("limit")))
}
