// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
)

// ListCommandBuilder constructs the list command. Without a user argument it
// lists the vals of the token's owner.
func ListCommandBuilder(m meta.Meta) *cli.Command {
	runner := &QueryActionRunner{
		CommandName:  "list",
		DefaultAttrs: valDefaultAttrs,
		FetchFn:      listFetch,
	}
	return (&QueryCommandBuilder{
		Name:      "list",
		Usage:     "list a user's vals",
		UsageText: "vt list [user] [options]",
		Meta:      m,
		Action:    runner.Run,
	}).Build()
}

func listFetch(ctx context.Context, cmd *cli.Command, m meta.Meta) ([]byte, error) {
	client := m.Client()

	var userID string
	if username := cmd.Args().First(); username != "" {
		doc, err := client.AliasUser(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to find user %s: %w", username, err)
		}
		userID = gjson.GetBytes(doc, "id").String()
	} else {
		id, err := m.Identity(ctx)
		if err != nil {
			return nil, err
		}
		userID = id.ID
	}
	log.Debugf("listing vals of user %s", userID)

	return client.UserVals(ctx, userID, int(cmd.Int("limit")))
}
