// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/apex/log"

	"github.com/staranto/vtgo/internal/cacheutil"
	"github.com/staranto/vtgo/internal/command"
	mylog "github.com/staranto/vtgo/internal/log"
	"github.com/staranto/vtgo/internal/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	// Short-circuit --version/-v, only in front of any subcommand.
	if isVersionFlag(args) {
		fmt.Println(version.Version)
		return 0
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.Default().EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		log.Debugf("command failed: %#v", err)
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

func isVersionFlag(args []string) bool {
	return len(args) > 1 && (args[1] == "--version" || args[1] == "-v")
}
