// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// Privacy levels a val can have.
var privacyLevels = []string{"public", "unlisted", "private"}

// NewGlobalFlags returns the output flags shared by listing commands. ns is
// the command name, used to look up namespaced defaults in the config file
// at src.
func NewGlobalFlags(ns, src string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".color", altsrc.StringSourcer(src)),
				yaml.YAML("color", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".output", altsrc.StringSourcer(src)),
				yaml.YAML("output", altsrc.StringSourcer(src)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".titles", altsrc.StringSourcer(src)),
				yaml.YAML("titles", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
	}

	return
}

// NewLimitFlag caps the number of records a listing command fetches.
func NewLimitFlag(ns, src string) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"l"},
		Usage:   "maximum number of vals to fetch, 0 for all",
		Value:   100,
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+".limit", altsrc.StringSourcer(src)),
			yaml.YAML("limit", altsrc.StringSourcer(src)),
		),
	}
}

// NewPrivacyFlag is shared by create and edit. Defaults come only from the
// config so edit can tell "not given" apart from a value.
func NewPrivacyFlag(ns, src string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "privacy",
		Aliases: []string{"p"},
		Usage:   "val privacy: public, unlisted or private",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+".privacy", altsrc.StringSourcer(src)),
		),
		Validator: func(value string) error {
			return FlagValidators(value, PrivacyValidator)
		},
	}
}

// NewFileFlag names a file to read val code from; "-" is stdin.
func NewFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "file",
		Usage: "read code from `FILE`, - for stdin",
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}
}
