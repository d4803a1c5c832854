// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/urfave/cli/v3"

	"github.com/staranto/vtgo/internal/meta"
	"github.com/staranto/vtgo/internal/output"
)

const bashCompletionScript = `# bash completion for vt
_vt()
{
    local cur prev cmd
    COMPREPLY=()
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "{{ .Names }} --help --version" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "{{ .Formats }}" -- "$cur") )
        return 0
    fi
    if [[ "$prev" == "--privacy" || "$prev" == "-p" ]]; then
        COMPREPLY=( $(compgen -W "{{ .Privacy }}" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local opts="--help"
    case "$cmd" in
{{- range .Commands }}
    {{ .Name }})
        opts="{{ .Flags }} --help"
        ;;
{{- end }}
    completion)
        COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
        return 0
        ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    fi
    return 0
}

complete -F _vt vt
`

const zshCompletionScript = `#compdef vt

_vt() {
  local -a cmds
  cmds=(
{{- range .Commands }}
    '{{ .Name }}:{{ .Usage }}'
{{- end }}
    'completion:generate shell completion script'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'vt commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
{{- range .Commands }}
    {{ .Name }})
      _arguments -C \
{{- range .Specs }}
        {{ . }} \
{{- end }}
        '*::arg:'
      ;;
{{- end }}
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _vt vt
`

type completionCommand struct {
	Name  string
	Usage string
	Flags string
	Specs []string
}

type completionData struct {
	Names    string
	Formats  string
	Privacy  string
	Commands []completionCommand
}

// completionModel flattens the command tree into what the templates need.
func completionModel(app *cli.Command) completionData {
	data := completionData{
		Formats: strings.Join(output.Formats, " "),
		Privacy: strings.Join(privacyLevels, " "),
	}

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
		if c.Name == "completion" {
			continue
		}

		cc := completionCommand{Name: c.Name, Usage: strings.ReplaceAll(c.Usage, "'", "")}
		var flags []string
		for _, f := range c.Flags {
			fnames := f.Names()
			var dashed []string
			for _, n := range fnames {
				if len(n) == 1 {
					dashed = append(dashed, "-"+n)
				} else {
					dashed = append(dashed, "--"+n)
				}
			}
			sort.SliceStable(dashed, func(i, j int) bool { return len(dashed[i]) < len(dashed[j]) })
			flags = append(flags, dashed...)
			cc.Specs = append(cc.Specs, zshSpec(dashed, f))
		}
		cc.Flags = strings.Join(flags, " ")
		data.Commands = append(data.Commands, cc)
	}
	if len(names) == 0 || names[len(names)-1] != "completion" {
		names = append(names, "completion")
	}
	data.Names = strings.Join(names, " ")

	return data
}

// zshSpec renders one _arguments spec such as '(-o --output)'{-o,--output}'[output format]'.
func zshSpec(dashed []string, f cli.Flag) string {
	usage := ""
	if df, ok := f.(cli.DocGenerationFlag); ok {
		usage = strings.NewReplacer("'", "", "[", "(", "]", ")", "`", "").Replace(df.GetUsage())
	}
	if len(dashed) == 1 {
		return fmt.Sprintf("'%s[%s]'", dashed[0], usage)
	}
	return fmt.Sprintf("'(%s)'{%s}'[%s]'", strings.Join(dashed, " "), strings.Join(dashed, ","), usage)
}

// WriteCompletion renders the completion script for shell.
func WriteCompletion(w io.Writer, app *cli.Command, shell string) error {
	var src string
	switch shell {
	case "bash":
		src = bashCompletionScript
	case "zsh":
		src = zshCompletionScript
	default:
		return fmt.Errorf("unsupported shell %q, want bash or zsh", shell)
	}

	tmpl, err := template.New(shell).Parse(src)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, completionModel(app))
}

func CompletionCommandBuilder(app *cli.Command, m meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "vt completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": m,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := GetMeta(cmd)
			shell := cmd.Args().First()
			if shell == "" {
				// Try to detect from SHELL.
				sh := os.Getenv("SHELL")
				switch {
				case strings.HasSuffix(sh, "zsh"):
					shell = "zsh"
				case strings.HasSuffix(sh, "bash"):
					shell = "bash"
				default:
					fmt.Fprintln(m.Stderr, "usage: vt completion [bash|zsh]")
					return nil
				}
			}
			return WriteCompletion(m.Stdout, app, shell)
		},
	}
}
