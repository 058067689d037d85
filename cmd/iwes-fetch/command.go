package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/provider"
)

var commandFormat string

var commandCmd = &cobra.Command{
	Use:   "command [-- <server args>...]",
	Short: "Print the command a host should run to start iwes",
	Long: `Resolve the iwes binary and print {path, args, env} for the host to run.

Arguments after -- are passed to the server unchanged.

Examples:
  iwes-fetch command
  iwes-fetch command --format yaml
  iwes-fetch command -- --log-level debug`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s, err := newSession(ctx, args)
		if err != nil {
			fail(err)
		}

		c, err := s.command(ctx)
		if err != nil {
			fail(err)
		}
		if err := renderCommand(cmd.OutOrStdout(), c, commandFormat); err != nil {
			printError(err)
			exitWithCode(ExitUsage)
		}
	},
}

func init() {
	commandCmd.Flags().StringVar(&commandFormat, "format", "json", "Output format: json, yaml, or shell")
}

// renderCommand writes c in the requested format.
func renderCommand(w io.Writer, c provider.Command, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		return writeJSON(w, c)
	case "yaml", "yml":
		return writeYAML(w, c)
	case "shell", "sh":
		parts := make([]string, 0, len(c.Args)+1)
		parts = append(parts, shellQuote(c.Path))
		for _, a := range c.Args {
			parts = append(parts, shellQuote(a))
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, " "))
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, yaml, or shell)", format)
	}
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
