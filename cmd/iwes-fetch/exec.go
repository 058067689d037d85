package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/log"
	"github.com/tsukumogami/iwes-fetch/internal/provider"
)

var execCmd = &cobra.Command{
	Use:   "exec [-- <server args>...]",
	Short: "Resolve iwes and run it on this process's stdio",
	Long: `Resolve the iwes binary and run it with stdin, stdout, and stderr passed
through. Editors that expect a single server command can point at
"iwes-fetch exec".

The server's exit code becomes iwes-fetch's exit code.`,
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

		code, err := runServer(ctx, c)
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		exitWithCode(code)
	},
}

// runServer runs c on the current stdio and returns its exit code.
// Interrupts are left to the child, which shares the process group.
func runServer(ctx context.Context, c provider.Command) (int, error) {
	child := exec.CommandContext(ctx, c.Path, c.Args...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Env = os.Environ()
	for k, v := range c.Env {
		child.Env = append(child.Env, k+"="+v)
	}

	signal.Ignore(os.Interrupt)
	defer signal.Reset(os.Interrupt)

	log.Default().Debug("starting language server", "path", c.Path, "args", c.Args)
	err := child.Run()
	if err == nil {
		return ExitSuccess, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return ExitGeneral, nil
	}
	return ExitGeneral, err
}
