package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path of a runnable iwes binary",
	Long: `Print the path of a runnable iwes binary, installing the latest release
first if needed.

An iwes on PATH is used as is unless --no-path is given or use_path is false
in the config.

Examples:
  iwes-fetch path
  iwes-fetch path --no-path
  iwes-fetch path --os linux --arch aarch64`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		s, err := newSession(ctx, nil)
		if err != nil {
			fail(err)
		}

		path, err := s.resolve(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	},
}
