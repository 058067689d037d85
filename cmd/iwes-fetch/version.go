package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/buildinfo"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the iwes-fetch version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := buildinfo.Read()
		if versionJSON {
			printJSON(info)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "iwes-fetch %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output in JSON format")
}
