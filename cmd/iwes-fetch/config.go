package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage iwes-fetch configuration",
	Long: `Manage iwes-fetch configuration settings.

Configuration is stored in $IWES_HOME/config.toml.

Available settings:
  repo         GitHub repository iwes releases are published in (owner/name)
  channel      Release channel (stable/prerelease)
  use_path     Use an iwes already on PATH instead of downloading (true/false)
  https_proxy  Proxy URL for GitHub API and downloads
  no_proxy     Comma-separated hosts that bypass the proxy

  secrets.github_token  GitHub token for release lookups. GITHUB_TOKEN and
                        GH_TOKEN take precedence when set.

Examples:
  iwes-fetch config get channel
  iwes-fetch config set channel prerelease
  iwes-fetch config list`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		value, ok := cfg.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys(os.Stderr)
			exitWithCode(ExitUsage)
		}

		fmt.Fprintln(cmd.OutOrStdout(), value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Examples:
  iwes-fetch config set repo iwe-org/iwe
  iwes-fetch config set use_path false`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		if err := cfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys(os.Stderr)
			exitWithCode(ExitUsage)
		}

		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		value, _ = cfg.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, displayValue(key, value))
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitGeneral)
		}
		listConfig(cmd.OutOrStdout(), cfg)
	},
}

func listConfig(w io.Writer, cfg *userconfig.Config) {
	for _, k := range userconfig.SortedKeys() {
		v, _ := cfg.Get(k)
		fmt.Fprintf(w, "%s = %s\n", k, displayValue(k, v))
	}
}

// displayValue masks secrets. `config get` still prints them in full.
func displayValue(key, value string) string {
	if userconfig.IsSecretKey(key) && value != "" {
		return "(set)"
	}
	return value
}

func printAvailableKeys(w io.Writer) {
	keys := userconfig.AvailableKeys()
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(w, "  %s - %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
