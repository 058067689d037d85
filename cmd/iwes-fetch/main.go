package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/buildinfo"
	"github.com/tsukumogami/iwes-fetch/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool

	osFlag     string
	archFlag   string
	noPathFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "iwes-fetch",
	Short: "Locate, download, and cache the iwes language server",
	Long: `iwes-fetch gives an editor a runnable iwes language server.

It uses an iwes already on PATH when there is one. Otherwise it looks up the
latest iwes release, downloads the archive built for this platform, and keeps
exactly one installed version under $IWES_HOME/versions.

Results (paths, command specs) go to stdout; progress and diagnostics go to
stderr.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetDefault(log.NewCLI(os.Stderr, determineLogLevel()))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only show errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show release lookups and installs")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug output")
	rootCmd.PersistentFlags().StringVar(&osFlag, "os", "", "Override the detected operating system (mac, linux, windows)")
	rootCmd.PersistentFlags().StringVar(&archFlag, "arch", "", "Override the detected architecture (aarch64, x86_64)")
	rootCmd.PersistentFlags().BoolVar(&noPathFlag, "no-path", false, "Ignore any iwes already on PATH")

	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// determineLogLevel picks the log level from flags, then IWES_* env vars.
// Precedence: debug > verbose > quiet > default (WARN).
func determineLogLevel() slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	}

	switch {
	case isTruthy(os.Getenv("IWES_DEBUG")):
		return slog.LevelDebug
	case isTruthy(os.Getenv("IWES_VERBOSE")):
		return slog.LevelInfo
	case isTruthy(os.Getenv("IWES_QUIET")):
		return slog.LevelError
	}
	return slog.LevelWarn
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		exitWithCode(ExitUsage)
	}
}
