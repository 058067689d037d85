package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/iwes-fetch/internal/install"
	"github.com/tsukumogami/iwes-fetch/internal/release"
)

var cleanCacheOnly bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove installed iwes versions and cached release data",
	Long: `Remove every installed iwes version under $IWES_HOME/versions and the
release metadata cache. The next "iwes-fetch path" downloads again.

Examples:
  iwes-fetch clean
  iwes-fetch clean --cache-only`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := loadSettings()
		if err != nil {
			fail(err)
		}

		if err := release.ClearCache(cfg.CacheDir); err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		if cleanCacheOnly {
			printInfo("Cleared release cache")
			return
		}

		unlock, err := install.NewFileLocker(cfg.LockFile).Lock(cmd.Context())
		if err != nil {
			fail(&install.Error{Kind: install.KindLock, Path: cfg.LockFile, Err: err})
		}
		defer func() { _ = unlock() }()

		removed, err := install.Clean(cfg.VersionsDir)
		for _, name := range removed {
			printInfof("Removed %s\n", name)
		}
		if err != nil {
			printError(err)
			exitWithCode(ExitGeneral)
		}
		if len(removed) == 0 {
			printInfo("Nothing to remove")
			return
		}
		printInfo(fmt.Sprintf("Removed %d entries", len(removed)))
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanCacheOnly, "cache-only", false, "Only clear the release metadata cache")
}
