package main

import (
	"os"

	"github.com/tsukumogami/iwes-fetch/internal/errmsg"
)

// Exit codes for different error types.
// These let a host tell failure modes apart without parsing stderr.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitUnsupportedPlatform indicates no artifact exists for this platform
	ExitUnsupportedPlatform = 3

	// ExitReleaseLookup indicates the latest release could not be determined
	ExitReleaseLookup = 4

	// ExitAssetNotFound indicates the release lacks this platform's asset
	ExitAssetNotFound = 5

	// ExitNetwork indicates the asset download failed
	ExitNetwork = 6

	// ExitInstallFailed indicates the binary could not be installed
	ExitInstallFailed = 7
)

// exitCodeFor maps an error to its exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch errmsg.Classify(err) {
	case errmsg.KindUnsupportedPlatform:
		return ExitUnsupportedPlatform
	case errmsg.KindReleaseLookup:
		return ExitReleaseLookup
	case errmsg.KindAssetNotFound:
		return ExitAssetNotFound
	case errmsg.KindDownload:
		return ExitNetwork
	case errmsg.KindDirectoryCreate, errmsg.KindArchive, errmsg.KindPermission, errmsg.KindLock:
		return ExitInstallFailed
	default:
		return ExitGeneral
	}
}

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
