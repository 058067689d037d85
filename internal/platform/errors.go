package platform

import "fmt"

// UnsupportedPlatformError reports an (OS, Arch) pair with no published artifact.
type UnsupportedPlatformError struct {
	OS   OS
	Arch Arch
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s on %s (no iwes release artifact is published for it)",
		e.OS.Title(), e.Arch)
}

// Suggestion points users at the alternatives that do exist.
func (e *UnsupportedPlatformError) Suggestion() string {
	return "Install iwes manually and make sure it is on PATH, or use one of the supported platforms"
}
