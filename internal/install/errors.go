package install

import "fmt"

// Kind identifies which install step failed.
type Kind int

const (
	// KindDirectoryCreate means the version directory could not be created or populated.
	KindDirectoryCreate Kind = iota
	// KindDownload means the asset could not be fetched.
	KindDownload
	// KindArchive means the archive was corrupt or did not contain the binary.
	KindArchive
	// KindPermission means the binary could not be made executable.
	KindPermission
	// KindLock means the install lock could not be acquired.
	KindLock
)

func (k Kind) String() string {
	switch k {
	case KindDirectoryCreate:
		return "directory create"
	case KindDownload:
		return "download"
	case KindArchive:
		return "archive"
	case KindPermission:
		return "permission"
	case KindLock:
		return "lock"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by Installer.EnsureInstalled.
type Error struct {
	Kind    Kind
	Version string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindDirectoryCreate:
		return fmt.Sprintf("create directory failure for %s: %v", e.Path, e.Err)
	case KindDownload:
		return fmt.Sprintf("file download failure for iwes %s: %v", e.Version, e.Err)
	case KindArchive:
		return fmt.Sprintf("unusable archive for iwes %s: %v", e.Version, e.Err)
	case KindPermission:
		return fmt.Sprintf("cannot make %s executable: %v", e.Path, e.Err)
	case KindLock:
		return fmt.Sprintf("cannot acquire install lock %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("install iwes %s: %v", e.Version, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable hint for the CLI.
func (e *Error) Suggestion() string {
	switch e.Kind {
	case KindDirectoryCreate, KindPermission:
		return "Check that IWES_HOME is writable, or point it somewhere else"
	case KindDownload:
		return "Check your internet connection and proxy settings, then retry"
	case KindArchive:
		return "The release asset may be damaged; retry, or report it upstream"
	case KindLock:
		return "Another iwes-fetch process may be installing; wait and retry"
	default:
		return ""
	}
}
