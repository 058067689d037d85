// Package buildinfo reports the iwes-fetch build version.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version is set at release time with
// -ldflags "-X github.com/tsukumogami/iwes-fetch/internal/buildinfo.version=v1.2.3".
var version string

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info describes the running binary.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Version returns the version string for the current build.
//
// An ldflags-injected version wins. Otherwise:
//   - the module version for `go install`ed tags (e.g., "v0.1.0")
//   - "dev-<hash>[-dirty]" for development builds with VCS info
//   - "dev" if no VCS info is available
//   - "unknown" if build info cannot be read
func Version() string {
	if version != "" {
		return version
	}

	info, ok := readBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return devVersion(info)
}

// Read collects Info for the running binary.
func Read() Info {
	out := Info{
		Version:   Version(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := readBuildInfo(); ok {
		out.Commit, out.Modified = vcsInfo(info)
	}
	return out
}

// UserAgent is sent on every HTTP request.
func UserAgent() string {
	return "iwes-fetch/" + Version()
}

// devVersion constructs a development version string from build info.
func devVersion(info *debug.BuildInfo) string {
	revision, modified := vcsInfo(info)
	if revision == "" {
		return "dev"
	}

	// Truncate revision to 12 characters (standard Git short hash length)
	if len(revision) > 12 {
		revision = revision[:12]
	}

	v := fmt.Sprintf("dev-%s", revision)
	if modified {
		v += "-dirty"
	}
	return v
}

func vcsInfo(info *debug.BuildInfo) (revision string, modified bool) {
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return revision, modified
}
