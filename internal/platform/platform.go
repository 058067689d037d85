// Package platform maps an operating system and CPU architecture to the
// iwes release artifact built for it.
//
// The mapping is a closed table: every supported (OS, Arch) pair has exactly
// one Descriptor and anything else is an UnsupportedPlatformError. Adding a
// platform means adding one row to artifactTable.
package platform

import (
	"fmt"
	"strings"

	"github.com/tsukumogami/iwes-fetch/internal/archive"
)

// BinaryStem is the language server executable name without any
// platform-specific extension. It is what the search-path probe looks for.
const BinaryStem = "iwes"

// OS is an operating system family as the release matrix names it.
type OS string

const (
	Mac     OS = "mac"
	Linux   OS = "linux"
	Windows OS = "windows"
)

// Title returns the display name used in messages ("Mac", "Linux", "Windows").
func (o OS) Title() string {
	switch o {
	case Mac:
		return "Mac"
	case Linux:
		return "Linux"
	case Windows:
		return "Windows"
	default:
		return string(o)
	}
}

// Arch is a CPU architecture as the release matrix names it.
type Arch string

const (
	Aarch64 Arch = "aarch64"
	X8664   Arch = "x86_64"
	X86     Arch = "x86"

	// anyArch matches every architecture in artifactTable.
	anyArch Arch = "*"
)

// Descriptor describes the artifact published for one platform.
type Descriptor struct {
	// TargetTriple is the canonical OS/arch/ABI string used in asset names
	// (e.g., "x86_64-unknown-linux-gnu").
	TargetTriple string `json:"target_triple" yaml:"target_triple"`
	// ArchiveExtension is the asset file extension without a leading dot.
	ArchiveExtension string `json:"archive_extension" yaml:"archive_extension"`
	// BinaryFileName is the executable's file name inside the archive.
	BinaryFileName string `json:"binary_file_name" yaml:"binary_file_name"`
	// ArchiveKind selects the unpacker.
	ArchiveKind archive.Kind `json:"-" yaml:"-"`
}

type artifactRow struct {
	os   OS
	arch Arch
	desc Descriptor
}

var artifactTable = []artifactRow{
	{Mac, anyArch, Descriptor{"universal-apple-darwin", "tar.gz", "iwes", archive.GzipTar}},
	{Linux, Aarch64, Descriptor{"aarch64-unknown-linux-gnu", "tar.gz", "iwes", archive.GzipTar}},
	{Linux, X8664, Descriptor{"x86_64-unknown-linux-gnu", "tar.gz", "iwes", archive.GzipTar}},
	{Windows, X8664, Descriptor{"x86_64-pc-windows-msvc", "zip", "iwes.exe", archive.Zip}},
}

// Resolve returns the artifact descriptor for the given platform.
// Unsupported pairs return *UnsupportedPlatformError; there is no default.
func Resolve(os OS, arch Arch) (Descriptor, error) {
	for _, row := range artifactTable {
		if row.os != os {
			continue
		}
		if row.arch == anyArch || row.arch == arch {
			return row.desc, nil
		}
	}
	return Descriptor{}, &UnsupportedPlatformError{OS: os, Arch: arch}
}

// Supported lists every (OS, Arch) pair with a published artifact.
// The Mac row is reported once per known architecture.
func Supported() []string {
	var out []string
	for _, row := range artifactTable {
		if row.arch == anyArch {
			for _, a := range []Arch{Aarch64, X8664} {
				out = append(out, fmt.Sprintf("%s/%s", row.os, a))
			}
			continue
		}
		out = append(out, fmt.Sprintf("%s/%s", row.os, row.arch))
	}
	return out
}

// ParseOS accepts the names users and GOOS use for an operating system.
func ParseOS(s string) (OS, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "mac", "macos", "darwin", "osx":
		return Mac, nil
	case "linux":
		return Linux, nil
	case "windows", "win":
		return Windows, nil
	case "":
		return "", fmt.Errorf("empty operating system name")
	default:
		return OS(v), nil
	}
}

// ParseArch accepts the names users, GOARCH and uname use for an architecture.
func ParseArch(s string) (Arch, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "aarch64", "arm64", "armv8", "armv8l":
		return Aarch64, nil
	case "x86_64", "amd64", "x64":
		return X8664, nil
	case "x86", "i386", "i486", "i586", "i686", "386":
		return X86, nil
	case "":
		return "", fmt.Errorf("empty architecture name")
	default:
		return Arch(v), nil
	}
}
