// Package install places a downloaded iwes release into its version
// directory and removes every other version.
//
// Layout under the versions root:
//
//	<root>/<version>/<binary>
//
// Downloads are unpacked into a staging directory under root and only the
// binary is moved into place, so a version directory never holds a partial
// install.
package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsukumogami/iwes-fetch/internal/archive"
	"github.com/tsukumogami/iwes-fetch/internal/download"
	"github.com/tsukumogami/iwes-fetch/internal/log"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/probe"
	"github.com/tsukumogami/iwes-fetch/internal/release"
)

const stagingPrefix = ".staging-"

// Locker serialises installs across processes.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// Installer owns the versions root.
type Installer struct {
	root       string
	downloader download.Downloader
	locker     Locker
	logger     log.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithLocker takes l for the duration of each install.
func WithLocker(l Locker) Option {
	return func(i *Installer) { i.locker = l }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New creates an Installer rooted at root.
func New(root string, d download.Downloader, opts ...Option) *Installer {
	i := &Installer{root: root, downloader: d}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = log.OrDefault(i.logger)
	return i
}

// BinaryPath is where version's binary lives once installed.
func (i *Installer) BinaryPath(version string, desc platform.Descriptor) string {
	return filepath.Join(i.root, version, desc.BinaryFileName)
}

// EnsureInstalled makes rel's binary available and returns its path.
//
// If the binary is already present the download is skipped. Otherwise
// onDownload (if non-nil) is called, the asset is fetched and unpacked into a
// staging directory, and the binary is made executable and moved into place.
// Every other entry under the root is then removed; removal failures are
// logged and ignored.
func (i *Installer) EnsureInstalled(ctx context.Context, rel *release.Release, asset release.Asset, desc platform.Descriptor, onDownload func()) (string, error) {
	version := rel.Version
	if err := validateVersion(version); err != nil {
		return "", &Error{Kind: KindDirectoryCreate, Version: version, Path: i.root, Err: err}
	}

	if i.locker != nil {
		unlock, err := i.locker.Lock(ctx)
		if err != nil {
			var path string
			if fl, ok := i.locker.(*FileLocker); ok {
				path = fl.Path()
			}
			return "", &Error{Kind: KindLock, Version: version, Path: path, Err: err}
		}
		defer func() {
			if err := unlock(); err != nil {
				i.logger.Warn("failed to release install lock", "error", err)
			}
		}()
	}

	versionDir := filepath.Join(i.root, version)
	_, statErr := os.Stat(versionDir)
	created := errors.Is(statErr, fs.ErrNotExist)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return "", &Error{Kind: KindDirectoryCreate, Version: version, Path: versionDir, Err: err}
	}

	binPath := filepath.Join(versionDir, desc.BinaryFileName)
	if probe.IsRegularFile(binPath) {
		i.logger.Debug("binary already installed", "version", version, "path", binPath)
		if err := makeExecutable(binPath); err != nil {
			return "", &Error{Kind: KindPermission, Version: version, Path: binPath, Err: err}
		}
	} else {
		if onDownload != nil {
			onDownload()
		}
		if err := i.installFresh(ctx, version, asset, desc, binPath); err != nil {
			if created {
				// Only removes the directory if nothing landed in it.
				_ = os.Remove(versionDir)
			}
			return "", err
		}
		i.logger.Info("installed iwes", "version", version, "path", binPath)
	}

	i.Sweep(version)
	return binPath, nil
}

func (i *Installer) installFresh(ctx context.Context, version string, asset release.Asset, desc platform.Descriptor, binPath string) error {
	staging, err := os.MkdirTemp(i.root, stagingPrefix+version+"-")
	if err != nil {
		return &Error{Kind: KindDirectoryCreate, Version: version, Path: i.root, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			i.logger.Warn("failed to remove staging directory", "dir", staging, "error", err)
		}
	}()

	i.logger.Info("downloading iwes", "version", version, "asset", asset.Name)
	if err := i.downloader.Download(ctx, asset.DownloadURL, staging, desc.ArchiveKind); err != nil {
		kind := KindDownload
		var dlErr *download.Error
		if errors.As(err, &dlErr) && dlErr.Kind == download.KindArchive {
			kind = KindArchive
		}
		return &Error{Kind: kind, Version: version, Path: staging, Err: err}
	}

	found, ok := archive.FindFile(staging, desc.BinaryFileName)
	if !ok {
		return &Error{
			Kind:    KindArchive,
			Version: version,
			Path:    staging,
			Err:     fmt.Errorf("archive %s does not contain %s", asset.Name, desc.BinaryFileName),
		}
	}

	if err := makeExecutable(found); err != nil {
		return &Error{Kind: KindPermission, Version: version, Path: found, Err: err}
	}

	if err := os.Rename(found, binPath); err != nil {
		return &Error{Kind: KindDirectoryCreate, Version: version, Path: filepath.Dir(binPath), Err: err}
	}
	return nil
}

// Sweep removes every entry under the root except keep. Failures are logged
// and never returned.
func (i *Installer) Sweep(keep string) {
	entries, err := os.ReadDir(i.root)
	if err != nil {
		i.logger.Warn("cannot read versions directory for cleanup", "dir", i.root, "error", err)
		return
	}
	for _, e := range entries {
		if e.Name() == keep {
			continue
		}
		path := filepath.Join(i.root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			i.logger.Warn("failed to remove stale version", "path", path, "error", err)
			continue
		}
		i.logger.Debug("removed stale version", "path", path)
	}
}

// Installed lists the versions under root that hold binaryName as a regular
// file, sorted. A missing root has no versions.
func Installed(root, binaryName string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read versions directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), stagingPrefix) {
			continue
		}
		if probe.IsRegularFile(filepath.Join(root, e.Name(), binaryName)) {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Clean removes everything under root and returns what was removed.
func Clean(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read versions directory: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}

// validateVersion rejects tags that are not a single path element.
func validateVersion(version string) error {
	switch {
	case version == "", version == ".", version == "..":
		return fmt.Errorf("invalid version %q", version)
	case strings.ContainsAny(version, `/\`):
		return fmt.Errorf("invalid version %q: contains a path separator", version)
	case strings.HasPrefix(version, stagingPrefix):
		return fmt.Errorf("invalid version %q: reserved prefix", version)
	}
	return nil
}

// chmod is replaced in tests to simulate a filesystem that refuses mode changes.
var chmod = os.Chmod

func makeExecutable(path string) error {
	return chmod(path, 0755)
}
