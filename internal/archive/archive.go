// Package archive unpacks the release archives published for iwes.
//
// Only two formats are handled: gzip-compressed tarballs (Linux, macOS) and
// zip files (Windows). Both extractors refuse entries that would land outside
// the destination directory.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// Kind identifies the container format of a downloaded artifact.
type Kind int

const (
	// GzipTar is a tar stream compressed with gzip (.tar.gz).
	GzipTar Kind = iota + 1
	// Zip is a zip archive (.zip).
	Zip
)

// String returns the conventional file extension for the kind.
func (k Kind) String() string {
	switch k {
	case GzipTar:
		return "tar.gz"
	case Zip:
		return "zip"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrUnsupportedKind is returned by Extract for a Kind it does not know.
var ErrUnsupportedKind = errors.New("unsupported archive kind")

// Extract unpacks the archive at archivePath into destDir.
// destDir must already exist.
func Extract(archivePath, destDir string, kind Kind) error {
	root, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return fmt.Errorf("failed to resolve destination: %w", err)
	}

	switch kind {
	case GzipTar:
		return extractTarGz(archivePath, root)
	case Zip:
		return extractZip(archivePath, root)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// isPathWithinDirectory reports whether targetPath is basePath or below it.
func isPathWithinDirectory(targetPath, basePath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}

	// The separator suffix stops /tmp/foo from matching /tmp/foobar.
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// resolveOnDisk follows every symlink in path that already exists. The
// missing tail, if any, is appended unchanged. A dangling link anywhere in
// path is an error since writing through it would land wherever it points.
func resolveOnDisk(path string) (string, error) {
	p, tail := path, ""
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, tail), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if info, lerr := os.Lstat(p); lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf("dangling symlink in path: %s", p)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path, nil
		}
		tail = filepath.Join(filepath.Base(p), tail)
		p = parent
	}
}

// checkOnDisk rejects target when the links already extracted would carry it
// outside root. root must itself be free of symlinks.
func checkOnDisk(target, root string) error {
	resolved, err := resolveOnDisk(target)
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", target, err)
	}
	if !isPathWithinDirectory(resolved, root) {
		return fmt.Errorf("archive entry escapes destination directory through a symlink: %s", target)
	}
	return nil
}

// validateSymlinkTarget rejects absolute link targets, targets that climb
// back out of a named component (a/..), and targets that resolve outside
// root once the links already on disk are followed.
func validateSymlinkTarget(linkTarget, linkLocation, root string) error {
	if filepath.IsAbs(linkTarget) || strings.HasPrefix(filepath.ToSlash(linkTarget), "/") {
		return fmt.Errorf("absolute symlink targets are not allowed: %s -> %s", linkLocation, linkTarget)
	}

	named := false
	for _, part := range strings.Split(filepath.ToSlash(linkTarget), "/") {
		switch part {
		case "", ".":
		case "..":
			if named {
				return fmt.Errorf("symlink target climbs out of a subdirectory: %s -> %s", linkLocation, linkTarget)
			}
		default:
			named = true
		}
	}

	parent, err := resolveOnDisk(filepath.Dir(linkLocation))
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", linkLocation, err)
	}
	resolved := filepath.Join(parent, filepath.FromSlash(linkTarget))
	if !isPathWithinDirectory(resolved, root) {
		return fmt.Errorf("symlink target escapes destination directory: %s -> %s", linkLocation, linkTarget)
	}
	if err := checkOnDisk(resolved, root); err != nil {
		return fmt.Errorf("symlink target escapes destination directory: %s -> %s", linkLocation, linkTarget)
	}
	return nil
}

// entryTarget maps an archive entry name to its on-disk location.
func entryTarget(name, root string) (string, error) {
	clean := strings.TrimPrefix(filepath.ToSlash(name), "./")
	target := filepath.Join(root, filepath.FromSlash(clean))
	if !isPathWithinDirectory(target, root) {
		return "", fmt.Errorf("archive entry escapes destination directory: %s", name)
	}
	return target, nil
}

func extractTarGz(archivePath, root string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	return extractTarReader(tar.NewReader(gzr), root)
}

func extractTarReader(tr *tar.Reader, root string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		target, err := entryTarget(header.Name, root)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := makeDir(target, root); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := writeFile(target, root, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := makeDir(filepath.Dir(target), root); err != nil {
				return err
			}
			if err := validateSymlinkTarget(header.Linkname, target, root); err != nil {
				return err
			}
			if err := atomicSymlink(header.Linkname, target); err != nil {
				return fmt.Errorf("failed to create symlink: %w", err)
			}
		}
	}
}

// atomicSymlink creates linkPath via a temporary link and a rename.
func atomicSymlink(target, linkPath string) error {
	tmpLink := linkPath + ".tmp"
	_ = os.Remove(tmpLink)

	if err := os.Symlink(target, tmpLink); err != nil {
		return err
	}
	if err := os.Rename(tmpLink, linkPath); err != nil {
		_ = os.Remove(tmpLink)
		return err
	}
	return nil
}

func extractZip(archivePath, root string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := entryTarget(f.Name, root)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := makeDir(target, root); err != nil {
				return err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open file in zip: %w", err)
		}
		err = writeFile(target, root, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// makeDir creates dir after checking that no extracted link redirects it.
func makeDir(dir, root string) error {
	if err := checkOnDisk(dir, root); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func writeFile(target, root string, src io.Reader, mode os.FileMode) error {
	if err := makeDir(filepath.Dir(target), root); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0644
	}

	// A link left at target by an earlier entry is replaced, never written through.
	if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("failed to replace symlink: %w", err)
		}
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

// FindFile looks for a regular file called name at the root of dir or one
// directory below it, which covers archives that wrap their contents in a
// top-level folder. It returns the path and true when found.
func FindFile(dir, name string) (string, bool) {
	direct := filepath.Join(dir, name)
	if isRegular(direct) {
		return direct, true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		nested := filepath.Join(dir, e.Name(), name)
		if isRegular(nested) {
			return nested, true
		}
	}
	return "", false
}

func isRegular(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}
