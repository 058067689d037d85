package archive

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsukumogami/iwes-fetch/internal/testutil"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "tar.gz", GzipTar.String())
	require.Equal(t, "zip", Zip.String())
	require.Equal(t, "Kind(9)", Kind(9).String())
}

func TestExtract_TarGz(t *testing.T) {
	dir := t.TempDir()
	data := testutil.TarGz(t,
		testutil.File{Name: "iwes", Content: "#!/bin/sh\n", Mode: 0755},
		testutil.File{Name: "docs/README.md", Content: "readme"},
	)
	archivePath := testutil.WriteFile(t, t.TempDir(), "release.tar.gz", data)

	require.NoError(t, Extract(archivePath, dir, GzipTar))

	got, err := os.ReadFile(filepath.Join(dir, "iwes"))
	require.NoError(t, err)
	require.Equal(t, "#!/bin/sh\n", string(got))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "iwes"))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0755), info.Mode().Perm())
	}

	_, err = os.Stat(filepath.Join(dir, "docs", "README.md"))
	require.NoError(t, err)
}

func TestExtract_Zip(t *testing.T) {
	dir := t.TempDir()
	data := testutil.Zip(t, testutil.File{Name: "iwes.exe", Content: "MZ"})
	archivePath := testutil.WriteFile(t, t.TempDir(), "release.zip", data)

	require.NoError(t, Extract(archivePath, dir, Zip))

	got, err := os.ReadFile(filepath.Join(dir, "iwes.exe"))
	require.NoError(t, err)
	require.Equal(t, "MZ", string(got))
}

func TestExtract_CorruptArchive(t *testing.T) {
	archivePath := testutil.WriteFile(t, t.TempDir(), "release.tar.gz", []byte("not gzip"))
	err := Extract(archivePath, t.TempDir(), GzipTar)
	require.Error(t, err)
	require.Contains(t, err.Error(), "gzip")

	zipPath := testutil.WriteFile(t, t.TempDir(), "release.zip", []byte("not zip"))
	require.Error(t, Extract(zipPath, t.TempDir(), Zip))
}

func TestExtract_UnsupportedKind(t *testing.T) {
	archivePath := testutil.WriteFile(t, t.TempDir(), "release.bin", []byte("x"))
	err := Extract(archivePath, t.TempDir(), Kind(42))
	require.True(t, errors.Is(err, ErrUnsupportedKind))
}

func TestExtract_RejectsPathTraversal(t *testing.T) {
	t.Run("tar", func(t *testing.T) {
		data := testutil.TarGz(t, testutil.File{Name: "../escape", Content: "x"})
		parent := t.TempDir()
		dest := filepath.Join(parent, "dest")
		require.NoError(t, os.Mkdir(dest, 0755))
		archivePath := testutil.WriteFile(t, t.TempDir(), "evil.tar.gz", data)

		require.Error(t, Extract(archivePath, dest, GzipTar))
		require.NoFileExists(t, filepath.Join(parent, "escape"))
	})

	t.Run("zip", func(t *testing.T) {
		data := testutil.Zip(t, testutil.File{Name: "../escape", Content: "x"})
		parent := t.TempDir()
		dest := filepath.Join(parent, "dest")
		require.NoError(t, os.Mkdir(dest, 0755))
		archivePath := testutil.WriteFile(t, t.TempDir(), "evil.zip", data)

		require.Error(t, Extract(archivePath, dest, Zip))
		require.NoFileExists(t, filepath.Join(parent, "escape"))
	})
}

func TestExtract_RejectsEscapingSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	tests := []struct {
		name    string
		files   []testutil.File
		wantErr string
	}{
		{
			name:    "absolute target",
			files:   []testutil.File{{Name: "link", Link: "/etc/passwd"}},
			wantErr: "absolute symlink",
		},
		{
			name:    "relative target above destination",
			files:   []testutil.File{{Name: "sub/link", Link: "../../outside"}},
			wantErr: "escapes destination",
		},
		{
			name: "chained links",
			files: []testutil.File{
				{Name: "sub/"},
				{Name: "sub/l", Link: ".."},
				{Name: "m", Link: "sub/l/.."},
				{Name: "m/evil", Content: "x"},
			},
			wantErr: "climbs out of a subdirectory",
		},
		{
			name: "link through an existing link",
			files: []testutil.File{
				{Name: "up", Link: "."},
				{Name: "sub/deep/l", Link: "../../up/.."},
			},
			wantErr: "climbs out of a subdirectory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "staging")
			require.NoError(t, os.Mkdir(dest, 0755))
			archivePath := testutil.WriteFile(t, t.TempDir(), "link.tar.gz", testutil.TarGz(t, tt.files...))

			err := Extract(archivePath, dest, GzipTar)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
			require.NoFileExists(t, filepath.Join(parent, "evil"))
			require.Equal(t, []string{"staging"}, testutil.ListDir(t, parent))
		})
	}
}

func TestExtract_DoesNotWriteThroughSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	t.Run("dangling link replaced by a file", func(t *testing.T) {
		parent := t.TempDir()
		dest := filepath.Join(parent, "staging")
		require.NoError(t, os.Mkdir(dest, 0755))
		data := testutil.TarGz(t,
			testutil.File{Name: "iwes", Link: "missing"},
			testutil.File{Name: "iwes", Content: "bin", Mode: 0755},
		)
		archivePath := testutil.WriteFile(t, t.TempDir(), "a.tar.gz", data)

		require.NoError(t, Extract(archivePath, dest, GzipTar))
		info, err := os.Lstat(filepath.Join(dest, "iwes"))
		require.NoError(t, err)
		require.True(t, info.Mode().IsRegular())
		require.NoFileExists(t, filepath.Join(dest, "missing"))
	})

	t.Run("directory under a dangling link", func(t *testing.T) {
		dest := t.TempDir()
		data := testutil.TarGz(t,
			testutil.File{Name: "d", Link: "not-yet"},
			testutil.File{Name: "d/iwes", Content: "bin"},
		)
		archivePath := testutil.WriteFile(t, t.TempDir(), "a.tar.gz", data)

		err := Extract(archivePath, dest, GzipTar)
		require.Error(t, err)
		require.Contains(t, err.Error(), "dangling symlink")
	})

	t.Run("links that stay inside are kept", func(t *testing.T) {
		dest := t.TempDir()
		data := testutil.TarGz(t,
			testutil.File{Name: "bin/iwes", Content: "bin", Mode: 0755},
			testutil.File{Name: "current", Link: "bin"},
			testutil.File{Name: "bin/self", Link: "../bin"},
		)
		archivePath := testutil.WriteFile(t, t.TempDir(), "a.tar.gz", data)

		require.NoError(t, Extract(archivePath, dest, GzipTar))
		got, err := os.ReadFile(filepath.Join(dest, "current", "iwes"))
		require.NoError(t, err)
		require.Equal(t, "bin", string(got))
	})
}

func TestFindFile(t *testing.T) {
	t.Run("at root", func(t *testing.T) {
		dir := t.TempDir()
		want := testutil.WriteFile(t, dir, "iwes", []byte("bin"))

		got, ok := FindFile(dir, "iwes")
		require.True(t, ok)
		require.Equal(t, want, got)
	})

	t.Run("one level deep", func(t *testing.T) {
		dir := t.TempDir()
		want := testutil.WriteFile(t, dir, filepath.Join("iwe-2.3.1", "iwes"), []byte("bin"))

		got, ok := FindFile(dir, "iwes")
		require.True(t, ok)
		require.Equal(t, want, got)
	})

	t.Run("missing", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, dir, filepath.Join("a", "b", "iwes"), []byte("too deep"))

		_, ok := FindFile(dir, "iwes")
		require.False(t, ok)
	})

	t.Run("directory with the binary name", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "iwes"), 0755))

		_, ok := FindFile(dir, "iwes")
		require.False(t, ok)
	})
}
