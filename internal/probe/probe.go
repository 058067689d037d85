// Package probe decides whether a usable iwes binary is already available
// without touching the network.
package probe

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// PathLookup finds an executable by name on the caller's search path.
type PathLookup interface {
	Which(name string) (string, bool)
}

// Source says where a probed path came from.
type Source string

const (
	SourceNone       Source = ""
	SourceCache      Source = "cache"
	SourceSearchPath Source = "search-path"
)

// Result is the outcome of Probe.
type Result struct {
	Path   string
	Source Source
}

// Found reports whether a binary was located.
func (r Result) Found() bool {
	return r.Source != SourceNone
}

// Probe checks, in order, the previously resolved path and the search path.
//
// The cached path is only trusted if it still names a regular file. A nil
// lookup skips the search path.
func Probe(cached string, lookup PathLookup, stem string) Result {
	if cached != "" && IsRegularFile(cached) {
		return Result{Path: cached, Source: SourceCache}
	}
	if lookup != nil {
		if p, ok := lookup.Which(stem); ok && p != "" {
			return Result{Path: p, Source: SourceSearchPath}
		}
	}
	return Result{}
}

// IsRegularFile reports whether path exists and is a regular file
// (symlinks are followed).
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ExecLookup searches a PATH-style list of directories. An empty Path uses
// the process PATH via exec.LookPath.
type ExecLookup struct {
	Path string
}

// Which returns the first executable named name.
func (l ExecLookup) Which(name string) (string, bool) {
	if l.Path == "" {
		p, err := exec.LookPath(name)
		if err != nil {
			return "", false
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return p, true
		}
		return abs, true
	}

	for _, dir := range filepath.SplitList(l.Path) {
		if dir == "" {
			continue
		}
		for _, candidate := range candidates(name) {
			p := filepath.Join(dir, candidate)
			if isExecutable(p) {
				return p, true
			}
		}
	}
	return "", false
}

// NoLookup never finds anything. It disables the search-path probe.
type NoLookup struct{}

// Which always reports not found.
func (NoLookup) Which(string) (string, bool) { return "", false }

func candidates(name string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(name) != "" {
		return []string{name}
	}
	exts := strings.Split(os.Getenv("PATHEXT"), string(os.PathListSeparator))
	if len(exts) == 1 && exts[0] == "" {
		exts = []string{".com", ".exe", ".bat", ".cmd"}
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext != "" {
			out = append(out, name+strings.ToLower(ext))
		}
	}
	return out
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
