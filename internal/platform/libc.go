package platform

import (
	"bytes"
	"debug/elf"
	"path/filepath"
	"strings"
)

// The published Linux artifacts are linked against glibc. Detect reports the
// host libc so callers can warn before installing a binary that cannot start.
const (
	LibcGlibc = "glibc"
	LibcMusl  = "musl"
)

// DetectLibc returns LibcMusl or LibcGlibc for the running system.
//
// The ELF interpreter of /bin/sh decides; if that cannot be read, the musl
// dynamic linker is looked for under /lib.
func DetectLibc() string {
	if libc := detectLibcFromBinary("/bin/sh"); libc != "" {
		return libc
	}
	return DetectLibcWithRoot("")
}

// detectLibcFromBinary returns "" when path is missing, not ELF, or static.
func detectLibcFromBinary(path string) string {
	f, err := elf.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_INTERP {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return ""
		}
		if strings.Contains(string(bytes.TrimRight(data, "\x00")), "musl") {
			return LibcMusl
		}
		return LibcGlibc
	}
	return ""
}

// DetectLibcWithRoot checks root/lib for ld-musl-*.so.1. An empty root means "/".
func DetectLibcWithRoot(root string) string {
	matches, _ := filepath.Glob(filepath.Join(root, "lib", "ld-musl-*.so.1"))
	if len(matches) > 0 {
		return LibcMusl
	}
	return LibcGlibc
}
