package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectLibcWithRoot(t *testing.T) {
	tests := []struct {
		name   string
		linker string
		want   string
	}{
		{"musl x86_64", "ld-musl-x86_64.so.1", LibcMusl},
		{"musl aarch64", "ld-musl-aarch64.so.1", LibcMusl},
		{"glibc", "ld-linux-x86-64.so.2", LibcGlibc},
		{"empty lib dir", "", LibcGlibc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			libDir := filepath.Join(root, "lib")
			if err := os.MkdirAll(libDir, 0755); err != nil {
				t.Fatal(err)
			}
			if tt.linker != "" {
				if err := os.WriteFile(filepath.Join(libDir, tt.linker), nil, 0644); err != nil {
					t.Fatal(err)
				}
			}

			if got := DetectLibcWithRoot(root); got != tt.want {
				t.Errorf("DetectLibcWithRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectLibc(t *testing.T) {
	libc := DetectLibc()
	if libc != LibcGlibc && libc != LibcMusl {
		t.Errorf("DetectLibc() = %q, want %q or %q", libc, LibcGlibc, LibcMusl)
	}
}

func TestDetectLibcFromBinary_NonExistent(t *testing.T) {
	if libc := detectLibcFromBinary("/nonexistent/binary"); libc != "" {
		t.Errorf("detectLibcFromBinary(nonexistent) = %q, want empty", libc)
	}
}

func TestDetectLibcFromBinary_NotELF(t *testing.T) {
	if libc := detectLibcFromBinary("libc_test.go"); libc != "" {
		t.Errorf("detectLibcFromBinary(non-ELF) = %q, want empty", libc)
	}
}
