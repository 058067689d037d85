package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// Host is the platform this process is running on.
type Host struct {
	OS   OS
	Arch Arch
	// Libc is "glibc" or "musl" on Linux and empty elsewhere.
	Libc string
}

// Detector reports the current host platform.
type Detector interface {
	Detect(ctx context.Context) (Host, error)
}

// kernelArchFunc is replaced in tests.
var kernelArchFunc = host.KernelArch

// SystemDetector detects the platform from the running system.
type SystemDetector struct{}

// Detect combines runtime.GOOS with the kernel's machine architecture.
//
// The kernel is asked rather than runtime.GOARCH so that an amd64 build
// running under emulation on an arm64 machine still picks the native
// artifact. If the kernel cannot be queried, GOARCH is used.
func (SystemDetector) Detect(ctx context.Context) (Host, error) {
	if err := ctx.Err(); err != nil {
		return Host{}, fmt.Errorf("platform detection cancelled: %w", err)
	}

	os, err := ParseOS(runtime.GOOS)
	if err != nil {
		return Host{}, err
	}

	arch := archFromKernel()
	if arch == "" {
		arch, err = ParseArch(runtime.GOARCH)
		if err != nil {
			return Host{}, err
		}
	}

	h := Host{OS: os, Arch: arch}
	if os == Linux {
		h.Libc = DetectLibc()
	}
	return h, nil
}

func archFromKernel() Arch {
	raw, err := kernelArchFunc()
	if err != nil || raw == "" {
		return ""
	}
	arch, err := ParseArch(raw)
	if err != nil {
		return ""
	}
	return arch
}

// FixedDetector always reports the same host. It backs the --os/--arch
// overrides and tests.
type FixedDetector struct {
	Host Host
}

// Detect returns d.Host.
func (d FixedDetector) Detect(context.Context) (Host, error) {
	return d.Host, nil
}

// Current detects the host with d and resolves its artifact descriptor.
func Current(ctx context.Context, d Detector) (Host, Descriptor, error) {
	h, err := d.Detect(ctx)
	if err != nil {
		return Host{}, Descriptor{}, err
	}
	desc, err := Resolve(h.OS, h.Arch)
	if err != nil {
		return h, Descriptor{}, err
	}
	return h, desc, nil
}
