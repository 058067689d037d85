package errmsg

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/tsukumogami/iwes-fetch/internal/install"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/release"
)

func assertContainsAll(t *testing.T, result string, checks ...string) {
	t.Helper()
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_NilError(t *testing.T) {
	result := Format(nil, nil)
	if result != "" {
		t.Errorf("expected empty string for nil error, got %q", result)
	}
}

func TestFormat_GenericError(t *testing.T) {
	err := errors.New("something went wrong")
	result := Format(err, nil)
	if result != "something went wrong" {
		t.Errorf("expected original error message, got %q", result)
	}
}

func TestFormat_UnsupportedPlatform(t *testing.T) {
	err := &platform.UnsupportedPlatformError{OS: platform.Windows, Arch: platform.Aarch64}
	result := Format(err, nil)

	assertContainsAll(t, result,
		"Windows",
		"aarch64",
		"Supported platforms:",
		"windows/x86_64",
		"linux/aarch64",
		"Suggestions:",
		"--os/--arch",
	)
}

func TestFormat_AssetNotFound(t *testing.T) {
	err := &release.AssetNotFoundError{
		Expected:  "2.3.1-x86_64-unknown-linux-gnu.tar.gz",
		Version:   "2.3.1",
		Available: []string{"2.3.1-x86_64-unknown-linux-musl.tar.gz"},
	}
	result := Format(fmt.Errorf("resolve: %w", err), &ErrorContext{Repo: "iwe-org/iwe"})

	assertContainsAll(t, result,
		"2.3.1-x86_64-unknown-linux-gnu.tar.gz",
		"Possible causes:",
		"Available assets:",
		"2.3.1-x86_64-unknown-linux-musl.tar.gz",
		"github.com/iwe-org/iwe/issues",
	)
}

func TestFormat_LookupError_Network(t *testing.T) {
	err := &release.LookupError{
		Type:    release.ErrTypeConnection,
		Repo:    "iwe-org/iwe",
		Message: "connection failed",
	}
	result := Format(err, nil)

	assertContainsAll(t, result,
		"connection failed",
		"Possible causes:",
		"Network connectivity issue",
		"Suggestions:",
		"https_proxy",
	)
}

func TestFormat_LookupError_NotFound(t *testing.T) {
	err := &release.LookupError{Type: release.ErrTypeNotFound, Repo: "iwe-org/nope", Message: "not found"}
	result := Format(err, &ErrorContext{Repo: "iwe-org/nope"})

	assertContainsAll(t, result,
		"configured repository name is wrong",
		"github.com/iwe-org/nope exists",
		"iwes-fetch config get repo",
	)
}

func TestFormat_LookupError_RateLimit(t *testing.T) {
	err := &release.LookupError{
		Type:      release.ErrTypeRateLimit,
		Repo:      "iwe-org/iwe",
		Message:   "rate limited",
		ResetTime: time.Now().Add(10 * time.Minute),
	}
	result := Format(err, nil)

	assertContainsAll(t, result,
		"Unauthenticated requests have lower limits",
		"  - Try again in:",
		"  - Or set GITHUB_TOKEN",
	)
}

func TestFormat_InstallErrors(t *testing.T) {
	tests := []struct {
		kind   install.Kind
		checks []string
	}{
		{install.KindDirectoryCreate, []string{"create directory failure", "$IWES_HOME", "iwes-fetch clean"}},
		{install.KindDownload, []string{"file download failure", "asset was removed"}},
		{install.KindArchive, []string{"unusable archive", "truncated or corrupted", "iwes-fetch clean"}},
		{install.KindPermission, []string{"executable", "Insufficient permissions"}},
		{install.KindLock, []string{"install lock", "Another iwes-fetch process"}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := &install.Error{Kind: tt.kind, Version: "2.3.1", Path: "/tmp/x", Err: errors.New("boom")}
			result := Format(err, nil)
			assertContainsAll(t, result, append(tt.checks, "Possible causes:", "Suggestions:")...)
		})
	}
}

func TestFormat_RateLimitError(t *testing.T) {
	err := errors.New("GitHub API rate limit exceeded")
	result := Format(err, nil)

	assertContainsAll(t, result,
		"rate limit",
		"Possible causes:",
		"Too many requests",
		"Suggestions:",
		"GITHUB_TOKEN",
	)
}

func TestFormat_NetworkError(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	result := Format(err, nil)

	assertContainsAll(t, result,
		"connection refused",
		"Possible causes:",
		"Network connectivity issue",
		"Suggestions:",
		"Check your internet connection",
	)
}

func TestFormat_PermissionError(t *testing.T) {
	err := errors.New("open /home/user/.iwes-fetch/versions: permission denied")
	result := Format(err, nil)

	assertContainsAll(t, result,
		"permission denied",
		"Possible causes:",
		"Insufficient permissions",
		"Suggestions:",
		"~/.iwes-fetch",
	)
}

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg       string
	timeout   bool
	temporary bool
}

func (e mockNetError) Error() string   { return e.msg }
func (e mockNetError) Timeout() bool   { return e.timeout }
func (e mockNetError) Temporary() bool { return e.temporary }

// Ensure mockNetError implements net.Error
var _ net.Error = mockNetError{}

func TestFormat_NetError_Timeout(t *testing.T) {
	err := mockNetError{
		msg:     "i/o timeout",
		timeout: true,
	}
	result := Format(err, nil)

	assertContainsAll(t, result,
		"i/o timeout",
		"Possible causes:",
		"Request timed out",
		"Suggestions:",
		"IWES_DOWNLOAD_TIMEOUT",
	)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("x"), KindUnknown},
		{"platform", &platform.UnsupportedPlatformError{OS: platform.Linux, Arch: platform.X86}, KindUnsupportedPlatform},
		{"lookup", &release.LookupError{Type: release.ErrTypeNetwork}, KindReleaseLookup},
		{"asset", &release.AssetNotFoundError{Expected: "a"}, KindAssetNotFound},
		{"wrapped asset", fmt.Errorf("outer: %w", &release.AssetNotFoundError{}), KindAssetNotFound},
		{"dir", &install.Error{Kind: install.KindDirectoryCreate}, KindDirectoryCreate},
		{"download", &install.Error{Kind: install.KindDownload}, KindDownload},
		{"archive", &install.Error{Kind: install.KindArchive}, KindArchive},
		{"permission", &install.Error{Kind: install.KindPermission}, KindPermission},
		{"lock", &install.Error{Kind: install.KindLock}, KindLock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindUnsupportedPlatform: "UnsupportedPlatform",
		KindReleaseLookup:       "ReleaseLookupError",
		KindAssetNotFound:       "AssetNotFound",
		KindDirectoryCreate:     "DirectoryCreateError",
		KindDownload:            "DownloadError",
		KindArchive:             "ArchiveError",
		KindPermission:          "PermissionError",
		KindUnknown:             "Unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, errors.New("something went wrong"), nil)
	if got := buf.String(); got != "Error: something went wrong\n" {
		t.Errorf("Fprint() = %q", got)
	}

	buf.Reset()
	Fprint(&buf, nil, nil)
	if buf.Len() != 0 {
		t.Errorf("Fprint(nil) wrote %q", buf.String())
	}
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"GitHub API rate limit exceeded", true},
		{"rate-limit: too many requests", true},
		{"Too many requests to the server", true},
		{"connection failed", false},
		{"file not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isRateLimitError(tt.msg); got != tt.expected {
				t.Errorf("isRateLimitError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"dial tcp: connection refused", true},
		{"connection reset by peer", true},
		{"no such host", true},
		{"i/o timeout", true},
		{"file not found", false},
		{"permission denied", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isNetworkError(tt.msg); got != tt.expected {
				t.Errorf("isNetworkError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}

func TestIsPermissionError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"permission denied", true},
		{"access denied", true},
		{"operation not permitted", true},
		{"file not found", false},
		{"connection refused", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isPermissionError(tt.msg); got != tt.expected {
				t.Errorf("isPermissionError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}
