// Package errmsg classifies resolution errors and formats them with possible
// causes and actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/tsukumogami/iwes-fetch/internal/install"
	"github.com/tsukumogami/iwes-fetch/internal/platform"
	"github.com/tsukumogami/iwes-fetch/internal/release"
)

// Kind is the user-facing category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedPlatform
	KindReleaseLookup
	KindAssetNotFound
	KindDirectoryCreate
	KindDownload
	KindArchive
	KindPermission
	KindLock
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedPlatform:
		return "UnsupportedPlatform"
	case KindReleaseLookup:
		return "ReleaseLookupError"
	case KindAssetNotFound:
		return "AssetNotFound"
	case KindDirectoryCreate:
		return "DirectoryCreateError"
	case KindDownload:
		return "DownloadError"
	case KindArchive:
		return "ArchiveError"
	case KindPermission:
		return "PermissionError"
	case KindLock:
		return "LockError"
	default:
		return "Unknown"
	}
}

// Classify returns the Kind of err by inspecting the typed errors in its chain.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var platformErr *platform.UnsupportedPlatformError
	if errors.As(err, &platformErr) {
		return KindUnsupportedPlatform
	}
	var assetErr *release.AssetNotFoundError
	if errors.As(err, &assetErr) {
		return KindAssetNotFound
	}
	var lookupErr *release.LookupError
	if errors.As(err, &lookupErr) {
		return KindReleaseLookup
	}
	var installErr *install.Error
	if errors.As(err, &installErr) {
		switch installErr.Kind {
		case install.KindDirectoryCreate:
			return KindDirectoryCreate
		case install.KindDownload:
			return KindDownload
		case install.KindArchive:
			return KindArchive
		case install.KindPermission:
			return KindPermission
		case install.KindLock:
			return KindLock
		}
	}
	return KindUnknown
}

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	Repo string // The release repository being queried
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	var platformErr *platform.UnsupportedPlatformError
	if errors.As(err, &platformErr) {
		return formatUnsupportedPlatform(platformErr)
	}

	var assetErr *release.AssetNotFoundError
	if errors.As(err, &assetErr) {
		return formatAssetNotFound(assetErr, ctx)
	}

	var lookupErr *release.LookupError
	if errors.As(err, &lookupErr) {
		return formatLookupError(lookupErr, ctx)
	}

	var installErr *install.Error
	if errors.As(err, &installErr) {
		return formatInstallError(installErr)
	}

	// Check for rate limit errors (string matching for unstructured errors)
	if isRateLimitError(errMsg) {
		return formatRateLimitError(errMsg)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(netErr)
	}

	if isNetworkError(errMsg) {
		return formatGenericNetworkError(errMsg)
	}

	if isPermissionError(errMsg) {
		return formatPermissionError(errMsg)
	}

	return errMsg
}

// Fprint writes "Error: " and the formatted message to w.
func Fprint(w io.Writer, err error, ctx *ErrorContext) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %s\n", strings.TrimRight(Format(err, ctx), "\n"))
}

func formatUnsupportedPlatform(err *platform.UnsupportedPlatformError) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nSupported platforms:\n")
	for _, p := range platform.Supported() {
		sb.WriteString(fmt.Sprintf("  - %s\n", p))
	}

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Build iwes from source and put it on PATH\n")
	sb.WriteString("  - Pass --os/--arch if detection picked the wrong platform\n")

	return sb.String()
}

func formatAssetNotFound(err *release.AssetNotFoundError, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - The release was published without a build for this platform\n")
	sb.WriteString("  - The release uses a different asset naming scheme\n")

	if len(err.Available) > 0 {
		sb.WriteString("\nAvailable assets:\n")
		for _, a := range err.Available {
			sb.WriteString(fmt.Sprintf("  - %s\n", a))
		}
	}

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Put a locally built iwes on PATH\n")
	if ctx != nil && ctx.Repo != "" {
		sb.WriteString(fmt.Sprintf("  - Report the missing asset at github.com/%s/issues\n", ctx.Repo))
	}

	return sb.String()
}

func formatLookupError(err *release.LookupError, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	switch err.Type {
	case release.ErrTypeRateLimit:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Too many requests to the GitHub API\n")
		if !err.Authenticated {
			sb.WriteString("  - Unauthenticated requests have lower limits\n")
		}

	case release.ErrTypeNotFound, release.ErrTypeNoAssets:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The repository has no published release with assets\n")
		sb.WriteString("  - The configured repository name is wrong\n")

	case release.ErrTypeInvalidRepo:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The repo setting is not in owner/name form\n")

	case release.ErrTypeTimeout, release.ErrTypeDNS, release.ErrTypeConnection, release.ErrTypeNetwork:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - Firewall or proxy blocking the connection\n")

	case release.ErrTypeTLS:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - A proxy is intercepting TLS traffic\n")
		sb.WriteString("  - The system clock is wrong\n")
	}

	sb.WriteString("\nSuggestions:\n")
	writeSuggestion(&sb, err.Suggestion())
	if err.Type == release.ErrTypeNotFound || err.Type == release.ErrTypeInvalidRepo {
		if ctx != nil && ctx.Repo != "" {
			sb.WriteString(fmt.Sprintf("  - Check that github.com/%s exists\n", ctx.Repo))
		}
		sb.WriteString("  - Run 'iwes-fetch config get repo' to see the configured repository\n")
	}

	return sb.String()
}

func formatInstallError(err *install.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	switch err.Kind {
	case install.KindDirectoryCreate, install.KindPermission:
		sb.WriteString("  - Insufficient permissions on $IWES_HOME directory\n")
		sb.WriteString("  - File or directory owned by different user\n")
	case install.KindDownload:
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - The asset was removed from the release\n")
	case install.KindArchive:
		sb.WriteString("  - The download was truncated or corrupted\n")
		sb.WriteString("  - The archive layout changed upstream\n")
	case install.KindLock:
		sb.WriteString("  - Another iwes-fetch process is installing\n")
	}

	sb.WriteString("\nSuggestions:\n")
	writeSuggestion(&sb, err.Suggestion())
	if err.Kind == install.KindArchive || err.Kind == install.KindDirectoryCreate {
		sb.WriteString("  - Run 'iwes-fetch clean' and try again\n")
	}

	return sb.String()
}

// writeSuggestion adds one bullet per line of s.
func writeSuggestion(sb *strings.Builder, s string) {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sb.WriteString(fmt.Sprintf("  - %s\n", line))
		}
	}
}

func formatRateLimitError(errMsg string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Too many requests to the API\n")
	sb.WriteString("  - Unauthenticated requests have lower limits\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Set GITHUB_TOKEN environment variable to increase rate limit\n")
	sb.WriteString("  - Wait a few minutes before retrying\n")

	return sb.String()
}

func formatNetworkError(err net.Error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	if err.Timeout() {
		sb.WriteString("  - Request timed out\n")
		sb.WriteString("  - Slow or unstable network connection\n")
	} else {
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - DNS resolution failure\n")
	}
	sb.WriteString("  - Firewall or proxy blocking the connection\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")
	if err.Timeout() {
		sb.WriteString("  - Raise IWES_API_TIMEOUT or IWES_DOWNLOAD_TIMEOUT\n")
	}

	return sb.String()
}

func formatGenericNetworkError(errMsg string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Network connectivity issue\n")
	sb.WriteString("  - DNS resolution failure\n")
	sb.WriteString("  - Service temporarily unavailable\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check your internet connection\n")
	sb.WriteString("  - Try again in a few minutes\n")

	return sb.String()
}

func formatPermissionError(errMsg string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	sb.WriteString("  - Insufficient permissions on $IWES_HOME directory\n")
	sb.WriteString("  - File or directory owned by different user\n")

	sb.WriteString("\nSuggestions:\n")
	sb.WriteString("  - Check permissions on ~/.iwes-fetch\n")
	sb.WriteString("  - Point IWES_HOME at a writable directory\n")

	return sb.String()
}

// isRateLimitError checks if the error message indicates a rate limit
func isRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate-limit") ||
		strings.Contains(lower, "too many requests")
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp") ||
		strings.Contains(lower, "timeout")
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
