package release

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// ErrorType classifies release lookup failures
type ErrorType int

const (
	// ErrTypeNetwork is a generic network failure (fallback when nothing more specific applies)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeNotFound means the repository or its latest release does not exist
	ErrTypeNotFound
	// ErrTypeNoAssets means the latest release has no assets attached
	ErrTypeNoAssets
	// ErrTypeParsing means the index response could not be decoded
	ErrTypeParsing
	// ErrTypeRateLimit means the release API rate limit was hit
	ErrTypeRateLimit
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeDNS indicates DNS resolution failure
	ErrTypeDNS
	// ErrTypeConnection indicates connection refused or reset
	ErrTypeConnection
	// ErrTypeTLS indicates TLS/SSL certificate errors
	ErrTypeTLS
	// ErrTypeInvalidRepo means the repository is not in owner/name form
	ErrTypeInvalidRepo
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNetwork:
		return "network"
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeNoAssets:
		return "no assets"
	case ErrTypeParsing:
		return "parsing"
	case ErrTypeRateLimit:
		return "rate limit"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeDNS:
		return "dns"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTLS:
		return "tls"
	case ErrTypeInvalidRepo:
		return "invalid repository"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// LookupError reports that the latest release could not be determined.
type LookupError struct {
	Type    ErrorType
	Repo    string // owner/name
	Message string
	Err     error

	// ResetTime is when the rate limit resets (ErrTypeRateLimit only).
	ResetTime time.Time
	// Authenticated reports whether a token was sent.
	Authenticated bool
}

// Error implements the error interface
func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("release lookup for %s: %s: %v", e.Repo, e.Message, e.Err)
	}
	return fmt.Sprintf("release lookup for %s: %s", e.Repo, e.Message)
}

// Unwrap returns the underlying error for error chain support
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable suggestion for the user based on the error type.
// Returns an empty string if no specific suggestion is available.
func (e *LookupError) Suggestion() string {
	switch e.Type {
	case ErrTypeRateLimit:
		s := "Wait for the rate limit to reset before trying again"
		if !e.ResetTime.IsZero() {
			minutes := int(time.Until(e.ResetTime).Minutes())
			if minutes < 1 {
				minutes = 1
			}
			s = fmt.Sprintf("Try again in: %d minutes", minutes)
		}
		if !e.Authenticated {
			s += "\nOr set GITHUB_TOKEN for higher limits (5000 req/hour)"
		}
		return s
	case ErrTypeTimeout:
		return "Check your internet connection or raise IWES_API_TIMEOUT"
	case ErrTypeDNS:
		return "Check your DNS settings and internet connection"
	case ErrTypeConnection:
		return "GitHub may be down or blocked. Check https_proxy in your config"
	case ErrTypeTLS:
		return "There may be a certificate issue. Check your system time is correct"
	case ErrTypeNotFound:
		return "Verify the repository name (iwes-fetch config get repo)"
	case ErrTypeNoAssets:
		return "The release may still be uploading; try again in a few minutes"
	case ErrTypeInvalidRepo:
		return "Use the owner/name form, e.g. iwe-org/iwe"
	case ErrTypeNetwork:
		return "Check your internet connection and try again"
	default:
		return ""
	}
}

// AssetNotFoundError means the release has no asset for this platform.
type AssetNotFoundError struct {
	Expected  string
	Version   string
	Available []string
}

// Error implements the error interface
func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("no asset found matching %q in release %s", e.Expected, e.Version)
}

// Suggestion lists what the release does provide.
func (e *AssetNotFoundError) Suggestion() string {
	if len(e.Available) == 0 {
		return "The release has no assets"
	}
	return "Available assets: " + strings.Join(e.Available, ", ")
}

// ClassifyError examines an error and returns the most specific ErrorType.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrTypeNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return ErrTypeDNS
		}
		return ErrTypeConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") ||
			strings.Contains(msg, "tls") ||
			strings.Contains(msg, "x509") {
			return ErrTypeTLS
		}
		return ClassifyError(urlErr.Err)
	}

	return ErrTypeNetwork
}
