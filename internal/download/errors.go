package download

import (
	"fmt"
	"net/http"
)

// Kind separates failures to fetch from failures to unpack.
type Kind int

const (
	// KindTransport means the asset could not be fetched.
	KindTransport Kind = iota
	// KindArchive means the asset was fetched but could not be unpacked.
	KindArchive
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindArchive:
		return "archive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by HTTPDownloader.Download.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindArchive {
		return fmt.Sprintf("failed to unpack %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is a non-200 HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Retryable reports whether the server might answer differently next time.
// Client errors other than 408 and 429 are final.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return false
	default:
		return true
	}
}
