// Package download fetches a release asset over HTTP and unpacks it.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/tsukumogami/iwes-fetch/internal/archive"
	"github.com/tsukumogami/iwes-fetch/internal/buildinfo"
	"github.com/tsukumogami/iwes-fetch/internal/config"
	"github.com/tsukumogami/iwes-fetch/internal/httputil"
	"github.com/tsukumogami/iwes-fetch/internal/log"
	"github.com/tsukumogami/iwes-fetch/internal/progress"
)

const (
	// defaultMaxRetries is the number of download attempts before giving up
	defaultMaxRetries = 3

	// defaultRetryDelay is the initial delay between retries (doubles each attempt)
	defaultRetryDelay = 2 * time.Second
)

// Downloader fetches an archive from url and unpacks it into destDir.
type Downloader interface {
	Download(ctx context.Context, url, destDir string, kind archive.Kind) error
}

// HTTPDownloader downloads with retries and unpacks with the archive package.
type HTTPDownloader struct {
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	progress   io.Writer
	proxy      *httpproxy.Config
	logger     log.Logger
}

// Option configures an HTTPDownloader.
type Option func(*HTTPDownloader)

// WithClient replaces the default secure client.
func WithClient(c *http.Client) Option {
	return func(d *HTTPDownloader) { d.client = c }
}

// WithRetries sets the number of attempts and the first backoff delay.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(d *HTTPDownloader) {
		d.maxRetries = attempts
		d.retryDelay = delay
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(d *HTTPDownloader) { d.timeout = timeout }
}

// WithProxy routes requests through proxy instead of the environment settings.
// Ignored when WithClient is used.
func WithProxy(proxy *httpproxy.Config) Option {
	return func(d *HTTPDownloader) { d.proxy = proxy }
}

// WithProgress draws a progress bar on w when w is a terminal.
func WithProgress(w io.Writer) Option {
	return func(d *HTTPDownloader) { d.progress = w }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l log.Logger) Option {
	return func(d *HTTPDownloader) { d.logger = l }
}

// New creates an HTTPDownloader. The per-attempt timeout defaults to
// IWES_DOWNLOAD_TIMEOUT.
func New(opts ...Option) *HTTPDownloader {
	d := &HTTPDownloader{
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		timeout:    config.GetDownloadTimeout(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		// The overall deadline comes from the per-attempt context.
		d.client = httputil.NewSecureClient(httputil.ClientOptions{
			Timeout:               d.timeout,
			ResponseHeaderTimeout: 30 * time.Second,
			Proxy:                 d.proxy,
		})
	}
	if d.maxRetries < 1 {
		d.maxRetries = 1
	}
	d.logger = log.OrDefault(d.logger)
	return d
}

// Download fetches url into a temporary file inside destDir, then unpacks it
// there. The temporary file is always removed.
//
// Transport failures are retried with exponential backoff; 4xx responses are
// not. A failure to fetch is an Error of KindTransport; an archive that cannot
// be unpacked is an Error of KindArchive.
func (d *HTTPDownloader) Download(ctx context.Context, url, destDir string, kind archive.Kind) error {
	tmp, err := os.CreateTemp(destDir, ".download-*")
	if err != nil {
		return &Error{Kind: KindTransport, URL: url, Err: fmt.Errorf("failed to create temp file: %w", err)}
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := d.fetch(ctx, url, tmpPath); err != nil {
		return &Error{Kind: KindTransport, URL: url, Err: err}
	}

	if err := archive.Extract(tmpPath, destDir, kind); err != nil {
		return &Error{Kind: KindArchive, URL: url, Err: err}
	}
	return nil
}

func (d *HTTPDownloader) fetch(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if attempt > 0 {
			delay := d.retryDelay * time.Duration(1<<(attempt-1))
			d.logger.Info("retrying download", "url", url, "delay", delay, "attempt", attempt+1, "of", d.maxRetries)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = d.fetchOnce(ctx, url, destPath)
		if lastErr == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && !statusErr.Retryable() {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
		d.logger.Warn("download attempt failed", "url", url, "attempt", attempt+1, "error", lastErr)
	}

	return fmt.Errorf("download failed after %d attempts: %w", d.maxRetries, lastErr)
}

func (d *HTTPDownloader) fetchOnce(ctx context.Context, url, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = out.Close() }()

	var dst io.Writer = out
	if d.progress != nil && progress.IsTerminal(d.progress) {
		bar := progress.NewBar(out, resp.ContentLength, d.progress)
		defer bar.Done()
		dst = bar
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("short download: got %d of %d bytes", n, resp.ContentLength)
	}
	d.logger.Debug("downloaded asset", "url", url, "bytes", n)
	return out.Close()
}
