// Package httputil builds the HTTP clients used to reach the GitHub API and
// the release asset CDN.
package httputil

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http/httpproxy"
)

const (
	defaultTimeout               = 30 * time.Second
	defaultDialTimeout           = 30 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second
	defaultMaxRedirects          = 10

	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConns        = 10
)

// ClientOptions configures NewSecureClient. Zero values take the defaults.
type ClientOptions struct {
	// Timeout bounds a whole request, body included. Default: 30s.
	Timeout time.Duration
	// DialTimeout bounds the TCP connect. Default: 30s.
	DialTimeout time.Duration
	// ResponseHeaderTimeout bounds the wait for response headers. Default: 10s.
	ResponseHeaderTimeout time.Duration
	// MaxRedirects bounds the redirect chain. Default: 10.
	MaxRedirects int
	// Proxy selects proxies per request. Nil reads HTTPS_PROXY, HTTP_PROXY
	// and NO_PROXY from the environment.
	Proxy *httpproxy.Config
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.ResponseHeaderTimeout <= 0 {
		o.ResponseHeaderTimeout = defaultResponseHeaderTimeout
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = defaultMaxRedirects
	}
	return o
}

// NewSecureClient returns a client for API and asset requests.
//
// Transparent decompression is off, so a .tar.gz served with
// Content-Encoding: gzip arrives as the archive bytes. Redirects must stay on
// HTTPS and may not land on a loopback, private or link-local address; see
// BlockedReason.
func NewSecureClient(opts ClientOptions) *http.Client {
	opts = opts.withDefaults()

	proxy := opts.Proxy
	if proxy == nil {
		proxy = httpproxy.FromEnvironment()
	}

	policy := &redirectPolicy{
		max:    opts.MaxRedirects,
		lookup: net.DefaultResolver.LookupIPAddr,
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:              proxyFunc(proxy),
			DisableCompression: true,
			DialContext: (&net.Dialer{
				Timeout:   opts.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
			ExpectContinueTimeout: time.Second,
			MaxIdleConns:          maxIdleConns,
			IdleConnTimeout:       idleConnTimeout,
		},
		CheckRedirect: policy.check,
	}
}
