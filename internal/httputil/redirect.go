package httputil

import (
	"context"
	"fmt"
	"net"
	"net/http"
)

// RedirectError is a redirect the client refused to follow.
type RedirectError struct {
	URL    string
	Reason string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("refusing redirect to %s: %s", e.URL, e.Reason)
}

// BlockedReason describes why ip may not be a redirect target. It returns ""
// for a public unicast address.
func BlockedReason(ip net.IP) string {
	switch {
	case ip.IsUnspecified():
		return "unspecified address"
	case ip.IsLoopback():
		return "loopback address"
	case ip.IsPrivate():
		return "private address"
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return "link-local address"
	case ip.IsMulticast():
		return "multicast address"
	}
	return ""
}

type redirectPolicy struct {
	max    int
	lookup func(ctx context.Context, host string) ([]net.IPAddr, error)
}

// check is an http.Client CheckRedirect hook. Every address a hostname
// resolves to must pass BlockedReason.
func (p *redirectPolicy) check(req *http.Request, via []*http.Request) error {
	if len(via) >= p.max {
		return fmt.Errorf("stopped after %d redirects", p.max)
	}
	target := req.URL.Redacted()
	if req.URL.Scheme != "https" {
		return &RedirectError{URL: target, Reason: "scheme is not https"}
	}

	host := req.URL.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if reason := BlockedReason(ip); reason != "" {
			return &RedirectError{URL: target, Reason: reason}
		}
		return nil
	}

	addrs, err := p.lookup(req.Context(), host)
	if err != nil {
		return fmt.Errorf("cannot resolve redirect host %s: %w", host, err)
	}
	for _, a := range addrs {
		if reason := BlockedReason(a.IP); reason != "" {
			return &RedirectError{URL: target, Reason: fmt.Sprintf("%s resolves to %s %s", host, reason, a.IP)}
		}
	}
	return nil
}
