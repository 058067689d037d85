package httputil

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// ProxyConfig builds a proxy configuration from the user's settings. Empty
// settings fall back to the environment.
func ProxyConfig(httpsProxy, noProxy string) *httpproxy.Config {
	cfg := httpproxy.FromEnvironment()
	if httpsProxy != "" {
		cfg.HTTPSProxy = httpsProxy
		cfg.HTTPProxy = httpsProxy
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}
	return cfg
}

func proxyFunc(cfg *httpproxy.Config) func(*http.Request) (*url.URL, error) {
	fn := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}
