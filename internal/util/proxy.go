// Package util holds HTTP plumbing shared by the metadata resolvers.
package util

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc builds the proxy selector for the metadata HTTP client.
// Explicit settings win; with neither proxy set the process environment decides.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	if httpsProxy == "" {
		httpsProxy = httpProxy
	}
	cfg := &httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}
	pick := cfg.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return pick(req.URL)
	}
}

// NewHTTPClient returns a client with the given timeout and proxy settings.
// Redirect chains longer than maxRedirects fail the request.
func NewHTTPClient(timeout time.Duration, proxy func(*http.Request) (*url.URL, error), maxRedirects int) *http.Client {
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
