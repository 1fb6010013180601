package app

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent mimics a desktop browser. Several recipe sites refuse
// requests that look like bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// newHTTPClient returns the client shared by search and page fetching. Its
// idle pool is sized for a full batch fanned out at once.
func newHTTPClient(timeout time.Duration, concurrency int) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          4 * concurrency,
		MaxIdleConnsPerHost:   concurrency,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
