package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/gorecipes/internal/cache"
)

// Client wraps http.Client with timeouts and an optional on-disk cache.
// It is safe for concurrent use.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for HTTP GET bodies and headers.
	Cache *cache.HTTPCache
	// If true, skip conditional revalidation but still store fresh responses.
	BypassCache bool

	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// Concurrency is the FetchAll pool size. Zero means DefaultConcurrency.
	Concurrency int
	// HTMLOnly rejects 2xx responses whose content type is not HTML.
	// Bodies of any type are accepted when false.
	HTMLOnly bool
	Logger   *zerolog.Logger
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server error: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// ErrUnsupportedScheme is returned for anything but http and https.
var ErrUnsupportedScheme = errors.New("unsupported url scheme")

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Copy so the redirect policy does not leak into the caller's client.
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches rawURL and returns the UTF-8 body and its content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var etag, lastMod, cachedType string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
			cachedType = meta.ContentType
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil && resp.status == http.StatusNotModified && (etag != "" || lastMod != "") {
			if cached, cerr := c.Cache.LoadBody(ctx, rawURL); cerr == nil {
				return cached, cachedType, nil
			}
			// Validators matched but the body is gone; refetch unconditionally.
			resp, err = c.tryOnce(ctx, rawURL, "", "")
		}
		if err == nil {
			if c.Cache != nil && resp.status == http.StatusOK {
				_ = c.Cache.Save(ctx, rawURL, resp.contentType, resp.etag, resp.lastModified, resp.body)
			}
			return resp.body, resp.contentType, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no attempt succeeded")
	}
	return nil, "", lastErr
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

// NewRequest builds a GET for rawURL, rejecting non-HTTP schemes.
func (c *Client) NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) || req.URL.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (*response, error) {
	req, err := c.NewRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &response{
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}
	if resp.StatusCode == http.StatusNotModified {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	if c.HTMLOnly && !isAllowedHTMLContentType(out.contentType) {
		return nil, fmt.Errorf("unsupported content type: %s", out.contentType)
	}
	r, err := charset.NewReader(resp.Body, out.contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	out.body = b
	return out, nil
}

// isTransient treats 5xx and deadline expiry as retryable.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
