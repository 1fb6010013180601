package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/gorecipes/internal/recipe"
)

// DefaultEdamamBaseURL is the public Edamam API host.
const DefaultEdamamBaseURL = "https://api.edamam.com"

// ErrMissingCredentials is returned when the app id or key is empty.
var ErrMissingCredentials = errors.New("missing edamam app id or app key")

// Edamam implements Provider against the recipes v2 endpoint.
type Edamam struct {
	BaseURL    string
	AppID      string
	AppKey     string
	HTTPClient *http.Client
	UserAgent  string // optional custom UA
}

func (e *Edamam) Name() string { return "edamam" }

// Search runs a public recipe query.
func (e *Edamam) Search(ctx context.Context, query string) (*recipe.Batch, error) {
	if strings.TrimSpace(e.AppID) == "" || strings.TrimSpace(e.AppKey) == "" {
		return nil, ErrMissingCredentials
	}
	base := e.BaseURL
	if base == "" {
		base = DefaultEdamamBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/recipes/v2"
	q := u.Query()
	q.Set("type", "public")
	q.Set("q", query)
	q.Set("app_id", e.AppID)
	q.Set("app_key", e.AppKey)
	u.RawQuery = q.Encode()
	return e.get(ctx, u.String())
}

// Next follows a _links.next.href value verbatim. The link already carries
// the credentials and continuation token.
func (e *Edamam) Next(ctx context.Context, nextURL string) (*recipe.Batch, error) {
	if strings.TrimSpace(nextURL) == "" {
		return nil, fmt.Errorf("empty next url")
	}
	return e.get(ctx, nextURL)
}

func (e *Edamam) get(ctx context.Context, target string) (*recipe.Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}
	hc := e.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("edamam status: %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var b recipe.Batch
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode edamam response: %w", err)
	}
	b.ResetFlags()
	return &b, nil
}
