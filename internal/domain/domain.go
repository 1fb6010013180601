package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"

	"github.com/hyperifyio/gorecipes/internal/recipe"
)

var (
	// ErrInvalidURL is returned for strings that are not absolute URLs.
	ErrInvalidURL = errors.New("invalid url")
	// ErrNoHost is returned when the URL has no host component.
	ErrNoHost = errors.New("no host in the url")
	// ErrNoDomain is returned when no registrable domain can be derived
	// from the host (IP literals, unlisted suffixes, bare suffixes).
	ErrNoDomain = errors.New("failed to extract domain from host")
)

// Outcome is the per-hit result of a classification, with the reason when
// the value was forced to false by an error. Applied is false when the hit
// kept a flag from an earlier pass instead of Value.
type Outcome struct {
	Index   int
	URL     string
	Value   bool
	Applied bool
	Err     error
}

// RegistrableDomain reduces host to its public suffix plus one label,
// lower-cased. www.example.co.uk becomes example.co.uk.
func RegistrableDomain(host string) (string, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return "", ErrNoHost
	}
	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("%w: %q is an ip address", ErrNoDomain, host)
	}
	suffix, icann := publicsuffix.PublicSuffix(host)
	// The fallback "*" rule yields a single unlisted label.
	if !icann && !strings.Contains(suffix, ".") {
		return "", fmt.Errorf("%w: unlisted suffix %q", ErrNoDomain, suffix)
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDomain, err)
	}
	return d, nil
}

// Classify reports whether the registrable domain of rawURL is on the
// allow-list. It performs no I/O.
func Classify(rawURL string, allow *AllowList) (bool, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() {
		return false, fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, rawURL)
	}
	host := u.Hostname()
	if host == "" {
		return false, ErrNoHost
	}
	d, err := RegistrableDomain(host)
	if err != nil {
		return false, err
	}
	return allow.Contains(d), nil
}

// ClassifyBatch stamps every hit with its scrapable flag. Errors are logged
// and downgraded to false; the batch is never aborted.
func ClassifyBatch(b *recipe.Batch, allow *AllowList, logger *zerolog.Logger) []Outcome {
	if logger == nil {
		logger = &log.Logger
	}
	out := make([]Outcome, len(b.Hits))
	for i := range b.Hits {
		hit := &b.Hits[i]
		ok, err := Classify(hit.Recipe.URL, allow)
		if err != nil {
			logger.Warn().Err(err).Str("url", hit.Recipe.URL).Msg("error checking if url is scrapable")
			ok = false
		}
		applied := hit.SetScrapable(ok)
		out[i] = Outcome{Index: i, URL: hit.Recipe.URL, Value: ok, Applied: applied, Err: err}
	}
	return out
}
