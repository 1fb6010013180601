// Package details turns a recipe page into recipe.Details, first from the
// page's schema.org JSON-LD and, failing that, with a chat model.
package details

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorecipes/internal/domain"
	"github.com/hyperifyio/gorecipes/internal/recipe"
)

// ErrNoRecipe is returned when a page yields no usable recipe.
var ErrNoRecipe = errors.New("no recipe found on page")

// Extractor produces details for one recipe URL.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (recipe.Details, error)
}

// Getter fetches a page body. *fetch.Client implements it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Chain tries each extractor in order and returns the first success.
type Chain []Extractor

func (c Chain) Extract(ctx context.Context, pageURL string) (recipe.Details, error) {
	var errs []error
	for _, ex := range c {
		d, err := ex.Extract(ctx, pageURL)
		if err == nil {
			return d, nil
		}
		if ctx.Err() != nil {
			return recipe.Details{}, ctx.Err()
		}
		log.Debug().Err(err).Str("url", pageURL).Str("extractor", fmt.Sprintf("%T", ex)).Msg("extractor failed; trying next")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return recipe.Details{}, ErrNoRecipe
	}
	return recipe.Details{}, errors.Join(errs...)
}

// hostOf returns the registrable domain of pageURL, or its bare hostname
// when none can be derived.
func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	h := strings.ToLower(u.Hostname())
	if d, err := domain.RegistrableDomain(h); err == nil {
		return d
	}
	return h
}
