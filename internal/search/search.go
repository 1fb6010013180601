package search

import (
	"context"
	"errors"

	"github.com/hyperifyio/gorecipes/internal/recipe"
)

// ErrNoNextPage is returned by providers that cannot follow pagination links.
var ErrNoNextPage = errors.New("provider does not support paging")

// Provider is a minimal interface for recipe search providers. Both methods
// return a fresh batch whose validity flags are all unknown.
type Provider interface {
	Search(ctx context.Context, query string) (*recipe.Batch, error)
	Next(ctx context.Context, nextURL string) (*recipe.Batch, error)
	Name() string
}
