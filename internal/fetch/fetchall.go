package fetch

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the in-flight ceiling for FetchAll.
const DefaultConcurrency = 20

// ErrNoRequests is returned by FetchAll when not a single URL could be
// turned into a request.
var ErrNoRequests = errors.New("no request could be built")

// Result is the outcome of fetching one URL. Body is empty when Err is set.
type Result struct {
	Index int
	URL   string
	Body  string
	Err   error
}

// FetchAll retrieves every URL with at most Concurrency requests in flight.
// Work is admitted in input order as slots free up. A failure for one URL
// only empties that slot. The returned slice has one Result per input, with
// Result.Index equal to its position.
func (c *Client) FetchAll(ctx context.Context, urls []string) ([]Result, error) {
	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return results, nil
	}
	logger := c.logger()
	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	// Plain group: one failed fetch must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(limit)
	built := 0
	for i, u := range urls {
		results[i] = Result{Index: i, URL: u}
		if _, err := c.NewRequest(ctx, u); err != nil {
			results[i].Err = err
			logger.Debug().Err(err).Str("url", u).Msg("skipping unbuildable request")
			continue
		}
		built++
		g.Go(func() error {
			body, _, err := c.Get(ctx, u)
			if err != nil {
				results[i].Err = err
				logger.Debug().Err(err).Str("url", u).Msg("fetch failed; using empty body")
				return nil
			}
			results[i].Body = string(body)
			return nil
		})
	}
	_ = g.Wait()

	if built == 0 {
		return results, ErrNoRequests
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
