package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/gorecipes/internal/domain"
	"github.com/hyperifyio/gorecipes/internal/fetch"
	"github.com/hyperifyio/gorecipes/internal/recipe"
	"github.com/hyperifyio/gorecipes/internal/sniff"
)

var (
	// ErrSetAllHitsValid marks a failed validation pass. Every *PassError
	// matches it with errors.Is.
	ErrSetAllHitsValid = errors.New("failed to set valid status on hits")
	// ErrGetHitBodiesFailed means the fetch phase failed as a whole.
	ErrGetHitBodiesFailed = errors.New("failed to get hit bodies")
	// ErrSetStatusFailed means a verdict could not be written to its hit.
	ErrSetStatusFailed = errors.New("failed to set status")
	// ErrWriteGatePoisoned means a sniff worker crashed, so no further
	// write-back is trusted.
	ErrWriteGatePoisoned = errors.New("write gate poisoned")
)

// Fetcher retrieves page bodies in input order.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) ([]fetch.Result, error)
}

// ContentSniffer decides whether a page body holds a recipe.
type ContentSniffer interface {
	ContainsRecipe(body string) (bool, error)
}

// Validator annotates search batches with scrapable and valid flags.
// It holds no per-batch state and may be shared.
type Validator struct {
	AllowList *domain.AllowList
	Fetcher   Fetcher
	// Sniffer defaults to sniff.Sniffer{} (fail-fast).
	Sniffer ContentSniffer
	// Concurrency bounds the sniff phase. Zero means fetch.DefaultConcurrency.
	Concurrency int
	Logger      *zerolog.Logger
}

// Outcome is the valid verdict for one hit. Err holds the fetch or sniff
// failure that forced Value to false. Applied is false when the hit already
// carried a verdict from an earlier pass.
type Outcome struct {
	Index   int
	URL     string
	Value   bool
	Applied bool
	Err     error
}

// Report lists per-hit outcomes of both checks.
type Report struct {
	Scrapable []domain.Outcome
	Valid     []Outcome
}

// ItemError is a write-back failure for one hit.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string { return fmt.Sprintf("hit %d: %v", e.Index, e.Err) }

// PassError is returned when a validation pass fails. It matches
// ErrSetAllHitsValid and its Cause.
type PassError struct {
	Cause error
	Items []ItemError
}

func (e *PassError) Error() string {
	var b strings.Builder
	b.WriteString(ErrSetAllHitsValid.Error())
	b.WriteString(": ")
	b.WriteString(e.Cause.Error())
	if n := len(e.Items); n > 0 {
		fmt.Fprintf(&b, " (%d hits failed)", n)
	}
	return b.String()
}

func (e *PassError) Unwrap() []error { return []error{ErrSetAllHitsValid, e.Cause} }

func (v *Validator) logger() *zerolog.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return &log.Logger
}

func (v *Validator) sniffer() ContentSniffer {
	if v.Sniffer != nil {
		return v.Sniffer
	}
	return sniff.Sniffer{}
}

// ValidateBatch runs one pass over b: classify every hit, fetch every page,
// then sniff each body and record the verdict on its hit. Per-hit failures
// become false verdicts. The returned error is a *PassError and only
// reports systemic faults; the batch must then be treated as partial.
func (v *Validator) ValidateBatch(ctx context.Context, b *recipe.Batch) (Report, error) {
	var rep Report
	rep.Scrapable = domain.ClassifyBatch(b, v.AllowList, v.logger())
	if len(b.Hits) == 0 {
		return rep, nil
	}
	if v.Fetcher == nil {
		return rep, &PassError{Cause: fmt.Errorf("%w: no fetcher configured", ErrGetHitBodiesFailed)}
	}

	results, err := v.Fetcher.FetchAll(ctx, b.URLs())
	if err != nil {
		return rep, &PassError{Cause: fmt.Errorf("%w: %w", ErrGetHitBodiesFailed, err)}
	}

	valid, err := v.sniffAndWrite(b, results)
	rep.Valid = valid
	return rep, err
}

type verdict struct {
	index    int
	url      string
	valid    bool
	err      error
	panicked any
}

// sniffAndWrite sniffs bodies on a bounded pool. Workers only send
// verdicts; the collector below is the single writer to b.Hits.
func (v *Validator) sniffAndWrite(b *recipe.Batch, results []fetch.Result) ([]Outcome, error) {
	limit := v.Concurrency
	if limit <= 0 {
		limit = fetch.DefaultConcurrency
	}
	logger := v.logger()
	sn := v.sniffer()

	outcomes := make([]Outcome, len(b.Hits))
	written := make([]bool, len(b.Hits))
	var items []ItemError
	poisoned := false

	verdicts := make(chan verdict)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for vd := range verdicts {
			if vd.panicked != nil {
				poisoned = true
				logger.Error().Int("index", vd.index).Interface("panic", vd.panicked).Msg("sniff worker crashed")
				items = append(items, ItemError{Index: vd.index, Err: ErrWriteGatePoisoned})
				continue
			}
			if poisoned {
				items = append(items, ItemError{Index: vd.index, Err: ErrWriteGatePoisoned})
				continue
			}
			if vd.index < 0 || vd.index >= len(b.Hits) || written[vd.index] {
				items = append(items, ItemError{Index: vd.index, Err: fmt.Errorf("%w: no hit for result %d", ErrSetStatusFailed, vd.index)})
				continue
			}
			written[vd.index] = true
			outcomes[vd.index] = Outcome{
				Index:   vd.index,
				URL:     vd.url,
				Value:   vd.valid,
				Applied: b.Hits[vd.index].SetValid(vd.valid),
				Err:     vd.err,
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(limit)
	for _, r := range results {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					verdicts <- verdict{index: r.Index, url: r.URL, panicked: p}
				}
			}()
			ok, err := sn.ContainsRecipe(r.Body)
			if err != nil {
				logger.Warn().Err(err).Str("url", r.URL).Msg("could not read recipe data; marking invalid")
				ok = false
			}
			if r.Err != nil {
				err = r.Err
			}
			verdicts <- verdict{index: r.Index, url: r.URL, valid: ok, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(verdicts)
	<-done

	if poisoned {
		return outcomes, &PassError{Cause: ErrWriteGatePoisoned, Items: items}
	}
	for i, ok := range written {
		if !ok {
			items = append(items, ItemError{Index: i, Err: fmt.Errorf("%w: no fetch result", ErrSetStatusFailed)})
		}
	}
	if len(items) > 0 {
		return outcomes, &PassError{Cause: ErrSetStatusFailed, Items: items}
	}
	return outcomes, nil
}
