package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorecipes/internal/cache"
	"github.com/hyperifyio/gorecipes/internal/details"
	"github.com/hyperifyio/gorecipes/internal/domain"
	"github.com/hyperifyio/gorecipes/internal/fetch"
	"github.com/hyperifyio/gorecipes/internal/llm"
	"github.com/hyperifyio/gorecipes/internal/recipe"
	"github.com/hyperifyio/gorecipes/internal/search"
	"github.com/hyperifyio/gorecipes/internal/sniff"
	"github.com/hyperifyio/gorecipes/internal/validate"
)

// ErrNoResults is returned when a search or next page yields no hits.
// The CLI maps it to exit code 2.
var ErrNoResults = errors.New("no recipe results")

type App struct {
	cfg       Config
	provider  search.Provider
	validator *validate.Validator
	details   details.Extractor
	httpCache *cache.HTTPCache
	llmCache  *cache.LLMCache
	out       io.Writer
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, out: os.Stdout}
	if cfg.CacheDir != "" {
		if err := a.prepareCache(); err != nil {
			return nil, err
		}
	}

	hc := newHTTPClient(cfg.RequestTimeout, cfg.Concurrency)
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	// One attempt per page: a failed hit is simply not valid for this pass.
	client := &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         ua,
		MaxAttempts:       1,
		PerRequestTimeout: cfg.RequestTimeout,
		Cache:             a.httpCache,
		Concurrency:       cfg.Concurrency,
	}

	allow := domain.DefaultAllowList()
	if cfg.AllowListPath != "" {
		var err error
		if allow, err = domain.LoadAllowListFile(cfg.AllowListPath); err != nil {
			return nil, fmt.Errorf("load allow list: %w", err)
		}
	}
	log.Debug().Int("domains", allow.Len()).Msg("allow list ready")

	if cfg.FileSearchPath != "" {
		a.provider = &search.FileProvider{Path: cfg.FileSearchPath}
	} else {
		a.provider = &search.Edamam{
			BaseURL:    cfg.EdamamBaseURL,
			AppID:      cfg.EdamamAppID,
			AppKey:     cfg.EdamamAppKey,
			HTTPClient: hc,
			UserAgent:  ua,
		}
	}

	sn := sniff.Sniffer{Policy: sniff.ParsePolicy(cfg.SniffPolicy)}
	a.validator = &validate.Validator{
		AllowList:   allow,
		Fetcher:     client,
		Sniffer:     sn,
		Concurrency: cfg.Concurrency,
	}

	// Detail pages must be HTML.
	page := &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         ua,
		MaxAttempts:       1,
		PerRequestTimeout: cfg.RequestTimeout,
		Cache:             a.httpCache,
		HTMLOnly:          true,
	}
	chain := details.Chain{&details.LDJSON{Getter: page, Sniffer: sn}}
	if cfg.LLMModel != "" {
		chain = append(chain, &details.LLM{
			Getter: page,
			Client: llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey),
			Model:  cfg.LLMModel,
			Cache:  a.llmCache,
		})
	}
	a.details = chain
	return a, nil
}

// prepareCache applies clear, age and size controls, then opens the HTTP
// and LLM caches under their own subdirectories.
func (a *App) prepareCache() error {
	dir := a.cfg.CacheDir
	httpDir, llmDir := filepath.Join(dir, "http"), filepath.Join(dir, "llm")
	if a.cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	if a.cfg.CacheMaxAge > 0 {
		h, _ := cache.PurgeHTTPCacheByAge(httpDir, a.cfg.CacheMaxAge)
		l, _ := cache.PurgeLLMCacheByAge(llmDir, a.cfg.CacheMaxAge)
		log.Debug().Int("http", h).Int("llm", l).Msg("purged stale cache entries")
	}
	if a.cfg.CacheMaxBytes > 0 || a.cfg.CacheMaxCount > 0 {
		_, _ = cache.EnforceHTTPCacheLimits(httpDir, a.cfg.CacheMaxBytes, a.cfg.CacheMaxCount)
		_, _ = cache.EnforceLLMCacheLimits(llmDir, a.cfg.CacheMaxBytes, a.cfg.CacheMaxCount)
	}
	a.httpCache = &cache.HTTPCache{Dir: httpDir, StrictPerms: a.cfg.CacheStrictPerms}
	a.llmCache = &cache.LLMCache{Dir: llmDir, StrictPerms: a.cfg.CacheStrictPerms}
	return nil
}

func (a *App) Close() {}

// Search runs a query and annotates every hit. A *validate.PassError is
// returned together with the partially annotated batch.
func (a *App) Search(ctx context.Context, query string) (*recipe.Batch, error) {
	b, err := a.provider.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", a.provider.Name(), err)
	}
	return a.annotate(ctx, b)
}

// Next fetches and annotates the page behind a _links.next.href value.
func (a *App) Next(ctx context.Context, nextURL string) (*recipe.Batch, error) {
	b, err := a.provider.Next(ctx, nextURL)
	if err != nil {
		return nil, fmt.Errorf("next page %s: %w", a.provider.Name(), err)
	}
	return a.annotate(ctx, b)
}

func (a *App) annotate(ctx context.Context, b *recipe.Batch) (*recipe.Batch, error) {
	if len(b.Hits) == 0 {
		return b, ErrNoResults
	}
	rep, err := a.validator.ValidateBatch(ctx, b)
	scrapable, valid := 0, 0
	for _, h := range b.Hits {
		if h.IsScrapable != nil && *h.IsScrapable {
			scrapable++
		}
		if h.IsValid != nil && *h.IsValid {
			valid++
		}
	}
	log.Info().Int("hits", len(b.Hits)).Int("scrapable", scrapable).Int("valid", valid).Int("checked", len(rep.Valid)).Msg("batch annotated")
	return b, err
}

// Details extracts structured recipe content from one page.
func (a *App) Details(ctx context.Context, pageURL string) (recipe.Details, error) {
	return a.details.Extract(ctx, pageURL)
}

// Run executes the configured mode and writes JSON to OutputPath or stdout.
func (a *App) Run(ctx context.Context) error {
	var (
		v   any
		err error
	)
	switch {
	case a.cfg.DetailsURL != "":
		var d recipe.Details
		if d, err = a.Details(ctx, a.cfg.DetailsURL); err != nil {
			return err
		}
		if a.cfg.OutputPDFPath != "" {
			if err := writeDetailsPDF(d, a.cfg.OutputPDFPath); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			log.Info().Str("pdf", a.cfg.OutputPDFPath).Msg("wrote recipe card")
		}
		v = d
	default:
		var b *recipe.Batch
		if a.cfg.NextURL != "" {
			b, err = a.Next(ctx, a.cfg.NextURL)
		} else {
			b, err = a.Search(ctx, a.cfg.Query)
		}
		if b == nil || errors.Is(err, ErrNoResults) {
			return err
		}
		var pe *validate.PassError
		if errors.As(err, &pe) {
			// Partial annotations are still written; the error is reported after.
			log.Warn().Err(err).Msg("validation pass incomplete")
		} else if err != nil {
			return err
		}
		if a.cfg.OutputPDFPath != "" {
			if perr := writeBatchPDF(b, a.cfg.OutputPDFPath); perr != nil {
				return fmt.Errorf("write pdf: %w", perr)
			}
		}
		if werr := a.writeJSON(b); werr != nil {
			return werr
		}
		return err
	}
	return a.writeJSON(v)
}

func (a *App) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if a.cfg.OutputPath == "" || a.cfg.OutputPath == "-" {
		_, err = a.out.Write(data)
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
	return nil
}
