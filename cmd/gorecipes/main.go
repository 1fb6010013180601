package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gorecipes/internal/app"
	"github.com/hyperifyio/gorecipes/internal/search"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		cfg        app.Config
		configPath string
		showVer    bool
	)
	fs := flag.NewFlagSet("gorecipes", flag.ExitOnError)
	fs.StringVar(&cfg.Query, "q", "", "Recipe search query")
	fs.StringVar(&cfg.NextURL, "next", "", "Follow a _links.next.href URL from a previous result")
	fs.StringVar(&cfg.DetailsURL, "details", "", "Extract structured details from one recipe page URL")
	fs.StringVar(&cfg.OutputPath, "output", "", "Write JSON output to this path instead of stdout")
	fs.StringVar(&cfg.OutputPDFPath, "pdf", "", "Also render the result as a PDF at this path")
	fs.StringVar(&configPath, "config", os.Getenv("GORECIPES_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&cfg.EdamamBaseURL, "edamam.base", search.DefaultEdamamBaseURL, "Edamam API base URL")
	fs.StringVar(&cfg.EdamamAppID, "edamam.id", "", "Edamam application id")
	fs.StringVar(&cfg.EdamamAppKey, "edamam.key", "", "Edamam application key")
	fs.StringVar(&cfg.FileSearchPath, "search.file", "", "Read hits from a saved Edamam JSON response instead of the API")
	fs.StringVar(&cfg.AllowListPath, "allowlist", "", "File of scrapable registrable domains, one per line (default: built-in list)")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL for the details fallback")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "Model name; empty disables the details fallback")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.IntVar(&cfg.Concurrency, "concurrency", app.DefaultConcurrency, "Maximum pages fetched or sniffed at once")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", app.DefaultRequestTimeout, "Per-request timeout")
	fs.StringVar(&cfg.UserAgent, "ua", app.DefaultUserAgent, "User-Agent for all requests")
	fs.StringVar(&cfg.SniffPolicy, "sniff.policy", app.DefaultSniffPolicy, "On malformed JSON-LD: fail-fast or skip-malformed")
	fs.StringVar(&cfg.CacheDir, "cache.dir", app.DefaultCacheDir, "Cache directory path; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (e.g. 72h); 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used entries above this size; 0 disables")
	fs.IntVar(&cfg.CacheMaxCount, "cache.maxCount", 0, "Evict least recently used entries above this count; 0 disables")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&showVer, "version", false, "Print version and exit")
	_ = fs.Parse(os.Args[1:])

	if showVer {
		fmt.Printf("gorecipes %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}
	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("could not load .env")
	}
	if err := resolveConfig(fs, &cfg, configPath); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// resolveConfig layers the sources with flags > env > file precedence.
func resolveConfig(fs *flag.FlagSet, cfg *app.Config, configPath string) error {
	explicit := *cfg
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(cfg, fc)
	}
	app.ApplyEnvOverrides(cfg)
	reapplyFlags(fs, cfg, explicit)
	return app.ValidateConfig(*cfg)
}

// reapplyFlags restores every flag the user set on the command line.
func reapplyFlags(fs *flag.FlagSet, cfg *app.Config, explicit app.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "q":
			cfg.Query = explicit.Query
		case "next":
			cfg.NextURL = explicit.NextURL
		case "details":
			cfg.DetailsURL = explicit.DetailsURL
		case "output":
			cfg.OutputPath = explicit.OutputPath
		case "pdf":
			cfg.OutputPDFPath = explicit.OutputPDFPath
		case "edamam.base":
			cfg.EdamamBaseURL = explicit.EdamamBaseURL
		case "edamam.id":
			cfg.EdamamAppID = explicit.EdamamAppID
		case "edamam.key":
			cfg.EdamamAppKey = explicit.EdamamAppKey
		case "search.file":
			cfg.FileSearchPath = explicit.FileSearchPath
		case "allowlist":
			cfg.AllowListPath = explicit.AllowListPath
		case "llm.base":
			cfg.LLMBaseURL = explicit.LLMBaseURL
		case "llm.model":
			cfg.LLMModel = explicit.LLMModel
		case "llm.key":
			cfg.LLMAPIKey = explicit.LLMAPIKey
		case "concurrency":
			cfg.Concurrency = explicit.Concurrency
		case "timeout":
			cfg.RequestTimeout = explicit.RequestTimeout
		case "ua":
			cfg.UserAgent = explicit.UserAgent
		case "sniff.policy":
			cfg.SniffPolicy = explicit.SniffPolicy
		case "cache.dir":
			cfg.CacheDir = explicit.CacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = explicit.CacheMaxAge
		case "cache.clear":
			cfg.CacheClear = explicit.CacheClear
		case "cache.strictPerms":
			cfg.CacheStrictPerms = explicit.CacheStrictPerms
		case "cache.maxBytes":
			cfg.CacheMaxBytes = explicit.CacheMaxBytes
		case "cache.maxCount":
			cfg.CacheMaxCount = explicit.CacheMaxCount
		case "v":
			cfg.Verbose = explicit.Verbose
		}
	})
}

// exitCode maps run errors to the process exit status: 2 when the search
// produced nothing to annotate, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, app.ErrNoResults) {
		return 2
	}
	return 1
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return a.Run(ctx)
}
