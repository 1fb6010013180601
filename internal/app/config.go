package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Mode: exactly one of Query, NextURL or DetailsURL is set.
	Query      string
	NextURL    string
	DetailsURL string

	OutputPath    string
	OutputPDFPath string

	// Search
	EdamamBaseURL  string
	EdamamAppID    string
	EdamamAppKey   string
	FileSearchPath string
	AllowListPath  string

	// LLM fallback for recipe details
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Fetching
	Concurrency    int
	RequestTimeout time.Duration
	UserAgent      string
	SniffPolicy    string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxCount    int

	Verbose bool
}

// Defaults shared by flag parsing and the file/env overlays. A field still
// holding its default may be replaced by a lower-precedence source.
const (
	DefaultConcurrency    = 20
	DefaultRequestTimeout = 10 * time.Second
	DefaultCacheDir       = ".gorecipes-cache"
	DefaultSniffPolicy    = "fail-fast"
)
