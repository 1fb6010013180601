package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/gorecipes/internal/search"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`

	Edamam struct {
		BaseURL string `yaml:"base" json:"base"`
		AppID   string `yaml:"appID" json:"appID"`
		AppKey  string `yaml:"appKey" json:"appKey"`
	} `yaml:"edamam" json:"edamam"`

	Search struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`

	AllowList string `yaml:"allowList" json:"allowList"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Fetch struct {
		Concurrency int      `yaml:"concurrency" json:"concurrency"`
		Timeout     Duration `yaml:"timeout" json:"timeout"`
		UserAgent   string   `yaml:"userAgent" json:"userAgent"`
		SniffPolicy string   `yaml:"sniffPolicy" json:"sniffPolicy"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64    `yaml:"maxBytes" json:"maxBytes"`
		MaxCount    int      `yaml:"maxCount" json:"maxCount"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "10s"-style strings in YAML and JSON config files.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.parse(value.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// YAML is a superset of JSON for our schema.
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse config: %w", err)
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays file values onto fields of cfg that are unset or
// still at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v, def string) {
		if (*dst == "" || *dst == def) && v != "" {
			*dst = v
		}
	}
	setStr(&cfg.OutputPath, fc.Output, "")
	setStr(&cfg.OutputPDFPath, fc.OutputPDF, "")
	setStr(&cfg.EdamamBaseURL, fc.Edamam.BaseURL, search.DefaultEdamamBaseURL)
	setStr(&cfg.EdamamAppID, fc.Edamam.AppID, "")
	setStr(&cfg.EdamamAppKey, fc.Edamam.AppKey, "")
	setStr(&cfg.FileSearchPath, fc.Search.File, "")
	setStr(&cfg.AllowListPath, fc.AllowList, "")
	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL, "")
	setStr(&cfg.LLMModel, fc.LLM.Model, "")
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey, "")
	setStr(&cfg.UserAgent, fc.Fetch.UserAgent, DefaultUserAgent)
	setStr(&cfg.SniffPolicy, fc.Fetch.SniffPolicy, DefaultSniffPolicy)
	setStr(&cfg.CacheDir, fc.Cache.Dir, DefaultCacheDir)

	if (cfg.Concurrency == 0 || cfg.Concurrency == DefaultConcurrency) && fc.Fetch.Concurrency > 0 {
		cfg.Concurrency = fc.Fetch.Concurrency
	}
	if (cfg.RequestTimeout == 0 || cfg.RequestTimeout == DefaultRequestTimeout) && fc.Fetch.Timeout > 0 {
		cfg.RequestTimeout = time.Duration(fc.Fetch.Timeout)
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxCount == 0 && fc.Cache.MaxCount > 0 {
		cfg.CacheMaxCount = fc.Cache.MaxCount
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	cfg.Verbose = cfg.Verbose || fc.Verbose
}

// ValidateConfig checks that exactly one mode is selected and that the
// chosen mode has what it needs.
func ValidateConfig(cfg Config) error {
	modes := 0
	for _, s := range []string{cfg.Query, cfg.NextURL, cfg.DetailsURL} {
		if strings.TrimSpace(s) != "" {
			modes++
		}
	}
	switch {
	case modes == 0:
		return errors.New("config: one of query, next url or details url is required")
	case modes > 1:
		return errors.New("config: query, next url and details url are mutually exclusive")
	}
	if cfg.DetailsURL == "" && cfg.FileSearchPath == "" {
		if strings.TrimSpace(cfg.EdamamAppID) == "" || strings.TrimSpace(cfg.EdamamAppKey) == "" {
			return errors.New("config: edamam app id and key are required (or set EDAMAM_APP_ID and EDAMAM_APP_KEY)")
		}
	}
	if cfg.NextURL != "" && cfg.FileSearchPath != "" {
		return errors.New("config: the file search provider cannot page")
	}
	if cfg.Concurrency < 0 || cfg.RequestTimeout < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxCount < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
