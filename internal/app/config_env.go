package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// Edamam credentials are also read from the lower-case app_id/app_key
// names older dotenv files use.
var (
	envAppID  = []string{"EDAMAM_APP_ID", "app_id"}
	envAppKey = []string{"EDAMAM_APP_KEY", "app_key"}
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, keys ...string) {
		if *dst == "" {
			*dst = firstEnv(keys...)
		}
	}
	setStr(&cfg.EdamamBaseURL, "EDAMAM_BASE_URL")
	setStr(&cfg.EdamamAppID, envAppID...)
	setStr(&cfg.EdamamAppKey, envAppKey...)
	setStr(&cfg.FileSearchPath, "SEARCH_FILE")
	setStr(&cfg.AllowListPath, "ALLOWLIST_FILE")
	setStr(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setStr(&cfg.LLMModel, "LLM_MODEL")
	setStr(&cfg.LLMAPIKey, "LLM_API_KEY")
	setStr(&cfg.UserAgent, "USER_AGENT")
	setStr(&cfg.SniffPolicy, "SNIFF_POLICY")
	setStr(&cfg.CacheDir, "CACHE_DIR")

	if cfg.Concurrency == 0 {
		cfg.Concurrency = envInt("CONCURRENCY")
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = envDuration("REQUEST_TIMEOUT")
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = envDuration("CACHE_MAX_AGE")
	}

	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		if v, ok := envBool(key); ok {
			*dst = v
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when they are set. Env then wins over a config file while flags, applied
// afterwards by the caller, stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, keys ...string) {
		if v := firstEnv(keys...); v != "" {
			*dst = v
		}
	}
	setStr(&cfg.EdamamBaseURL, "EDAMAM_BASE_URL")
	setStr(&cfg.EdamamAppID, envAppID...)
	setStr(&cfg.EdamamAppKey, envAppKey...)
	setStr(&cfg.FileSearchPath, "SEARCH_FILE")
	setStr(&cfg.AllowListPath, "ALLOWLIST_FILE")
	setStr(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setStr(&cfg.LLMModel, "LLM_MODEL")
	setStr(&cfg.LLMAPIKey, "LLM_API_KEY")
	setStr(&cfg.UserAgent, "USER_AGENT")
	setStr(&cfg.SniffPolicy, "SNIFF_POLICY")
	setStr(&cfg.CacheDir, "CACHE_DIR")

	if n := envInt("CONCURRENCY"); n > 0 {
		cfg.Concurrency = n
	}
	if d := envDuration("REQUEST_TIMEOUT"); d > 0 {
		cfg.RequestTimeout = d
	}
	if d := envDuration("CACHE_MAX_AGE"); d > 0 {
		cfg.CacheMaxAge = d
	}
	for key, dst := range map[string]*bool{
		"VERBOSE":            &cfg.Verbose,
		"CACHE_CLEAR":        &cfg.CacheClear,
		"CACHE_STRICT_PERMS": &cfg.CacheStrictPerms,
	} {
		if v, ok := envBool(key); ok {
			*dst = v
		}
	}
}

func envInt(key string) int {
	n, err := strconv.Atoi(firstEnv(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func envDuration(key string) time.Duration {
	s := firstEnv(key)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func envBool(key string) (value, ok bool) {
	switch strings.ToLower(firstEnv(key)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
