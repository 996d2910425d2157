// Package config loads runtime configuration for researchd from flags,
// environment variables, and an optional .env file, flag > env > file in
// precedence. Adapted from the teacher's internal/app.ApplyEnvToConfig /
// ApplyEnvOverrides (env-var-per-field, explicit-value-wins style),
// generalized from goresearch's report-building knobs to this module's
// session-budget and storage knobs (spec.md 6), and grounded on
// joho/godotenv for local .env loading, a dependency the teacher does not
// carry but the rest of the example pack uses for service configuration.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultLLMProvider           = "openai"
	defaultSearchProvider        = "google"
	defaultMaxAttempts           = 3
	defaultMaxSearches           = 4
	defaultBaseDocs              = 5
	defaultDocsStep              = 3
	defaultSessionTimeoutSeconds = 90
	defaultCacheTTLSeconds       = 86400
	defaultSearchRatePerSec      = 10
	defaultWorkerPoolSize        = 16
	defaultHTTPAddr              = ":8080"
	defaultLogLevel              = "info"
)

// Config is researchd's full runtime configuration (spec.md 6).
type Config struct {
	DatabaseURL string
	RedisURL    string

	SearchProvider  string // "google" | "searxng"
	SearchAPIKey    string
	SearchEngineID  string
	SearchEndpoint  string

	LLMProvider string // "openai" | "anthropic"
	LLMAPIKey   string
	LLMModel    string

	InternalTraceToken string

	MaxAttempts           int
	MaxSearches           int
	BaseDocs              int
	DocsStep              int
	SessionTimeoutSeconds int
	CacheTTLSeconds       int

	SearchRatePerSecond float64
	WorkerPoolSize      int

	HTTPAddr string
	LogLevel string
}

// Load reads godotenv's .env (if present; missing is not an error), then
// environment variables, then command-line flags, in increasing
// precedence, and returns the resulting Config.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		SearchProvider: envOrDefault("SEARCH_PROVIDER", defaultSearchProvider),
		SearchAPIKey:   os.Getenv("SEARCH_API_KEY"),
		SearchEngineID: os.Getenv("SEARCH_ENGINE_ID"),
		SearchEndpoint: os.Getenv("SEARCH_ENDPOINT"),

		LLMProvider: envOrDefault("LLM_PROVIDER", defaultLLMProvider),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMModel:    os.Getenv("LLM_MODEL"),

		InternalTraceToken: os.Getenv("INTERNAL_TRACE_TOKEN"),

		MaxAttempts:           envInt("MAX_ATTEMPTS", defaultMaxAttempts),
		MaxSearches:           envInt("MAX_SEARCHES", defaultMaxSearches),
		BaseDocs:              envInt("BASE_DOCS", defaultBaseDocs),
		DocsStep:              envInt("DOCS_STEP", defaultDocsStep),
		SessionTimeoutSeconds: envInt("SESSION_TIMEOUT_SECONDS", defaultSessionTimeoutSeconds),
		CacheTTLSeconds:       envInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds),

		SearchRatePerSecond: envFloat("SEARCH_RATE_PER_SEC", defaultSearchRatePerSec),
		WorkerPoolSize:      envInt("WORKER_POOL_SIZE", defaultWorkerPoolSize),

		HTTPAddr: envOrDefault("HTTP_ADDR", defaultHTTPAddr),
		LogLevel: envOrDefault("LOG_LEVEL", defaultLogLevel),
	}

	configPath := os.Getenv("CONFIG_FILE")
	if p := scanConfigFlag(args); p != "" {
		configPath = p
	}
	if configPath != "" {
		fc, err := LoadConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileConfig(&cfg, fc)
	}

	fs := flag.NewFlagSet("researchd", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", configPath, "path to an optional YAML config file")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis connection string")
	fs.StringVar(&cfg.LLMProvider, "llm-provider", cfg.LLMProvider, "openai or anthropic")
	fs.StringVar(&cfg.SearchProvider, "search-provider", cfg.SearchProvider, "google or searxng")
	fs.StringVar(&cfg.LLMModel, "llm-model", cfg.LLMModel, "LLM model id")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "hard cap on RESEARCH<->VERIFY loops")
	fs.IntVar(&cfg.MaxSearches, "max-searches", cfg.MaxSearches, "hard cap on SearchProvider calls per session")
	fs.IntVar(&cfg.BaseDocs, "base-docs", cfg.BaseDocs, "num_docs for attempt 1")
	fs.IntVar(&cfg.DocsStep, "docs-step", cfg.DocsStep, "num_docs growth per attempt")
	fs.IntVar(&cfg.SessionTimeoutSeconds, "session-timeout-seconds", cfg.SessionTimeoutSeconds, "per-session wall-clock budget")
	fs.IntVar(&cfg.CacheTTLSeconds, "cache-ttl-seconds", cfg.CacheTTLSeconds, "query cache entry TTL")
	fs.Float64Var(&cfg.SearchRatePerSecond, "search-rate-per-sec", cfg.SearchRatePerSecond, "process-wide SearchProvider rate limit")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool-size", cfg.WorkerPoolSize, "bounded worker pool size")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "zerolog level")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	return cfg, nil
}

// SessionTimeout and CacheTTL convert the integer-seconds env vars into
// time.Duration for the callers that need it.
func (c Config) SessionTimeout() time.Duration { return time.Duration(c.SessionTimeoutSeconds) * time.Second }
func (c Config) CacheTTL() time.Duration        { return time.Duration(c.CacheTTLSeconds) * time.Second }

// scanConfigFlag looks for -config/--config in args ahead of the real flag
// parse, since the config file must be loaded before the rest of the flags
// are registered with their file-aware defaults.
func scanConfigFlag(args []string) string {
	for i, a := range args {
		switch {
		case a == "-config" || a == "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config=")
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
