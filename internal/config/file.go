package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the on-disk config schema, read before env/flags are
// applied. Nested sections mirror the teacher's internal/app.FileConfig
// shape (one struct field per concern, yaml tags, no json fallback since
// this module never accepted JSON config files).
type FileConfig struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Search struct {
		Provider   string  `yaml:"provider"`
		APIKey     string  `yaml:"apiKey"`
		EngineID   string  `yaml:"engineId"`
		Endpoint   string  `yaml:"endpoint"`
		RatePerSec float64 `yaml:"ratePerSec"`
	} `yaml:"search"`

	LLM struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"apiKey"`
		Model    string `yaml:"model"`
	} `yaml:"llm"`

	Budgets struct {
		MaxAttempts           int `yaml:"maxAttempts"`
		MaxSearches           int `yaml:"maxSearches"`
		BaseDocs              int `yaml:"baseDocs"`
		DocsStep              int `yaml:"docsStep"`
		SessionTimeoutSeconds int `yaml:"sessionTimeoutSeconds"`
		CacheTTLSeconds       int `yaml:"cacheTtlSeconds"`
	} `yaml:"budgets"`

	InternalTraceToken string `yaml:"internalTraceToken"`
	WorkerPoolSize     int    `yaml:"workerPoolSize"`
	HTTPAddr           string `yaml:"httpAddr"`
	LogLevel           string `yaml:"logLevel"`
}

// LoadConfigFile reads a YAML config file. A missing path is not an error
// callers need to special-case: Load only calls this when a path is given.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("config: parse yaml: %w", err)
	}
	return fc, nil
}

// applyFileConfig overlays fc into cfg wherever cfg still holds its default
// (or empty) value, so flags and env vars win over the file (flag > env >
// file, per spec.md 6). An env var set to exactly the default value cannot
// be told apart from an unset one, and the file's value replaces it.
func applyFileConfig(cfg *Config, fc FileConfig) {
	if cfg.DatabaseURL == "" && fc.Database.URL != "" {
		cfg.DatabaseURL = fc.Database.URL
	}
	if cfg.RedisURL == "" && fc.Redis.URL != "" {
		cfg.RedisURL = fc.Redis.URL
	}
	if (cfg.SearchProvider == "" || cfg.SearchProvider == defaultSearchProvider) && fc.Search.Provider != "" {
		cfg.SearchProvider = fc.Search.Provider
	}
	if cfg.SearchAPIKey == "" && fc.Search.APIKey != "" {
		cfg.SearchAPIKey = fc.Search.APIKey
	}
	if cfg.SearchEngineID == "" && fc.Search.EngineID != "" {
		cfg.SearchEngineID = fc.Search.EngineID
	}
	if cfg.SearchEndpoint == "" && fc.Search.Endpoint != "" {
		cfg.SearchEndpoint = fc.Search.Endpoint
	}
	if cfg.SearchRatePerSecond == defaultSearchRatePerSec && fc.Search.RatePerSec > 0 {
		cfg.SearchRatePerSecond = fc.Search.RatePerSec
	}
	if (cfg.LLMProvider == "" || cfg.LLMProvider == defaultLLMProvider) && fc.LLM.Provider != "" {
		cfg.LLMProvider = fc.LLM.Provider
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.InternalTraceToken == "" && fc.InternalTraceToken != "" {
		cfg.InternalTraceToken = fc.InternalTraceToken
	}
	if cfg.MaxAttempts == defaultMaxAttempts && fc.Budgets.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Budgets.MaxAttempts
	}
	if cfg.MaxSearches == defaultMaxSearches && fc.Budgets.MaxSearches > 0 {
		cfg.MaxSearches = fc.Budgets.MaxSearches
	}
	if cfg.BaseDocs == defaultBaseDocs && fc.Budgets.BaseDocs > 0 {
		cfg.BaseDocs = fc.Budgets.BaseDocs
	}
	if cfg.DocsStep == defaultDocsStep && fc.Budgets.DocsStep > 0 {
		cfg.DocsStep = fc.Budgets.DocsStep
	}
	if cfg.SessionTimeoutSeconds == defaultSessionTimeoutSeconds && fc.Budgets.SessionTimeoutSeconds > 0 {
		cfg.SessionTimeoutSeconds = fc.Budgets.SessionTimeoutSeconds
	}
	if cfg.CacheTTLSeconds == defaultCacheTTLSeconds && fc.Budgets.CacheTTLSeconds > 0 {
		cfg.CacheTTLSeconds = fc.Budgets.CacheTTLSeconds
	}
	if cfg.WorkerPoolSize == defaultWorkerPoolSize && fc.WorkerPoolSize > 0 {
		cfg.WorkerPoolSize = fc.WorkerPoolSize
	}
	if (cfg.HTTPAddr == "" || cfg.HTTPAddr == defaultHTTPAddr) && fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if (cfg.LogLevel == "" || cfg.LogLevel == defaultLogLevel) && fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
