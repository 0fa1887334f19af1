package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// HTTP server
	Port      int
	StaticDir string
	UploadDir string
	RateLimit float64

	// LLM
	LLMBaseURL    string
	LLMModel      string
	LLMAPIKey     string
	KeyPrefix     string
	Temperature   float64
	MaxTokens     int
	TopP          float64
	LLMTimeout    time.Duration
	MaxConcurrent int
	Preflight     bool

	// Prompt template: PromptFile wins over PromptProfile
	PromptFile    string
	PromptProfile string

	// Web page fetching
	FetchTimeout time.Duration
	UserAgent    string

	// Caching
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	// CacheBypass refetches pages unconditionally but still refreshes the cache
	CacheBypass      bool
	LLMCache         bool
	CacheMaxBytes    int64
	CacheMaxCount    int

	// Behavior
	ShutdownTimeout time.Duration
	EnvFiles        []string
	Verbose         bool
}

// Defaults used when neither flags, env nor a config file provide a value.
const (
	DefaultPort            = 3000
	DefaultPromptProfile   = "mimeng"
	DefaultFetchTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultEnvFiles are read at startup and again on SIGHUP.
var DefaultEnvFiles = []string{".env"}

// ApplyDefaults fills every still-unset field with its built-in default.
// It runs after flags, env and file config have been applied.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.PromptProfile == "" {
		cfg.PromptProfile = DefaultPromptProfile
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(cfg.EnvFiles) == 0 {
		cfg.EnvFiles = append([]string{}, DefaultEnvFiles...)
	}
}
