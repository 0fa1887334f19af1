package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// apiKeyFromEnv prefers LLM_API_KEY and falls back to DEEPSEEK_API_KEY.
func apiKeyFromEnv() string {
    if v := os.Getenv("LLM_API_KEY"); v != "" {
        return v
    }
    return os.Getenv("DEEPSEEK_API_KEY")
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    if cfg.Port == 0 {
        if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("PORT"))); err == nil && n > 0 {
            cfg.Port = n
        }
    }
    if cfg.LLMBaseURL == "" {
        cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
    }
    if cfg.LLMModel == "" {
        cfg.LLMModel = os.Getenv("LLM_MODEL")
    }
    if cfg.LLMAPIKey == "" {
        cfg.LLMAPIKey = apiKeyFromEnv()
    }
    if cfg.PromptFile == "" {
        cfg.PromptFile = os.Getenv("PROMPT_FILE")
    }
    if cfg.CacheDir == "" {
        cfg.CacheDir = os.Getenv("CACHE_DIR")
    }
    if cfg.StaticDir == "" {
        cfg.StaticDir = os.Getenv("STATIC_DIR")
    }
    if cfg.RateLimit == 0 {
        if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("RATE_LIMIT")), 64); err == nil && f > 0 {
            cfg.RateLimit = f
        }
    }

    if cfg.CacheMaxAge == 0 {
        if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
            if d, err := time.ParseDuration(s); err == nil {
                cfg.CacheMaxAge = d
            }
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.Verbose, "VERBOSE")
}
