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
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
    Server struct {
        Port            int           `yaml:"port" json:"port"`
        StaticDir       string        `yaml:"staticDir" json:"staticDir"`
        UploadDir       string        `yaml:"uploadDir" json:"uploadDir"`
        RateLimit       float64       `yaml:"rateLimit" json:"rateLimit"`
        ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
    } `yaml:"server" json:"server"`

    LLM struct {
        BaseURL       string        `yaml:"base" json:"base"`
        Model         string        `yaml:"model" json:"model"`
        APIKey        string        `yaml:"key" json:"key"`
        KeyPrefix     string        `yaml:"keyPrefix" json:"keyPrefix"`
        Temperature   float64       `yaml:"temperature" json:"temperature"`
        MaxTokens     int           `yaml:"maxTokens" json:"maxTokens"`
        TopP          float64       `yaml:"topP" json:"topP"`
        Timeout       time.Duration `yaml:"timeout" json:"timeout"`
        MaxConcurrent int           `yaml:"maxConcurrent" json:"maxConcurrent"`
    } `yaml:"llm" json:"llm"`

    Prompt struct {
        File    string `yaml:"file" json:"file"`
        Profile string `yaml:"profile" json:"profile"`
    } `yaml:"prompt" json:"prompt"`

    Fetch struct {
        Timeout   time.Duration `yaml:"timeout" json:"timeout"`
        UserAgent string        `yaml:"userAgent" json:"userAgent"`
    } `yaml:"fetch" json:"fetch"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
        Bypass      bool          `yaml:"bypass" json:"bypass"`
        LLM         bool          `yaml:"llm" json:"llm"`
        MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
        MaxCount    int           `yaml:"maxCount" json:"maxCount"`
    } `yaml:"cache" json:"cache"`

    EnvFiles []string `yaml:"envFiles" json:"envFiles"`
    Verbose  bool     `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := strings.ToLower(filepath.Ext(path)); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags and env have already been applied, so
// the file only supplies what they left open.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if cfg.Port == 0 && fc.Server.Port > 0 { cfg.Port = fc.Server.Port }
    if cfg.StaticDir == "" && fc.Server.StaticDir != "" { cfg.StaticDir = fc.Server.StaticDir }
    if cfg.UploadDir == "" && fc.Server.UploadDir != "" { cfg.UploadDir = fc.Server.UploadDir }
    if cfg.RateLimit == 0 && fc.Server.RateLimit > 0 { cfg.RateLimit = fc.Server.RateLimit }
    if cfg.ShutdownTimeout == 0 && fc.Server.ShutdownTimeout > 0 { cfg.ShutdownTimeout = fc.Server.ShutdownTimeout }

    if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if cfg.LLMModel == "" && fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
    if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }
    if cfg.KeyPrefix == "" && fc.LLM.KeyPrefix != "" { cfg.KeyPrefix = fc.LLM.KeyPrefix }
    if cfg.Temperature == 0 && fc.LLM.Temperature > 0 { cfg.Temperature = fc.LLM.Temperature }
    if cfg.MaxTokens == 0 && fc.LLM.MaxTokens > 0 { cfg.MaxTokens = fc.LLM.MaxTokens }
    if cfg.TopP == 0 && fc.LLM.TopP > 0 { cfg.TopP = fc.LLM.TopP }
    if cfg.LLMTimeout == 0 && fc.LLM.Timeout > 0 { cfg.LLMTimeout = fc.LLM.Timeout }
    if cfg.MaxConcurrent == 0 && fc.LLM.MaxConcurrent > 0 { cfg.MaxConcurrent = fc.LLM.MaxConcurrent }

    if cfg.PromptFile == "" && fc.Prompt.File != "" { cfg.PromptFile = fc.Prompt.File }
    if cfg.PromptProfile == "" && fc.Prompt.Profile != "" { cfg.PromptProfile = fc.Prompt.Profile }

    if cfg.FetchTimeout == 0 && fc.Fetch.Timeout > 0 { cfg.FetchTimeout = fc.Fetch.Timeout }
    if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }

    if cfg.CacheDir == "" && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if !cfg.CacheBypass && fc.Cache.Bypass { cfg.CacheBypass = true }
    if !cfg.LLMCache && fc.Cache.LLM { cfg.LLMCache = true }
    if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 { cfg.CacheMaxBytes = fc.Cache.MaxBytes }
    if cfg.CacheMaxCount == 0 && fc.Cache.MaxCount > 0 { cfg.CacheMaxCount = fc.Cache.MaxCount }

    if len(cfg.EnvFiles) == 0 && len(fc.EnvFiles) > 0 { cfg.EnvFiles = append([]string{}, fc.EnvFiles...) }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// Resolve merges the layers in precedence order: the values already in cfg
// (flags), then environment variables, then the optional file config, then
// built-in defaults.
func Resolve(cfg Config, fc *FileConfig) Config {
    ApplyEnvToConfig(&cfg)
    if fc != nil {
        ApplyFileConfig(&cfg, *fc)
    }
    ApplyDefaults(&cfg)
    return cfg
}

// ValidateConfig performs minimal schema validation for required settings.
// The credential itself is checked when the generator is built.
func ValidateConfig(cfg Config) error {
    if cfg.Port <= 0 || cfg.Port > 65535 {
        return fmt.Errorf("config: port %d out of range", cfg.Port)
    }
    if cfg.Temperature < 0 || cfg.Temperature > 2 {
        return errors.New("config: llm.temperature must be within [0, 2]")
    }
    if cfg.TopP < 0 || cfg.TopP > 1 {
        return errors.New("config: llm.topP must be within [0, 1]")
    }
    if cfg.MaxTokens < 0 || cfg.MaxConcurrent < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxCount < 0 {
        return errors.New("config: negative limits are not allowed")
    }
    if cfg.RateLimit < 0 {
        return errors.New("config: server.rateLimit must not be negative")
    }
    if trim(cfg.PromptFile) != "" {
        if _, err := os.Stat(cfg.PromptFile); err != nil {
            return fmt.Errorf("config: prompt file: %w", err)
        }
    }
    if cfg.LLMCache && trim(cfg.CacheDir) == "" {
        return errors.New("config: cache.llm requires cache.dir (or set CACHE_DIR)")
    }
    return nil
}

func trim(s string) string {
    return strings.TrimSpace(s)
}
