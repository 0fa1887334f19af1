package app

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

var configEnvKeys = []string{
    "PORT", "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "DEEPSEEK_API_KEY",
    "PROMPT_FILE", "CACHE_DIR", "CACHE_MAX_AGE", "STATIC_DIR", "RATE_LIMIT", "VERBOSE",
}

func clearConfigEnv(t *testing.T) {
    t.Helper()
    for _, k := range configEnvKeys {
        unsetenv(t, k)
    }
}

func TestResolve_Precedence(t *testing.T) {
    clearConfigEnv(t)
    t.Setenv("LLM_MODEL", "env-model")
    t.Setenv("LLM_BASE_URL", "http://env.example/v1")

    var fc FileConfig
    fc.LLM.Model = "file-model"
    fc.LLM.BaseURL = "http://file.example/v1"
    fc.LLM.MaxTokens = 1500
    fc.Cache.Dir = "/tmp/file-cache"
    fc.Server.Port = 8080

    flags := Config{LLMModel: "flag-model"}
    cfg := Resolve(flags, &fc)

    if cfg.LLMModel != "flag-model" {
        t.Fatalf("LLMModel=%q, flags must win", cfg.LLMModel)
    }
    if cfg.LLMBaseURL != "http://env.example/v1" {
        t.Fatalf("LLMBaseURL=%q, env must beat file", cfg.LLMBaseURL)
    }
    if cfg.CacheDir != "/tmp/file-cache" || cfg.MaxTokens != 1500 || cfg.Port != 8080 {
        t.Fatalf("file values not applied: %+v", cfg)
    }
    if cfg.PromptProfile != DefaultPromptProfile || cfg.FetchTimeout != DefaultFetchTimeout {
        t.Fatalf("defaults not applied: %+v", cfg)
    }
}

func TestResolve_DefaultsWithoutFile(t *testing.T) {
    clearConfigEnv(t)
    cfg := Resolve(Config{}, nil)
    if cfg.Port != DefaultPort {
        t.Fatalf("Port=%d, want %d", cfg.Port, DefaultPort)
    }
    if len(cfg.EnvFiles) != 1 || cfg.EnvFiles[0] != ".env" {
        t.Fatalf("EnvFiles=%v, want [.env]", cfg.EnvFiles)
    }
    if cfg.ShutdownTimeout != DefaultShutdownTimeout {
        t.Fatalf("ShutdownTimeout=%v", cfg.ShutdownTimeout)
    }
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
    clearConfigEnv(t)
    t.Setenv("PORT", "4000")
    t.Setenv("DEEPSEEK_API_KEY", "sk-deep")
    t.Setenv("CACHE_DIR", "/tmp/headliner-cache")
    t.Setenv("CACHE_MAX_AGE", "48h")
    t.Setenv("RATE_LIMIT", "2.5")
    t.Setenv("STATIC_DIR", "public")
    t.Setenv("PROMPT_FILE", "prompt.md")
    t.Setenv("VERBOSE", "yes")

    var cfg Config
    ApplyEnvToConfig(&cfg)
    if cfg.Port != 4000 {
        t.Fatalf("Port=%d, want 4000", cfg.Port)
    }
    if cfg.LLMAPIKey != "sk-deep" {
        t.Fatalf("LLMAPIKey=%q, want DEEPSEEK_API_KEY fallback", cfg.LLMAPIKey)
    }
    if cfg.CacheDir != "/tmp/headliner-cache" || cfg.CacheMaxAge != 48*time.Hour {
        t.Fatalf("cache settings: %q %v", cfg.CacheDir, cfg.CacheMaxAge)
    }
    if cfg.RateLimit != 2.5 || cfg.StaticDir != "public" || cfg.PromptFile != "prompt.md" || !cfg.Verbose {
        t.Fatalf("unexpected cfg %+v", cfg)
    }
}

func TestApplyEnvToConfig_LLMKeyPreferred(t *testing.T) {
    clearConfigEnv(t)
    t.Setenv("LLM_API_KEY", "sk-llm")
    t.Setenv("DEEPSEEK_API_KEY", "sk-deep")
    var cfg Config
    ApplyEnvToConfig(&cfg)
    if cfg.LLMAPIKey != "sk-llm" {
        t.Fatalf("LLMAPIKey=%q, want sk-llm", cfg.LLMAPIKey)
    }
    cfg = Config{LLMAPIKey: "sk-flag"}
    ApplyEnvToConfig(&cfg)
    if cfg.LLMAPIKey != "sk-flag" {
        t.Fatalf("explicit key must not be replaced, got %q", cfg.LLMAPIKey)
    }
}

func TestApplyEnvToConfig_IgnoresGarbage(t *testing.T) {
    clearConfigEnv(t)
    t.Setenv("PORT", "eighty")
    t.Setenv("CACHE_MAX_AGE", "soon")
    t.Setenv("RATE_LIMIT", "-1")
    var cfg Config
    ApplyEnvToConfig(&cfg)
    if cfg.Port != 0 || cfg.CacheMaxAge != 0 || cfg.RateLimit != 0 {
        t.Fatalf("invalid env values must be ignored: %+v", cfg)
    }
}

func TestLoadConfigFile_YAML(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "headliner.yaml")
    body := `server:
  port: 9000
  rateLimit: 5
llm:
  base: https://api.deepseek.com
  model: deepseek-chat
  temperature: 0.7
  timeout: 90s
prompt:
  profile: english
cache:
  dir: .headliner-cache
  maxAge: 24h
  llm: true
  bypass: true
`
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
        t.Fatal(err)
    }
    fc, err := LoadConfigFile(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if fc.Server.Port != 9000 || fc.Server.RateLimit != 5 {
        t.Fatalf("server section: %+v", fc.Server)
    }
    if fc.LLM.Model != "deepseek-chat" || fc.LLM.Temperature != 0.7 || fc.LLM.Timeout != 90*time.Second {
        t.Fatalf("llm section: %+v", fc.LLM)
    }
    if fc.Prompt.Profile != "english" {
        t.Fatalf("prompt profile %q", fc.Prompt.Profile)
    }
    if fc.Cache.Dir != ".headliner-cache" || fc.Cache.MaxAge != 24*time.Hour || !fc.Cache.LLM || !fc.Cache.Bypass {
        t.Fatalf("cache section: %+v", fc.Cache)
    }
    var cfg Config
    ApplyFileConfig(&cfg, fc)
    if !cfg.CacheBypass || !cfg.LLMCache {
        t.Fatalf("file cache flags not applied: %+v", cfg)
    }
}

func TestLoadConfigFile_JSON(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "headliner.json")
    body := `{"llm":{"model":"gpt-4o-mini","maxTokens":1200},"server":{"staticDir":"public"}}`
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
        t.Fatal(err)
    }
    fc, err := LoadConfigFile(path)
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if fc.LLM.Model != "gpt-4o-mini" || fc.LLM.MaxTokens != 1200 || fc.Server.StaticDir != "public" {
        t.Fatalf("unexpected file config %+v", fc)
    }
}

func TestLoadConfigFile_Errors(t *testing.T) {
    dir := t.TempDir()
    if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
        t.Fatal("expected error for missing file")
    }
    bad := filepath.Join(dir, "bad.json")
    if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
        t.Fatal(err)
    }
    if _, err := LoadConfigFile(bad); err == nil {
        t.Fatal("expected parse error")
    }
}

func TestValidateConfig(t *testing.T) {
    dir := t.TempDir()
    prompt := filepath.Join(dir, "prompt.md")
    if err := os.WriteFile(prompt, []byte("{{content}}"), 0o644); err != nil {
        t.Fatal(err)
    }
    valid := Config{Port: 3000, Temperature: 0.8, TopP: 0.9, PromptFile: prompt}

    cases := []struct {
        name    string
        mutate  func(*Config)
        wantErr bool
    }{
        {"valid", func(*Config) {}, false},
        {"port zero", func(c *Config) { c.Port = 0 }, true},
        {"port too high", func(c *Config) { c.Port = 70000 }, true},
        {"temperature", func(c *Config) { c.Temperature = 2.5 }, true},
        {"top_p", func(c *Config) { c.TopP = 1.5 }, true},
        {"negative tokens", func(c *Config) { c.MaxTokens = -1 }, true},
        {"negative rate", func(c *Config) { c.RateLimit = -1 }, true},
        {"missing prompt file", func(c *Config) { c.PromptFile = filepath.Join(dir, "nope.md") }, true},
        {"llm cache without dir", func(c *Config) { c.LLMCache = true }, true},
        {"llm cache with dir", func(c *Config) { c.LLMCache = true; c.CacheDir = dir }, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            cfg := valid
            tc.mutate(&cfg)
            err := ValidateConfig(cfg)
            if (err != nil) != tc.wantErr {
                t.Fatalf("ValidateConfig err=%v, wantErr=%v", err, tc.wantErr)
            }
        })
    }
}
