package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/headliner/internal/cache"
	"github.com/hyperifyio/headliner/internal/extract"
	"github.com/hyperifyio/headliner/internal/fetch"
	"github.com/hyperifyio/headliner/internal/generate"
	"github.com/hyperifyio/headliner/internal/server"
	"github.com/hyperifyio/headliner/internal/template"
)

// App wires configuration into the generator, page fetcher and HTTP server.
type App struct {
	cfg     Config
	gen     *generate.Generator
	handler http.Handler
	srv     *http.Server
}

// New builds the application. A missing or malformed credential is returned
// as *generate.ConfigError so the caller can exit with a hint.
func New(ctx context.Context, cfg Config) (*App, error) {
	prompt, err := loadPrompt(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("prompt", prompt.Source()).Str("name", prompt.Name()).Msg("prompt template loaded")

	llmClient := newHTTPClient(cfg.LLMTimeout)
	gen, err := generate.New(generate.Config{
		BaseURL:       cfg.LLMBaseURL,
		Model:         cfg.LLMModel,
		APIKey:        cfg.LLMAPIKey,
		KeyPrefix:     cfg.KeyPrefix,
		Temperature:   float32(cfg.Temperature),
		MaxTokens:     cfg.MaxTokens,
		TopP:          float32(cfg.TopP),
		Timeout:       cfg.LLMTimeout,
		MaxConcurrent: cfg.MaxConcurrent,
		HTTPClient:    llmClient,
	}, prompt)
	if err != nil {
		return nil, err
	}

	if cfg.Preflight {
		preflight(ctx, gen)
	}

	pages := &fetch.Client{
		HTTPClient:        newHTTPClient(cfg.FetchTimeout),
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.FetchTimeout,
		MaxAttempts:       2,
		MaxConcurrent:     cfg.MaxConcurrent,
		BypassCache:       cfg.CacheBypass,
	}

	if cfg.CacheDir != "" {
		prepareCache(cfg)
		pages.Cache = &cache.HTTPCache{Dir: httpCacheDir(cfg), StrictPerms: cfg.CacheStrictPerms}
		if cfg.LLMCache {
			gen.Cache = &cache.LLMCache{Dir: llmCacheDir(cfg), StrictPerms: cfg.CacheStrictPerms}
		}
	}

	s := server.New(server.Config{
		StaticDir: cfg.StaticDir,
		UploadDir: cfg.UploadDir,
		RateLimit: cfg.RateLimit,
	}, gen, &extract.Web{Fetcher: pages})

	a := &App{cfg: cfg, gen: gen, handler: s.Handler()}
	a.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("model", gen.Model()).Str("base", cfg.LLMBaseURL).Bool("cache", cfg.CacheDir != "").Msg("headliner configured")
	return a, nil
}

// preflight is best-effort: an unreachable upstream is logged and startup
// continues, so the first request surfaces the real error.
func preflight(ctx context.Context, gen *generate.Generator) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	n, err := gen.Preflight(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if n == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", n).Msg("LLM models available")
}

func loadPrompt(cfg Config) (template.Prompt, error) {
	if strings.TrimSpace(cfg.PromptFile) != "" {
		return template.Load(cfg.PromptFile)
	}
	return template.FromProfile(cfg.PromptProfile), nil
}

func httpCacheDir(cfg Config) string { return filepath.Join(cfg.CacheDir, "http") }
func llmCacheDir(cfg Config) string  { return filepath.Join(cfg.CacheDir, "llm") }

// prepareCache applies the invalidation controls once at startup. Errors are
// logged and never fail startup.
func prepareCache(cfg Config) {
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		nh, _ := cache.PurgeHTTPCacheByAge(httpCacheDir(cfg), cfg.CacheMaxAge)
		nl, _ := cache.PurgeLLMCacheByAge(llmCacheDir(cfg), cfg.CacheMaxAge)
		log.Debug().Int("http", nh).Int("llm", nl).Msg("cache purged by age")
	}
	enforceCacheLimits(cfg)
}

func enforceCacheLimits(cfg Config) {
	if cfg.CacheDir == "" || (cfg.CacheMaxBytes <= 0 && cfg.CacheMaxCount <= 0) {
		return
	}
	nh, _ := cache.EnforceHTTPCacheLimits(httpCacheDir(cfg), cfg.CacheMaxBytes, cfg.CacheMaxCount)
	nl, _ := cache.EnforceLLMCacheLimits(llmCacheDir(cfg), cfg.CacheMaxBytes, cfg.CacheMaxCount)
	if nh+nl > 0 {
		log.Info().Int("http", nh).Int("llm", nl).Msg("cache entries evicted")
	}
}

// Handler exposes the HTTP handler, mostly for tests.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests for
// at most ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.srv.Addr).Msg("listening")
		errc <- a.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ReloadCredential re-reads the dotenv files and swaps the generator's API
// key. The previous key stays active when the new one is rejected.
func (a *App) ReloadCredential() error {
	key, err := ReloadAPIKey(a.cfg.EnvFiles...)
	if err != nil {
		return err
	}
	return a.gen.SetAPIKey(key)
}

// Close trims the cache to its configured limits.
func (a *App) Close() {
	enforceCacheLimits(a.cfg)
}
