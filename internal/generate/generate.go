// Package generate turns article content into ranked headline records by
// sending one chat completion request to an OpenAI-compatible API and
// parsing the answer.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/hyperifyio/headliner/internal/budget"
	"github.com/hyperifyio/headliner/internal/cache"
	"github.com/hyperifyio/headliner/internal/llm"
	"github.com/hyperifyio/headliner/internal/template"
	"github.com/hyperifyio/headliner/internal/titles"
)

const (
	DefaultBaseURL     = "https://api.deepseek.com"
	DefaultModel       = "deepseek-chat"
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 2000
	DefaultTopP        = 0.9
	DefaultTimeout     = 60 * time.Second
)

// ErrEmptyContent is returned when Generate is called without content.
var ErrEmptyContent = errors.New("content is empty")

// Config holds everything needed to reach the model.
type Config struct {
	BaseURL   string
	Model     string
	APIKey    string
	KeyPrefix string

	Temperature float32
	MaxTokens   int
	TopP        float32
	Timeout     time.Duration

	// MaxConcurrent caps in-flight upstream calls; 0 means unlimited.
	MaxConcurrent int
	HTTPClient    *http.Client
}

// DefaultConfig returns the DeepSeek defaults without a credential.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		KeyPrefix:   DefaultKeyPrefix,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
		Timeout:     DefaultTimeout,
	}
}

// Generator is safe for concurrent use. The prompt template is fixed at
// construction; the credential can be swapped with SetAPIKey.
type Generator struct {
	cfg    Config
	prompt template.Prompt
	sem    *semaphore.Weighted

	// Cache, when set, short-circuits identical requests.
	Cache *cache.LLMCache

	mu     sync.RWMutex
	client llm.Client
}

// New validates cfg and builds a Generator backed by go-openai. It returns a
// *ConfigError when the credential is missing or malformed.
func New(cfg Config, prompt template.Prompt) (*Generator, error) {
	cfg = withDefaults(cfg)
	key, err := validateKey(cfg.APIKey, cfg.KeyPrefix)
	if err != nil {
		return nil, err
	}
	cfg.APIKey = key
	return NewWithClient(cfg, prompt, llm.NewOpenAIProvider(cfg.BaseURL, key, cfg.HTTPClient))
}

// NewWithClient builds a Generator on an existing client without credential
// checks.
func NewWithClient(cfg Config, prompt template.Prompt, client llm.Client) (*Generator, error) {
	cfg = withDefaults(cfg)
	if prompt.IsZero() {
		return nil, &ConfigError{Reason: "prompt template is empty"}
	}
	g := &Generator{cfg: cfg, prompt: prompt, client: client}
	if cfg.MaxConcurrent > 0 {
		g.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return g, nil
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = d.BaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = d.Model
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = d.KeyPrefix
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = d.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = d.MaxTokens
	}
	if cfg.TopP == 0 {
		cfg.TopP = d.TopP
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	return cfg
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.cfg.Model }

// SetAPIKey validates key and swaps the upstream client. In-flight calls
// finish with the old credential.
func (g *Generator) SetAPIKey(key string) error {
	if g == nil {
		return &ConfigError{Reason: "generator is nil"}
	}
	k, err := validateKey(key, g.cfg.KeyPrefix)
	if err != nil {
		return err
	}
	client := llm.NewOpenAIProvider(g.cfg.BaseURL, k, g.cfg.HTTPClient)
	g.mu.Lock()
	g.cfg.APIKey = k
	g.client = client
	g.mu.Unlock()
	log.Info().Str("stage", "generate").Msg("api key reloaded")
	return nil
}

func (g *Generator) currentClient() llm.Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.client
}

// Generate sends content to the model and returns between 1 and 10 ranked
// records. One upstream call per invocation, no retry.
func (g *Generator) Generate(ctx context.Context, content string) ([]titles.Record, error) {
	if g == nil {
		return nil, &ConfigError{Reason: "generator is not configured"}
	}
	client := g.currentClient()
	if client == nil {
		return nil, &ConfigError{Reason: "API key is not set (DEEPSEEK_API_KEY or LLM_API_KEY)"}
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	fitted, cut := budget.FitContent(g.cfg.Model, g.cfg.MaxTokens, g.prompt.Overhead(), content)
	if cut {
		log.Warn().Str("stage", "generate").Int("chars", len([]rune(content))).Int("kept", len([]rune(fitted))).Msg("content trimmed to fit model context")
	}
	prompt := g.prompt.Render(fitted)

	key := cache.KeyFrom(g.cfg.Model, prompt,
		strconv.FormatFloat(float64(g.cfg.Temperature), 'f', -1, 32),
		strconv.FormatFloat(float64(g.cfg.TopP), 'f', -1, 32),
		strconv.Itoa(g.cfg.MaxTokens))
	if recs, ok := g.cached(ctx, key); ok {
		log.Debug().Str("stage", "generate").Int("titles", len(recs)).Msg("cache hit")
		return recs, nil
	}

	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return nil, &TransportError{Err: err, Timeout: isTimeout(err)}
		}
		defer g.sem.Release(1)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	start := time.Now()
	resp, err := client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
		TopP:        g.cfg.TopP,
	})
	if err != nil {
		cerr := classify(err)
		log.Warn().Str("stage", "generate").Dur("elapsed", time.Since(start)).Err(cerr).Msg("model call failed")
		return nil, cerr
	}
	if len(resp.Choices) == 0 {
		return nil, &UpstreamError{StatusCode: http.StatusOK, Kind: Malformed, Message: "response has no choices"}
	}
	raw := resp.Choices[0].Message.Content

	recs, tier, err := titles.ParseTiered(raw)
	if err != nil {
		log.Warn().Str("stage", "generate").Int("chars", len([]rune(raw))).Msg("no titles recoverable from model answer")
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	log.Info().Str("stage", "generate").Str("tier", tier.String()).Int("titles", len(recs)).
		Int("total_tokens", resp.Usage.TotalTokens).Dur("elapsed", time.Since(start)).Msg("titles generated")

	g.store(ctx, key, recs)
	return recs, nil
}

func (g *Generator) cached(ctx context.Context, key string) ([]titles.Record, bool) {
	if g.Cache == nil {
		return nil, false
	}
	raw, ok, err := g.Cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var recs []titles.Record
	if err := json.Unmarshal(raw, &recs); err != nil || len(recs) == 0 {
		return nil, false
	}
	return recs, true
}

func (g *Generator) store(ctx context.Context, key string, recs []titles.Record) {
	if g.Cache == nil {
		return
	}
	payload, err := json.Marshal(recs)
	if err != nil {
		return
	}
	if err := g.Cache.Save(ctx, key, payload); err != nil {
		log.Debug().Str("stage", "generate").Err(err).Msg("cache save failed")
	}
}

// Preflight lists the upstream models when the client supports it. It
// reports how many models the endpoint exposes; clients without the
// capability return 0 and no error.
func (g *Generator) Preflight(ctx context.Context) (int, error) {
	if g == nil || g.currentClient() == nil {
		return 0, &ConfigError{Reason: "generator is not configured"}
	}
	lister, ok := g.currentClient().(llm.ModelLister)
	if !ok {
		return 0, nil
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return 0, classify(err)
	}
	return len(models.Models), nil
}
