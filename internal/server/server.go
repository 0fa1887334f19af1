// Package server exposes extraction and headline generation over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/headliner/internal/titles"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultMaxJSONBytes   = 50 << 20
	// MinContentChars is the shortest article accepted for generation.
	MinContentChars = 100

	// multipart framing around the file part
	multipartOverhead = 1 << 20
)

// TitleGenerator produces ranked headline records for an article.
type TitleGenerator interface {
	Generate(ctx context.Context, content string) ([]titles.Record, error)
}

// PageReader fetches article text and page titles from URLs.
type PageReader interface {
	FetchContent(ctx context.Context, rawURL string) (string, error)
	FetchTitle(ctx context.Context, rawURL string) (string, error)
}

// Config controls limits and optional features of the HTTP surface.
type Config struct {
	// StaticDir, when set, is served at /.
	StaticDir string
	// UploadDir holds uploads while they are extracted. Defaults to os.TempDir().
	UploadDir      string
	MaxUploadBytes int64
	MaxJSONBytes   int64
	// RateLimit is the sustained request rate for POST endpoints, per second.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server wires handlers to their dependencies.
type Server struct {
	cfg     Config
	gen     TitleGenerator
	pages   PageReader
	limiter *rate.Limiter
	now     func() time.Time
}

// New returns a Server. gen and pages must be non-nil.
func New(cfg Config, gen TitleGenerator, pages PageReader) *Server {
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxJSONBytes <= 0 {
		cfg.MaxJSONBytes = DefaultMaxJSONBytes
	}
	s := &Server{cfg: cfg, gen: gen, pages: pages, now: time.Now}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

// Handler returns the routed handler with access logging, CORS and rate
// limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/extract-content", s.handleExtractContent)
	mux.HandleFunc("POST /api/fetch-url", s.handleFetchURL)
	mux.HandleFunc("POST /api/get-page-title", s.handlePageTitle)
	mux.HandleFunc("POST /api/generate-titles", s.handleGenerateTitles)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = cors(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		ev := hlog.FromRequest(r).Info()
		if status >= 500 {
			ev = hlog.FromRequest(r).Warn()
		}
		ev.Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(log.Logger)(h)
	return h
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.limiter.Allow() {
			hlog.FromRequest(r).Warn().Str("stage", "server").Msg("rate limited")
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
