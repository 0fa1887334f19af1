package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/headliner/internal/extract"
	"github.com/hyperifyio/headliner/internal/generate"
	"github.com/hyperifyio/headliner/internal/titles"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// writeExtractError maps URL extraction failures: problems with the input
// are 400, failures of the remote site are 502.
func writeExtractError(w http.ResponseWriter, r *http.Request, err error) {
	var xe *extract.Error
	if errors.As(err, &xe) {
		code := http.StatusBadRequest
		if xe.Remote {
			code = http.StatusBadGateway
		}
		hlog.FromRequest(r).Info().Err(err).Str("stage", "fetch").Int("status", code).Msg("url extraction failed")
		writeJSONError(w, code, xe.Reason)
		return
	}
	hlog.FromRequest(r).Error().Err(err).Str("stage", "fetch").Msg("url extraction failed")
	writeJSONError(w, http.StatusInternalServerError, "failed to fetch URL content")
}

// writeGenerateError maps the generator error taxonomy onto HTTP statuses.
func writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := generateErrorStatus(err)
	ev := hlog.FromRequest(r).Warn()
	if code >= 500 && code != http.StatusBadGateway && code != http.StatusGatewayTimeout {
		ev = hlog.FromRequest(r).Error()
	}
	ev.Err(err).Str("stage", "generate").Int("status", code).Msg("title generation failed")
	if code == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "30")
	}
	writeJSONError(w, code, msg)
}

func generateErrorStatus(err error) (int, string) {
	var ce *generate.ConfigError
	var ue *generate.UpstreamError
	var te *generate.TransportError
	switch {
	case errors.As(err, &ce):
		return http.StatusInternalServerError, "server is not configured for title generation: " + ce.Reason
	case errors.As(err, &ue):
		switch ue.Kind {
		case generate.Unauthorized:
			return http.StatusBadGateway, "model API rejected the API key, check DEEPSEEK_API_KEY"
		case generate.RateLimited:
			return http.StatusTooManyRequests, "model API rate limit exceeded, try again later"
		case generate.ServerFault:
			return http.StatusBadGateway, "model API server error, try again later"
		case generate.Malformed:
			return http.StatusBadGateway, "model API returned a malformed response"
		default:
			if ue.Message != "" {
				return http.StatusBadGateway, fmt.Sprintf("model API error (%d): %s", ue.StatusCode, ue.Message)
			}
			return http.StatusBadGateway, fmt.Sprintf("model API error (%d)", ue.StatusCode)
		}
	case errors.As(err, &te):
		if te.Timeout {
			return http.StatusGatewayTimeout, "model API request timed out, try again later"
		}
		return http.StatusBadGateway, "could not reach the model API"
	case errors.Is(err, titles.ErrParseFailure):
		return http.StatusBadGateway, "could not parse titles from the model response, try again"
	case errors.Is(err, generate.ErrEmptyContent):
		return http.StatusBadRequest, "content is required"
	default:
		return http.StatusInternalServerError, "title generation failed"
	}
}
