package generate

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
)

// ConfigError reports a missing or malformed credential or setting. It is
// detected before any network call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "generator misconfigured: " + e.Reason }

// TransportError wraps failures to reach the upstream model at all.
type TransportError struct {
	Err     error
	Timeout bool
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return "model request timed out: " + e.Err.Error()
	}
	return "model request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Kind classifies an upstream rejection.
type Kind int

const (
	Rejected Kind = iota
	Unauthorized
	RateLimited
	ServerFault
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case RateLimited:
		return "rate_limited"
	case ServerFault:
		return "server_fault"
	case Malformed:
		return "malformed"
	default:
		return "rejected"
	}
}

// UpstreamError is a non-success answer from the model API, or a success
// answer without usable choices (Kind Malformed, StatusCode 200).
type UpstreamError struct {
	StatusCode int
	Kind       Kind
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("model api %s (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("model api %s (status %d): %s", e.Kind, e.StatusCode, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func kindForStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return Unauthorized
	case status == 429:
		return RateLimited
	case status >= 500:
		return ServerFault
	default:
		return Rejected
	}
}

// classify maps a go-openai client error onto the package error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Kind: kindForStatus(apiErr.HTTPStatusCode), Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Kind: kindForStatus(reqErr.HTTPStatusCode), Err: err}
	}
	return &TransportError{Err: err, Timeout: isTimeout(err)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
