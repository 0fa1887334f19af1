package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/headliner/internal/fetch"
)

// PageFetcher returns a page decoded to UTF-8. *fetch.Client implements it.
type PageFetcher interface {
	GetHTML(ctx context.Context, rawURL string) (string, error)
}

// Web fetches article pages and reduces them to plain text.
type Web struct {
	Fetcher PageFetcher
}

// ParseURL accepts absolute http and https URLs only.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fail("URL is empty", nil)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fail("invalid URL", err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return nil, fail("only http and https URLs are supported", nil)
	}
	return u, nil
}

// FetchContent returns the cleaned main text of the page at rawURL.
func (w *Web) FetchContent(ctx context.Context, rawURL string) (string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	html, err := w.Fetcher.GetHTML(ctx, u.String())
	if err != nil {
		return "", describeFetchError(err)
	}
	text, err := FinishWebText(SelectMainText(html, u))
	if err != nil {
		return "", err
	}
	log.Debug().Str("stage", "fetch").Str("host", u.Host).Int("chars", runeLen(text)).Msg("page content extracted")
	return text, nil
}

// FetchTitle returns the title of the page at rawURL.
func (w *Web) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	html, err := w.Fetcher.GetHTML(ctx, u.String())
	if err != nil {
		return "", describeFetchError(err)
	}
	title := PageTitle(html)
	if title == "" {
		return "", fail("page has no title", nil)
	}
	return title, nil
}

// describeFetchError turns network failures into reasons a user can act on.
func describeFetchError(err error) error {
	var dnsErr *net.DNSError
	var statusErr *fetch.StatusError
	var ne net.Error
	var ctErr *fetch.ContentTypeError
	if errors.As(err, &ctErr) {
		return &Error{Reason: "URL is not an HTML page", Err: err}
	}
	reason := "failed to fetch URL"
	switch {
	case errors.As(err, &dnsErr):
		reason = "could not resolve host, check the URL"
	case errors.Is(err, syscall.ECONNREFUSED):
		reason = "connection refused, the site may be unreachable"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		reason = "request timed out, try again later"
	case errors.As(err, &statusErr):
		reason = fmt.Sprintf("HTTP error %d: %s", statusErr.Code, http.StatusText(statusErr.Code))
	case errors.Is(err, fetch.ErrBodyTooLarge):
		reason = "page is too large"
	}
	return &Error{Reason: reason, Err: err, Remote: true}
}
