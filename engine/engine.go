package engine

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "chrome-tls", "http").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL       string
	UserAgent string
	Headers   map[string]string
	Timeout   time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	EngineName string
}

// Options are shared by the HTTP-based engines.
type Options struct {
	// MaxBodyBytes caps the decoded body size. Zero means 10 MiB.
	MaxBodyBytes int64

	// Proxy routes requests through the given proxy URL.
	Proxy string
}

func (o Options) maxBody() int64 {
	if o.MaxBodyBytes <= 0 {
		return 10 << 20
	}
	return o.MaxBodyBytes
}

// ErrNotHTML is returned when a response is not an HTML document.
var ErrNotHTML = errors.New("engine: response is not html")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("engine: %s returned HTTP %d", e.URL, e.StatusCode)
}

// Definitive reports whether retrying the same URL cannot help.
func (e *StatusError) Definitive() bool {
	switch e.StatusCode {
	case http.StatusNotFound, http.StatusGone, http.StatusBadRequest,
		http.StatusMethodNotAllowed, http.StatusUnavailableForLegalReasons:
		return true
	}
	return false
}

// Blocked reports whether the status is how sites turn away clients they
// take for bots, which a different engine may get past.
func (e *StatusError) Blocked() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotAcceptable,
		http.StatusTooManyRequests:
		return true
	}
	return false
}

// StatusCodeOf extracts the HTTP status from err, or 0 if none.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsDefinitive reports whether err is a status that no retry or engine
// switch will change.
func IsDefinitive(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Definitive()
}

// Escalates reports whether err from one engine justifies trying the next
// for the same request: a transport or TLS failure, or a blocking status.
// Other statuses and non-HTML bodies come from the site itself and would
// be repeated by every engine.
func Escalates(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Blocked()
	}
	return !errors.Is(err, ErrNotHTML)
}

// browserHeaders are sent with every request; per-request headers win.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9,es;q=0.8,fr;q=0.7",
	"Accept-Encoding":           "gzip, deflate, br",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
}

// newGetRequest builds a browser-like GET request.
func newGetRequest(ctx context.Context, req *FetchRequest) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: build request: %w", err)
	}
	for k, v := range browserHeaders {
		httpReq.Header.Set(k, v)
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// readHTML validates status and content type and returns the decoded body.
func readHTML(resp *http.Response, reqURL string, maxBody int64) (string, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !isHTMLContentType(ct) {
		return "", fmt.Errorf("%w (content-type: %s)", ErrNotHTML, ct)
	}
	body, err := decodeBody(resp, maxBody)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// decodeBody undoes Content-Encoding and reads at most maxBody bytes.
func decodeBody(resp *http.Response, maxBody int64) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("engine: gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBody))
	if err != nil {
		return nil, fmt.Errorf("engine: read body: %w", err)
	}
	return body, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
