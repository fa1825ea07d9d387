package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StdEngine fetches with Go's own TLS stack and HTTP/2 support. It is the
// fallback when a site rejects or resets the Chrome-fingerprinted handshake.
type StdEngine struct {
	client *http.Client
	opts   Options
}

// NewStdEngine creates a StdEngine.
func NewStdEngine(opts Options) (*StdEngine, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 90 * time.Second
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("http_engine: parse proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &StdEngine{
		client: &http.Client{Transport: transport, CheckRedirect: limitRedirects},
		opts:   opts,
	}, nil
}

func (e *StdEngine) Name() string { return "http" }

func (e *StdEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := newGetRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readHTML(resp, req.URL, e.opts.maxBody())
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		HTML:       body,
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

// Build constructs engines by name, in the given order.
func Build(names []string, opts Options) ([]Engine, error) {
	engines := make([]Engine, 0, len(names))
	for _, name := range names {
		var (
			eng Engine
			err error
		)
		switch name {
		case "chrome-tls":
			eng, err = NewChromeTLSEngine(opts)
		case "http":
			eng, err = NewStdEngine(opts)
		default:
			return nil, fmt.Errorf("engine: unknown engine %q", name)
		}
		if err != nil {
			return nil, err
		}
		engines = append(engines, eng)
	}
	return engines, nil
}
