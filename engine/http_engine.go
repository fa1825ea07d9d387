package engine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
)

// ChromeTLSEngine presents a Chrome ClientHello on HTTPS connections so
// sites that block on TLS fingerprints see a browser rather than Go.
// Plain-HTTP URLs go through the default dialer.
type ChromeTLSEngine struct {
	client *http.Client
	opts   Options
}

// chromeH1Spec builds a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. Specs hold mutable extension state, so each connection
// gets its own.
func chromeH1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	// http.Transport cannot speak h2 over a utls conn, so advertise h1 only.
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			break
		}
	}
	return &spec, nil
}

// NewChromeTLSEngine creates a ChromeTLSEngine.
func NewChromeTLSEngine(opts Options) (*ChromeTLSEngine, error) {
	transport := &http.Transport{
		DialTLSContext:      dialChromeTLS,
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("chrome_tls: parse proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &ChromeTLSEngine{
		client: &http.Client{Transport: transport, CheckRedirect: limitRedirects},
		opts:   opts,
	}, nil
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	spec, err := chromeH1Spec()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("chrome_tls: build tls spec: %w", err)
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("chrome_tls: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("too many redirects")
	}
	return nil
}

func (e *ChromeTLSEngine) Name() string { return "chrome-tls" }

func (e *ChromeTLSEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := newGetRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chrome_tls: do request: %w", err)
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
