package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be fetched according to the
// host's robots.txt. Rules are cached per host. Any failure to obtain or
// parse robots.txt allows the fetch.
type RobotsChecker struct {
	client    *http.Client
	pacer     Pacer
	userAgent string
	ttl       time.Duration

	mu    sync.Mutex
	rules map[string]robotsEntry
}

// robotsEntry is a cached lookup. A failed lookup is cached too, with
// err set, so an unreachable host is asked once per ttl.
type robotsEntry struct {
	data      *robotstxt.RobotsData
	err       error
	fetchedAt time.Time
}

// NewRobotsChecker creates a RobotsChecker. userAgent selects the robots
// group; pacer (optional) spaces the robots.txt request like any other.
func NewRobotsChecker(userAgent string, pacer Pacer, ttl time.Duration) *RobotsChecker {
	return &RobotsChecker{
		client:    &http.Client{Timeout: 10 * time.Second},
		pacer:     pacer,
		userAgent: userAgent,
		ttl:       ttl,
		rules:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether rawURL may be fetched.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return false
	}

	data, err := r.rulesFor(ctx, target)
	if err != nil {
		slog.Debug("robots.txt unavailable, allowing", "host", target.Host, "error", err)
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsChecker) rulesFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	key := strings.ToLower(target.Scheme + "://" + target.Host)

	r.mu.Lock()
	entry, ok := r.rules[key]
	r.mu.Unlock()
	if ok && time.Since(entry.fetchedAt) < r.ttl {
		return entry.data, entry.err
	}

	data, err := r.fetch(ctx, key, target.Hostname())
	if err != nil && ctx.Err() != nil {
		// The caller gave up; the host said nothing about its rules.
		return nil, err
	}

	r.mu.Lock()
	r.rules[key] = robotsEntry{data: data, err: err, fetchedAt: time.Now()}
	r.mu.Unlock()
	return data, err
}

func (r *RobotsChecker) fetch(ctx context.Context, origin, host string) (*robotstxt.RobotsData, error) {
	if r.pacer != nil {
		if err := r.pacer.Wait(ctx, host); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("robots: build request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, fmt.Errorf("robots: read: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("robots: status %d", resp.StatusCode)
	}

	// 4xx means no robots.txt, which FromStatusAndBytes maps to allow-all.
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("robots: parse: %w", err)
	}
	return data, nil
}
