package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Cache     CacheConfig     `yaml:"cache"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Batch     BatchConfig     `yaml:"batch"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// FetcherConfig controls how target pages are retrieved.
type FetcherConfig struct {
	// MinDomainInterval is the minimum spacing between two requests to
	// the same host.
	MinDomainInterval time.Duration `yaml:"min_domain_interval"` // default: 2s

	// MaxAttempts is the total number of tries per URL, first try included.
	MaxAttempts int `yaml:"max_attempts"` // default: 3

	// BackoffBase and BackoffJitter shape the retry delay:
	// base * 2^attempt + rand[0, jitter).
	BackoffBase   time.Duration `yaml:"backoff_base"`   // default: 1s
	BackoffJitter time.Duration `yaml:"backoff_jitter"` // default: 1s

	// RequestTimeout bounds a single engine attempt.
	RequestTimeout time.Duration `yaml:"request_timeout"` // default: 15s

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes"` // default: 10 MiB

	// UserAgents is the pool a user-agent is drawn from for each request.
	UserAgents []string `yaml:"user_agents"`

	// Engines lists fetch engines in escalation order.
	// Known: "chrome-tls", "http".
	Engines []string `yaml:"engines"` // default: [chrome-tls, http]

	// EngineMemoryTTL is how long a domain remembers its winning engine.
	EngineMemoryTTL time.Duration `yaml:"engine_memory_ttl"` // default: 1h

	// Proxy routes all fetches through the given proxy URL.
	Proxy string `yaml:"proxy"`
}

// CacheConfig controls the fetched-page cache.
type CacheConfig struct {
	// TTL is how long a fetched body is served without a network call.
	TTL time.Duration `yaml:"ttl"` // default: 30m

	// MaxEntries is the maximum number of cached pages.
	MaxEntries int `yaml:"max_entries"` // default: 1000
}

// DiscoveryConfig controls related-page expansion.
type DiscoveryConfig struct {
	// DefaultMaxPages is used when the caller does not supply a budget.
	DefaultMaxPages int `yaml:"default_max_pages"` // default: 3

	// MaxPagesLimit caps any caller-supplied budget.
	MaxPagesLimit int `yaml:"max_pages_limit"` // default: 10

	// RespectRobots skips related pages disallowed by robots.txt.
	RespectRobots bool `yaml:"respect_robots"` // default: true
}

// EnrichConfig controls alternative-source enrichment.
type EnrichConfig struct {
	Enabled bool `yaml:"enabled"` // default: true

	// Wayback toggles the web archive snapshot lookup.
	Wayback bool `yaml:"wayback"` // default: true

	// WaybackEndpoint is the CDX search API.
	WaybackEndpoint string `yaml:"wayback_endpoint"`

	// WaybackTimeout bounds the CDX lookup.
	WaybackTimeout time.Duration `yaml:"wayback_timeout"` // default: 10s

	// WaybackLimit is the number of captures requested.
	WaybackLimit int `yaml:"wayback_limit"` // default: 5
}

// BatchConfig controls asynchronous batch scraping.
type BatchConfig struct {
	// Concurrency is the number of URLs scraped in parallel per batch.
	Concurrency int `yaml:"concurrency"` // default: 4

	// JobTTL is how long finished batch results are retained.
	JobTTL time.Duration `yaml:"job_ttl"` // default: 1h
}

// RateLimitConfig controls per-client rate limiting of the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 2

	// Burst is the maximum burst size per client.
	Burst int `yaml:"burst"` // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// DefaultUserAgents is the rotation pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080, Mode: "release"},
		Fetcher: FetcherConfig{
			MinDomainInterval: 2 * time.Second,
			MaxAttempts:       3,
			BackoffBase:       time.Second,
			BackoffJitter:     time.Second,
			RequestTimeout:    15 * time.Second,
			MaxBodyBytes:      10 << 20,
			UserAgents:        append([]string(nil), DefaultUserAgents...),
			Engines:           []string{"chrome-tls", "http"},
			EngineMemoryTTL:   time.Hour,
		},
		Cache:     CacheConfig{TTL: 30 * time.Minute, MaxEntries: 1000},
		Discovery: DiscoveryConfig{DefaultMaxPages: 3, MaxPagesLimit: 10, RespectRobots: true},
		Enrich: EnrichConfig{
			Enabled:         true,
			Wayback:         true,
			WaybackEndpoint: "https://web.archive.org/cdx/search/cdx",
			WaybackTimeout:  10 * time.Second,
			WaybackLimit:    5,
		},
		Batch:     BatchConfig{Concurrency: 4, JobTTL: time.Hour},
		RateLimit: RateLimitConfig{RequestsPerSecond: 2, Burst: 5},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by RIVALSCOPE_CONFIG, and finally RIVALSCOPE_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("RIVALSCOPE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = envOr("RIVALSCOPE_HOST", c.Server.Host)
	c.Server.Port = envIntOr("RIVALSCOPE_PORT", c.Server.Port)
	c.Server.Mode = envOr("RIVALSCOPE_MODE", c.Server.Mode)

	f := &c.Fetcher
	f.MinDomainInterval = envDurationOr("RIVALSCOPE_DOMAIN_INTERVAL", f.MinDomainInterval)
	f.MaxAttempts = envIntOr("RIVALSCOPE_MAX_ATTEMPTS", f.MaxAttempts)
	f.BackoffBase = envDurationOr("RIVALSCOPE_BACKOFF_BASE", f.BackoffBase)
	f.BackoffJitter = envDurationOr("RIVALSCOPE_BACKOFF_JITTER", f.BackoffJitter)
	f.RequestTimeout = envDurationOr("RIVALSCOPE_REQUEST_TIMEOUT", f.RequestTimeout)
	f.UserAgents = envListOr("RIVALSCOPE_USER_AGENTS", "|", f.UserAgents) // UAs contain commas
	f.Engines = envSliceOr("RIVALSCOPE_ENGINES", f.Engines)
	f.EngineMemoryTTL = envDurationOr("RIVALSCOPE_ENGINE_MEMORY_TTL", f.EngineMemoryTTL)
	f.Proxy = envOr("RIVALSCOPE_PROXY", f.Proxy)

	c.Cache.TTL = envDurationOr("RIVALSCOPE_CACHE_TTL", c.Cache.TTL)
	c.Cache.MaxEntries = envIntOr("RIVALSCOPE_CACHE_MAX_ENTRIES", c.Cache.MaxEntries)

	c.Discovery.DefaultMaxPages = envIntOr("RIVALSCOPE_MAX_PAGES", c.Discovery.DefaultMaxPages)
	c.Discovery.MaxPagesLimit = envIntOr("RIVALSCOPE_MAX_PAGES_LIMIT", c.Discovery.MaxPagesLimit)
	c.Discovery.RespectRobots = envBoolOr("RIVALSCOPE_RESPECT_ROBOTS", c.Discovery.RespectRobots)

	c.Enrich.Enabled = envBoolOr("RIVALSCOPE_ENRICH", c.Enrich.Enabled)
	c.Enrich.Wayback = envBoolOr("RIVALSCOPE_WAYBACK", c.Enrich.Wayback)
	c.Enrich.WaybackEndpoint = envOr("RIVALSCOPE_WAYBACK_ENDPOINT", c.Enrich.WaybackEndpoint)
	c.Enrich.WaybackTimeout = envDurationOr("RIVALSCOPE_WAYBACK_TIMEOUT", c.Enrich.WaybackTimeout)

	c.Batch.Concurrency = envIntOr("RIVALSCOPE_BATCH_CONCURRENCY", c.Batch.Concurrency)
	c.Batch.JobTTL = envDurationOr("RIVALSCOPE_BATCH_JOB_TTL", c.Batch.JobTTL)

	c.RateLimit.RequestsPerSecond = envFloatOr("RIVALSCOPE_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("RIVALSCOPE_RATE_BURST", c.RateLimit.Burst)

	c.Log.Level = envOr("RIVALSCOPE_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("RIVALSCOPE_LOG_FORMAT", c.Log.Format)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Fetcher.MaxAttempts < 1:
		return fmt.Errorf("config: fetcher.max_attempts must be >= 1, got %d", c.Fetcher.MaxAttempts)
	case c.Fetcher.MinDomainInterval < 0:
		return fmt.Errorf("config: fetcher.min_domain_interval must not be negative")
	case len(c.Fetcher.UserAgents) == 0:
		return fmt.Errorf("config: fetcher.user_agents must not be empty")
	case len(c.Fetcher.Engines) == 0:
		return fmt.Errorf("config: fetcher.engines must not be empty")
	case c.Discovery.MaxPagesLimit < c.Discovery.DefaultMaxPages:
		return fmt.Errorf("config: discovery.max_pages_limit (%d) is below default_max_pages (%d)",
			c.Discovery.MaxPagesLimit, c.Discovery.DefaultMaxPages)
	case c.Cache.MaxEntries < 1:
		return fmt.Errorf("config: cache.max_entries must be >= 1")
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	return envListOr(key, ",", fallback)
}

func envListOr(key, sep string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, sep)
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
