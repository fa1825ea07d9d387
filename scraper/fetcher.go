package scraper

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/use-agent/rivalscope/cache"
	"github.com/use-agent/rivalscope/config"
	"github.com/use-agent/rivalscope/engine"
	"github.com/use-agent/rivalscope/models"
)

// Dispatcher fetches one request through the available engines.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error)
}

// Fetcher retrieves pages with caching, retries and user-agent rotation.
// Per-domain pacing happens inside the dispatcher, once per engine
// attempt. Concurrent fetches of the same URL share a single request.
type Fetcher struct {
	cfg        config.FetcherConfig
	pages      *cache.Cache
	dispatcher Dispatcher
	group      singleflight.Group

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher. pages may be nil to disable caching.
func NewFetcher(cfg config.FetcherConfig, pages *cache.Cache, d Dispatcher) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		pages:      pages,
		dispatcher: d,
		sleep:      sleepCtx,
	}
}

// Fetch returns the page at rawURL. A cached copy within its TTL is
// returned without touching the network. After MaxAttempts failures the
// error is a *models.FetchError carrying the last status and cause.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.Page, error) {
	if f.pages != nil {
		if page, ok := f.pages.Get(rawURL); ok {
			slog.Debug("cache hit", "url", rawURL)
			return page, nil
		}
	}

	v, err, shared := f.group.Do(cache.Key(rawURL), func() (interface{}, error) {
		// A fetch for the same key may have completed since the lookup above.
		if f.pages != nil {
			if page, ok := f.pages.Get(rawURL); ok {
				return page, nil
			}
		}
		return f.fetchWithRetry(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("joined in-flight fetch", "url", rawURL)
	}
	return v.(*models.Page), nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string) (*models.Page, error) {
	attempts := max(f.cfg.MaxAttempts, 1)

	var (
		lastErr error
		tried   int
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt - 1)
			slog.Debug("retrying fetch", "url", rawURL, "attempt", attempt+1, "delay", delay)
			if err := f.sleep(ctx, delay); err != nil {
				lastErr = errors.Join(lastErr, err)
				break
			}
		}
		tried++

		result, err := f.dispatcher.Dispatch(ctx, &engine.FetchRequest{
			URL:       rawURL,
			UserAgent: f.userAgent(),
			Timeout:   f.cfg.RequestTimeout,
		})
		if err == nil {
			page := &models.Page{
				URL:        rawURL,
				FinalURL:   result.FinalURL,
				HTML:       result.HTML,
				StatusCode: result.StatusCode,
				Engine:     result.EngineName,
				FetchedAt:  time.Now(),
			}
			if f.pages != nil {
				f.pages.Set(rawURL, page)
			}
			return page, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			lastErr = errors.Join(err, ctx.Err())
			break
		}
		if engine.IsDefinitive(err) {
			break
		}
	}

	slog.Debug("fetch failed", "url", rawURL, "attempts", tried, "error", lastErr)
	return nil, &models.FetchError{
		URL:        rawURL,
		StatusCode: engine.StatusCodeOf(lastErr),
		Attempts:   tried,
		Err:        lastErr,
	}
}

// backoff is base * 2^retry plus up to BackoffJitter of random delay.
func (f *Fetcher) backoff(retry int) time.Duration {
	d := f.cfg.BackoffBase << retry
	if f.cfg.BackoffJitter > 0 {
		d += rand.N(f.cfg.BackoffJitter)
	}
	return d
}

// userAgent picks uniformly from the configured pool.
func (f *Fetcher) userAgent() string {
	pool := f.cfg.UserAgents
	if len(pool) == 0 {
		return config.DefaultUserAgents[0]
	}
	return pool[rand.N(len(pool))]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
