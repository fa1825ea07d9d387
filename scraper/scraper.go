// Package scraper turns a competitor URL into a ScrapedResult: it fetches
// the seed page, mines it and the related pages it links to, and scores
// the outcome.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/use-agent/rivalscope/cache"
	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/config"
	"github.com/use-agent/rivalscope/engine"
	"github.com/use-agent/rivalscope/enrich"
	"github.com/use-agent/rivalscope/models"
	"github.com/use-agent/rivalscope/signals"
)

// robotsAgent is the product token matched against robots.txt groups.
const robotsAgent = "RivalScope"

// Scraper owns the fetch state shared by all scrapes (page cache,
// per-domain limiter, engine memory) and runs the scrape pipeline.
// It is safe for concurrent use.
type Scraper struct {
	discovery config.DiscoveryConfig

	pages      *cache.Cache
	limiter    *engine.DomainLimiter
	dispatcher *engine.Dispatcher
	fetcher    *Fetcher
	discoverer *Discoverer
	extractor  *signals.Extractor
	snapshots  *cleaner.Snapshotter
	enricher   *enrich.Enricher
	archive    *enrich.Archive
	startTime  time.Time
}

// New wires a Scraper from configuration.
func New(cfg *config.Config) (*Scraper, error) {
	engines, err := engine.Build(cfg.Fetcher.Engines, engine.Options{
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		Proxy:        cfg.Fetcher.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: build engines: %w", err)
	}

	pages := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	if cfg.Cache.TTL > 0 {
		pages.StartSweeper(cfg.Cache.TTL)
	}
	limiter := engine.NewDomainLimiter(cfg.Fetcher.MinDomainInterval)
	dispatcher := engine.NewDispatcher(engines, engine.NewDomainMemory(cfg.Fetcher.EngineMemoryTTL), limiter)
	fetcher := NewFetcher(cfg.Fetcher, pages, dispatcher)

	var robots RobotsPolicy
	if cfg.Discovery.RespectRobots {
		robots = engine.NewRobotsChecker(robotsAgent, limiter, cfg.Cache.TTL)
	}

	s := &Scraper{
		discovery:  cfg.Discovery,
		pages:      pages,
		limiter:    limiter,
		dispatcher: dispatcher,
		fetcher:    fetcher,
		discoverer: NewDiscoverer(robots),
		extractor:  signals.Default(),
		snapshots:  cleaner.NewSnapshotter(),
		startTime:  time.Now(),
	}
	if cfg.Enrich.Enabled {
		s.enricher = enrich.New(fetcher)
	}
	if cfg.Enrich.Wayback {
		s.archive = enrich.NewArchive(cfg.Enrich.WaybackEndpoint, cfg.Enrich.WaybackTimeout, cfg.Enrich.WaybackLimit)
	}

	slog.Info("scraper ready",
		"engines", dispatcher.Engines(),
		"min_domain_interval", cfg.Fetcher.MinDomainInterval,
		"cache_ttl", cfg.Cache.TTL,
		"enrich", cfg.Enrich.Enabled,
		"wayback", cfg.Enrich.Wayback,
	)
	return s, nil
}

// Stats returns a snapshot of the shared fetch state.
func (s *Scraper) Stats() models.FetcherStats {
	return models.FetcherStats{
		CachedPages:    s.pages.Len(),
		TrackedDomains: s.limiter.Domains(),
		Engines:        s.dispatcher.Engines(),
	}
}

// Uptime is the time since the scraper was created.
func (s *Scraper) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Close stops background cache maintenance.
func (s *Scraper) Close() {
	s.pages.Stop()
	slog.Info("scraper shutdown complete")
}

// seedOutcome collects the independent tasks run alongside the seed fetch.
// Each task records its own result or error; none cancels another.
type seedOutcome struct {
	page    *models.Page
	pageErr error

	enriched  *enrich.Result
	enrichErr error

	snapshots  []models.ArchiveSnapshot
	archiveErr error
}

// Scrape fetches seedURL and up to maxPages related pages, extracts
// competitive signals and scores the result. maxPages <= 0 uses the
// configured default. Only a failure on the seed page fails the call.
func (s *Scraper) Scrape(ctx context.Context, seedURL string, maxPages int) (*models.ScrapedResult, error) {
	start := time.Now()

	if err := validateURL(seedURL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid url", err)
	}
	budget := s.budget(maxPages)

	// ── 1. Seed page, enrichment and archive lookup in parallel ──────
	out := s.fetchSeed(ctx, seedURL)
	if out.pageErr != nil {
		return nil, seedFailure(seedURL, out.pageErr)
	}
	if out.enrichErr != nil {
		slog.Warn("enrichment failed", "url", seedURL, "error", out.enrichErr)
	}
	if out.archiveErr != nil {
		slog.Warn("archive lookup failed", "url", seedURL, "error", out.archiveErr)
	}

	// ── 2. Normalize and extract the seed page ───────────────────────
	doc, err := cleaner.Normalize(out.page.HTML, pageBase(out.page))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeParseFailed, "failed to scrape "+seedURL, err)
	}
	sets := []signals.Set{s.extractor.Extract(doc)}

	// ── 3. Related pages, one at a time ──────────────────────────────
	related := s.discoverer.Discover(ctx, doc, budget)
	fetched := make([]models.PageRef, 0, len(related))
	for _, ref := range related {
		if ctx.Err() != nil {
			slog.Warn("scrape context done, skipping remaining related pages", "url", seedURL, "error", ctx.Err())
			break
		}
		set, title, err := s.scrapeRelated(ctx, ref.URL)
		if err != nil {
			slog.Warn("skipping related page", "url", ref.URL, "type", ref.Type, "error", err)
			continue
		}
		if title != models.PlaceholderTitle {
			ref.Title = title
		}
		sets = append(sets, set)
		fetched = append(fetched, ref)
	}

	// ── 4. Merge, reconcile and assemble ─────────────────────────────
	merged := s.extractor.Merge(sets...)
	merged.Pricing = s.extractor.Reconcile(merged.Pricing, s.structuredPricing(out.enriched))

	result := &models.ScrapedResult{
		Title:       doc.Title(),
		Description: doc.Description(),
		Pricing:     merged.Pricing,
		Coupons:     merged.Coupons,
		Discounts:   merged.Discounts,
		Features:    merged.Features,
		Buttons:     merged.Buttons,
		Pages:       fetched,
		Archive:     out.snapshots,
		Snapshot:    s.snapshots.Snapshot(doc),
	}
	sources := []string{models.SourceHTML}
	if out.enriched != nil {
		result.Findings = append(result.Findings, out.enriched.Findings...)
		sources = appendUnique(sources, out.enriched.Sources()...)
	}
	if len(out.snapshots) > 0 {
		result.Findings = append(result.Findings, enrich.ArchiveFinding(seedURL, out.snapshots))
		sources = appendUnique(sources, enrich.SourceWayback)
	}

	result.Metadata = models.ResultMetadata{
		URL:          seedURL,
		ScrapedAt:    start.UTC(),
		PagesScraped: 1 + len(fetched),
		Sources:      sources,
	}
	result.Metadata.DataQuality = Quality(result)
	result.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()

	slog.Info("scrape completed",
		"url", seedURL,
		"pages", result.Metadata.PagesScraped,
		"pricing", len(result.Pricing),
		"coupons", len(result.Coupons),
		"discounts", len(result.Discounts),
		"features", len(result.Features),
		"buttons", len(result.Buttons),
		"quality", result.Metadata.DataQuality,
		"sources", sources,
		"elapsed_ms", result.Metadata.ProcessingTimeMs,
	)
	return result, nil
}

func (s *Scraper) fetchSeed(ctx context.Context, seedURL string) seedOutcome {
	var (
		out seedOutcome
		wg  sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		out.page, out.pageErr = s.fetcher.Fetch(ctx, seedURL)
	}()

	if s.enricher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.enriched, out.enrichErr = s.enricher.Enrich(ctx, seedURL)
		}()
	}

	if s.archive != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.snapshots, out.archiveErr = s.archive.Snapshots(ctx, seedURL)
		}()
	}

	wg.Wait()
	return out
}

// scrapeRelated fetches and extracts one related page.
func (s *Scraper) scrapeRelated(ctx context.Context, rawURL string) (signals.Set, string, error) {
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return signals.Set{}, "", err
	}
	doc, err := cleaner.Normalize(page.HTML, pageBase(page))
	if err != nil {
		return signals.Set{}, "", fmt.Errorf("normalize %s: %w", rawURL, err)
	}
	return s.extractor.Extract(doc), doc.Title(), nil
}

func (s *Scraper) structuredPricing(r *enrich.Result) []models.PricingItem {
	if r == nil {
		return nil
	}
	items := make([]models.PricingItem, 0, len(r.Offers))
	for _, o := range r.Offers {
		if it, ok := s.extractor.Structured(o.Plan, o.Price, o.Currency, o.Description, o.Source, o.Confidence); ok {
			items = append(items, it)
		}
	}
	return items
}

// budget resolves the related-page budget for one call.
func (s *Scraper) budget(maxPages int) int {
	if maxPages <= 0 {
		maxPages = s.discovery.DefaultMaxPages
	}
	if s.discovery.MaxPagesLimit > 0 && maxPages > s.discovery.MaxPagesLimit {
		maxPages = s.discovery.MaxPagesLimit
	}
	return maxPages
}

func seedFailure(seedURL string, err error) *models.ScrapeError {
	code := models.ErrCodeFetchFailed
	if errors.Is(err, context.DeadlineExceeded) {
		code = models.ErrCodeTimeout
	}
	return models.NewScrapeError(code, "failed to scrape "+seedURL, err)
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// pageBase is the URL relative links on page resolve against.
func pageBase(p *models.Page) string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

func appendUnique(list []string, vals ...string) []string {
	for _, v := range vals {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
