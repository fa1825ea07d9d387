package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rivalscope/config"
	"github.com/use-agent/rivalscope/models"
)

const seedHTML = `<html><head>
<title>Acme Cloud</title>
<meta name="description" content="Hosting for growing teams">
<script type="application/ld+json">
{"@type":"Product","name":"Acme Cloud","offers":{"@type":"Offer","name":"Team","price":"99.00","priceCurrency":"USD"}}
</script>
</head><body>
<nav><a href="/">Home</a><a href="/pricing">Pricing</a><a href="/coupons">Coupons</a></nav>
<section class="hero"><h1>Deploy in seconds</h1><a class="btn btn-primary" href="/signup">Get started</a></section>
<ul class="features"><li>Global edge network</li><li>Automatic TLS certificates</li></ul>
<p>Use code WELCOME15 for 15% off your first month.</p>
</body></html>`

const pricingHTML = `<html><head><title>Acme Pricing</title></head><body>
<div class="plan-card"><h3>Pro</h3><div class="price">$49/month</div>
<ul><li>Unlimited projects</li><li>Priority support</li></ul></div>
<div class="banner">Save 20% with annual billing</div>
</body></html>`

type site struct {
	srv   *httptest.Server
	hits  map[string]*atomic.Int32
	pages map[string]string
}

func newSite(t *testing.T, pages map[string]string) *site {
	t.Helper()
	s := &site{hits: make(map[string]*atomic.Int32), pages: pages}
	for p := range pages {
		s.hits[p] = &atomic.Int32{}
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.hits[r.URL.Path].Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Fetcher.Engines = []string{"http"}
	cfg.Fetcher.MinDomainInterval = time.Millisecond
	cfg.Fetcher.MaxAttempts = 2
	cfg.Fetcher.BackoffBase = time.Millisecond
	cfg.Fetcher.BackoffJitter = 0
	cfg.Fetcher.RequestTimeout = 2 * time.Second
	cfg.Enrich.Wayback = false
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config) *Scraper {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestScrapeSeedAndRelatedPages(t *testing.T) {
	site := newSite(t, map[string]string{"/": seedHTML, "/pricing": pricingHTML})
	s := newTestScraper(t, testConfig())

	res, err := s.Scrape(context.Background(), site.srv.URL+"/", 5)
	require.NoError(t, err)

	assert.Equal(t, "Acme Cloud", res.Title)
	assert.Equal(t, "Hosting for growing teams", res.Description)

	// /coupons 404s: omitted from pages and from the count.
	assert.Equal(t, 2, res.Metadata.PagesScraped)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, site.srv.URL+"/pricing", res.Pages[0].URL)
	assert.Equal(t, "Acme Pricing", res.Pages[0].Title)
	assert.Equal(t, models.PagePricing, res.Pages[0].Type)

	prices := make(map[string]models.PricingItem)
	for _, p := range res.Pricing {
		prices[p.Plan] = p
	}
	require.Contains(t, prices, "Pro")
	assert.Equal(t, "$49", prices["Pro"].Price)
	require.Contains(t, prices, "Team")
	assert.Equal(t, "$99.00", prices["Team"].Price)
	assert.Equal(t, "json-ld", prices["Team"].Source)

	codes := make([]string, 0, len(res.Coupons))
	for _, c := range res.Coupons {
		codes = append(codes, c.Code)
	}
	assert.Contains(t, codes, "WELCOME15")
	assert.GreaterOrEqual(t, len(res.Discounts), 2, "discounts merge across seed and pricing page")

	assert.Equal(t, []string{models.SourceHTML, "json-ld"}, res.Metadata.Sources)
	assert.Greater(t, res.Metadata.DataQuality, 50.0)
	assert.LessOrEqual(t, res.Metadata.DataQuality, 100.0)
	require.NotNil(t, res.Snapshot)
	assert.NotEmpty(t, res.Snapshot.ContentHash)

	// The enricher shares the seed fetch.
	assert.Equal(t, int32(1), site.hits["/"].Load())
	assert.Equal(t, 1, s.Stats().TrackedDomains)
}

func TestScrapeRelatedPage404(t *testing.T) {
	seed := `<html><head><title>Acme</title></head><body><a href="/pricing">Pricing</a></body></html>`
	site := newSite(t, map[string]string{"/": seed})
	s := newTestScraper(t, testConfig())

	res, err := s.Scrape(context.Background(), site.srv.URL+"/", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Metadata.PagesScraped)
	assert.Empty(t, res.Pages)
}

func TestScrapeEmptyPage(t *testing.T) {
	site := newSite(t, map[string]string{"/": `<html><body></body></html>`})
	s := newTestScraper(t, testConfig())

	res, err := s.Scrape(context.Background(), site.srv.URL+"/", 0)
	require.NoError(t, err)
	assert.Equal(t, models.PlaceholderTitle, res.Title)
	assert.NotNil(t, res.Pricing)
	assert.Empty(t, res.Pricing)
	assert.Empty(t, res.Coupons)
	assert.Empty(t, res.Discounts)
	assert.Empty(t, res.Features)
	assert.Empty(t, res.Buttons)
	assert.Less(t, res.Metadata.DataQuality, 10.0)
	assert.Equal(t, []string{models.SourceHTML}, res.Metadata.Sources)
}

func TestScrapeSeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	cfg := testConfig()
	cfg.Enrich.Enabled = false
	s := newTestScraper(t, cfg)

	_, err := s.Scrape(context.Background(), srv.URL+"/", 1)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeFetchFailed, se.Code)
	assert.Contains(t, se.Error(), "failed to scrape "+srv.URL+"/")

	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
	assert.Equal(t, 2, fe.Attempts)
}

func TestScrapeFailingSiteRequestCount(t *testing.T) {
	cases := []struct {
		name   string
		status int
		hits   int32
	}{
		{"server error stays on one engine", http.StatusServiceUnavailable, 3},
		{"blocked escalates to every engine", http.StatusForbidden, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			cfg := testConfig()
			cfg.Fetcher.Engines = []string{"chrome-tls", "http"}
			cfg.Fetcher.MaxAttempts = 3
			cfg.Enrich.Enabled = false
			s := newTestScraper(t, cfg)

			_, err := s.Scrape(context.Background(), srv.URL+"/", 1)
			var fe *models.FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, 3, fe.Attempts)
			assert.Equal(t, tc.status, fe.StatusCode)
			assert.Equal(t, tc.hits, hits.Load())
		})
	}
}

func TestScrapeRejectsInvalidURL(t *testing.T) {
	s := newTestScraper(t, testConfig())

	for _, u := range []string{"", "ftp://example.com/", "not a url", "https://"} {
		_, err := s.Scrape(context.Background(), u, 1)
		var se *models.ScrapeError
		require.ErrorAs(t, err, &se, u)
		assert.Equal(t, models.ErrCodeInvalidInput, se.Code, u)
	}
}

func TestScrapeWaybackSource(t *testing.T) {
	site := newSite(t, map[string]string{"/": `<html><head><title>Acme</title></head><body></body></html>`})
	cdx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[["urlkey","timestamp","original"],["k","20240101000000","` + r.URL.Query().Get("url") + `"]]`))
	}))
	defer cdx.Close()

	cfg := testConfig()
	cfg.Enrich.Wayback = true
	cfg.Enrich.WaybackEndpoint = cdx.URL
	cfg.Enrich.WaybackTimeout = time.Second
	s := newTestScraper(t, cfg)

	res, err := s.Scrape(context.Background(), site.srv.URL+"/", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{models.SourceHTML, "wayback-machine"}, res.Metadata.Sources)
	require.Len(t, res.Archive, 1)
	assert.Equal(t, "20240101000000", res.Archive[0].Timestamp)
}

func TestBudget(t *testing.T) {
	s := &Scraper{discovery: config.DiscoveryConfig{DefaultMaxPages: 3, MaxPagesLimit: 10}}
	assert.Equal(t, 3, s.budget(0))
	assert.Equal(t, 3, s.budget(-1))
	assert.Equal(t, 7, s.budget(7))
	assert.Equal(t, 10, s.budget(50))
}
