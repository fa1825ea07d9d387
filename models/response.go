package models

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success indicates whether the seed page was scraped.
	Success bool `json:"success"`

	// URL echoes the requested seed URL.
	URL string `json:"url"`

	// Data is the extracted result. Nil when Success is false.
	Data *ScrapedResult `json:"data,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	FetcherStats FetcherStats `json:"fetcher_stats"`
	Version      string       `json:"version"`
}

// FetcherStats reports the shared state owned by the fetcher.
type FetcherStats struct {
	CachedPages    int      `json:"cached_pages"`
	TrackedDomains int      `json:"tracked_domains"`
	Engines        []string `json:"engines"`
}
