// Package enrich mines alternative sources for a page: structured data
// (JSON-LD, microdata), advertised feeds, API endpoints embedded in
// scripts and web archive captures. Everything here is best-effort; a
// malformed source contributes nothing and never fails the page.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/rivalscope/models"
)

// Provenance tags recorded in result metadata.
const (
	SourceJSONLD      = "json-ld"
	SourceMicrodata   = "microdata"
	SourceFeed        = "feed"
	SourceAPIEndpoint = "api-endpoint"
	SourceWayback     = "wayback-machine"
)

// Fixed confidences per source.
const (
	confidenceJSONLD      = 0.9
	confidenceMicrodata   = 0.8
	confidenceAPIEndpoint = 0.7
	confidenceFeed        = 0.6
	confidenceWayback     = 0.5
)

// Offer is a structured price statement found in JSON-LD or microdata.
type Offer struct {
	Plan        string
	Price       string
	Currency    string
	Description string
	Source      string
	Confidence  float64
}

// Result is what the enricher found on one page.
type Result struct {
	Findings []models.Finding
	Offers   []Offer
}

// Sources returns the distinct provenance tags of r's findings in order of
// first appearance.
func (r *Result) Sources() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range r.Findings {
		if !seen[f.Source] {
			seen[f.Source] = true
			out = append(out, f.Source)
		}
	}
	return out
}

// PageFetcher returns the raw HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.Page, error)
}

// Enricher fetches a page and analyzes its raw markup. It relies on the
// fetcher to share the request with the main scrape of the same URL.
type Enricher struct {
	fetcher PageFetcher
}

// New creates an Enricher.
func New(fetcher PageFetcher) *Enricher {
	return &Enricher{fetcher: fetcher}
}

// Enrich fetches pageURL and returns its alternative-source findings.
func (e *Enricher) Enrich(ctx context.Context, pageURL string) (*Result, error) {
	page, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("enrich: fetch %s: %w", pageURL, err)
	}
	base := page.FinalURL
	if base == "" {
		base = pageURL
	}
	return Analyze(page.HTML, base)
}

// Analyze inspects raw, unstripped HTML. Scripts must still be present
// for JSON-LD and endpoint discovery.
func Analyze(rawHTML, pageURL string) (*Result, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("enrich: parse url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("enrich: parse html: %w", err)
	}

	r := &Result{}
	jsonLD(doc, r)
	microdata(doc, r)
	feeds(doc, base, r)
	endpoints(doc, base, r)
	r.Offers = dedupeOffers(r.Offers)

	slog.Debug("enrich: analyzed page",
		"url", pageURL,
		"findings", len(r.Findings),
		"offers", len(r.Offers),
	)
	return r, nil
}

func dedupeOffers(offers []Offer) []Offer {
	seen := make(map[string]bool, len(offers))
	out := offers[:0]
	for _, o := range offers {
		k := strings.ToLower(o.Plan) + "|" + o.Price + "|" + o.Currency
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out
}

// resolve makes href absolute against base.
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
