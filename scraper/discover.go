package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/rivalscope/cache"
	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

var relatedRe = regexp.MustCompile(`(?i)pricing|plans|offers|coupons|discounts|deals|promotions`)

// pageTypes classifies a related URL; the first match wins.
var pageTypes = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`pricing|price`), models.PagePricing},
	{regexp.MustCompile(`\bplans?\b`), models.PagePlans},
	{regexp.MustCompile(`features?`), models.PageFeatures},
	{regexp.MustCompile(`offers?|deals?|discounts?|promotions?|sale`), models.PageOffers},
	{regexp.MustCompile(`coupons?|promo-?codes?|vouchers?`), models.PageCoupons},
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// Discoverer picks same-origin pages linked from a seed page that are
// likely to carry pricing or promotions.
type Discoverer struct {
	robots RobotsPolicy
}

// NewDiscoverer creates a Discoverer. robots may be nil to skip the
// robots.txt check.
func NewDiscoverer(robots RobotsPolicy) *Discoverer {
	return &Discoverer{robots: robots}
}

// Discover returns at most budget related pages of doc in link order.
func (d *Discoverer) Discover(ctx context.Context, doc *cleaner.Document, budget int) []models.PageRef {
	refs := []models.PageRef{}
	if budget <= 0 {
		return refs
	}
	seed := doc.URL()
	seen := map[string]bool{cache.Key(seed.String()): true}

	for _, link := range doc.Links() {
		if !relatedRe.MatchString(link.Text) && !relatedRe.MatchString(link.URL) {
			continue
		}
		u, err := url.Parse(link.URL)
		if err != nil || !sameOrigin(seed, u) {
			continue
		}
		key := cache.Key(link.URL)
		if seen[key] {
			continue
		}
		seen[key] = true

		if d.robots != nil && !d.robots.Allowed(ctx, link.URL) {
			slog.Debug("related page disallowed by robots.txt", "url", link.URL)
			continue
		}
		refs = append(refs, models.PageRef{
			URL:   link.URL,
			Title: link.Text,
			Type:  ClassifyPage(link.URL),
		})
		if len(refs) == budget {
			break
		}
	}
	return refs
}

// ClassifyPage assigns a page type from the URL, defaulting to pricing.
func ClassifyPage(rawURL string) string {
	target := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		target = strings.ToLower(u.Path + "?" + u.RawQuery)
	}
	for _, t := range pageTypes {
		if t.re.MatchString(target) {
			return t.kind
		}
	}
	return models.PagePricing
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}
