package scraper

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

type denyPaths []string

func (d denyPaths) Allowed(_ context.Context, rawURL string) bool {
	for _, p := range d {
		if strings.HasSuffix(rawURL, p) {
			return false
		}
	}
	return true
}

const linkPage = `<html><body>
<a href="/">Home</a>
<a href="/blog">Blog</a>
<a href="/pricing">Pricing</a>
<a href="https://other.example.org/pricing">Partner pricing</a>
<a href="/plans#compare">Compare</a>
<a href="/plans">Plans</a>
<a href="/summer-deals">This week</a>
<a href="/coupons">Coupons</a>
<a href="/product">See our offers</a>
</body></html>`

func TestDiscoverRelatedPages(t *testing.T) {
	doc, err := cleaner.Normalize(linkPage, "https://example.com/")
	require.NoError(t, err)

	refs := NewDiscoverer(nil).Discover(context.Background(), doc, 10)
	require.Len(t, refs, 5)
	assert.Equal(t, models.PageRef{URL: "https://example.com/pricing", Title: "Pricing", Type: models.PagePricing}, refs[0])
	assert.Equal(t, "https://example.com/plans", refs[1].URL)
	assert.Equal(t, models.PagePlans, refs[1].Type)
	assert.Equal(t, models.PageOffers, refs[2].Type)
	assert.Equal(t, models.PageCoupons, refs[3].Type)
	assert.Equal(t, "https://example.com/product", refs[4].URL)
	assert.Equal(t, models.PagePricing, refs[4].Type)
}

func TestDiscoverRespectsBudgetAndRobots(t *testing.T) {
	doc, err := cleaner.Normalize(linkPage, "https://example.com/")
	require.NoError(t, err)

	refs := NewDiscoverer(denyPaths{"/pricing"}).Discover(context.Background(), doc, 2)
	require.Len(t, refs, 2)
	assert.Equal(t, "https://example.com/plans", refs[0].URL)
	assert.Equal(t, "https://example.com/summer-deals", refs[1].URL)

	assert.Empty(t, NewDiscoverer(nil).Discover(context.Background(), doc, 0))
}

func TestClassifyPage(t *testing.T) {
	cases := map[string]string{
		"https://example.com/pricing":          models.PagePricing,
		"https://example.com/features/pricing": models.PagePricing,
		"https://example.com/plans":            models.PagePlans,
		"https://example.com/features":         models.PageFeatures,
		"https://example.com/special-offers":   models.PageOffers,
		"https://example.com/promotions":       models.PageOffers,
		"https://example.com/coupons":          models.PageCoupons,
		"https://example.com/about":            models.PagePricing,
	}
	for u, want := range cases {
		assert.Equal(t, want, ClassifyPage(u), u)
	}
}
