package scraper

import (
	"math"

	"github.com/use-agent/rivalscope/models"
)

// Quality weights; they sum to 100.
const (
	pricingWeight      = 40
	featureWeight      = 25
	completenessWeight = 20
	diversityWeight    = 15
	signalCategories   = 5
)

// Quality scores how rich and reliable r is on a 0–100 scale. Empty
// categories contribute zero rather than dropping out, so a sparse page
// scores low instead of undefined.
func Quality(r *models.ScrapedResult) float64 {
	var total float64

	total += avgConfidence(r.Pricing, func(p models.PricingItem) float64 { return p.Confidence }) * pricingWeight
	total += avgConfidence(r.Features, func(f models.FeatureItem) float64 { return f.Confidence }) * featureWeight

	nonEmpty := nonEmptyCategories(r)

	var completeness float64
	if r.Title != "" && r.Title != models.PlaceholderTitle {
		completeness += 5
	}
	if r.Description != "" && r.Description != models.PlaceholderDescription {
		completeness += 5
	}
	completeness += float64(nonEmpty * 2)
	total += math.Min(completeness, completenessWeight)

	total += float64(nonEmpty) / signalCategories * diversityWeight

	total = math.Max(0, math.Min(100, total))
	return math.Round(total*10) / 10
}

func avgConfidence[T any](items []T, conf func(T) float64) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += conf(it)
	}
	return sum / float64(len(items))
}

func nonEmptyCategories(r *models.ScrapedResult) int {
	n := 0
	for _, l := range []int{len(r.Pricing), len(r.Coupons), len(r.Discounts), len(r.Features), len(r.Buttons)} {
		if l > 0 {
			n++
		}
	}
	return n
}
