// Package signals extracts competitive signals from a normalized page:
// pricing, coupons, discounts, features and calls to action. Every item
// carries a confidence in [0.1, 1.0] computed from the Weights table.
package signals

import (
	"sync"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

// Set is the output of one extraction pass over a page.
type Set struct {
	Pricing   []models.PricingItem
	Coupons   []models.CouponItem
	Discounts []models.DiscountItem
	Features  []models.FeatureItem
	Buttons   []models.ButtonItem
}

// Extractor runs the five signal extractors. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	weights Weights
}

// New returns an Extractor scoring with w.
func New(w Weights) *Extractor {
	return &Extractor{weights: w}
}

// Default returns an Extractor using DefaultWeights.
func Default() *Extractor {
	return New(DefaultWeights)
}

// Weights returns the table the extractor scores with.
func (e *Extractor) Weights() Weights { return e.weights }

// Extract runs all extractors over doc. The extractors only read the
// document, so they run concurrently.
func (e *Extractor) Extract(doc *cleaner.Document) Set {
	var (
		s  Set
		wg sync.WaitGroup
	)
	wg.Add(5)
	go func() { defer wg.Done(); s.Pricing = e.Pricing(doc) }()
	go func() { defer wg.Done(); s.Coupons = e.Coupons(doc) }()
	go func() { defer wg.Done(); s.Discounts = e.Discounts(doc) }()
	go func() { defer wg.Done(); s.Features = e.Features(doc) }()
	go func() { defer wg.Done(); s.Buttons = e.Buttons(doc) }()
	wg.Wait()
	return s
}

// Merge combines the sets extracted from several pages of one site. Each
// collection is re-ranked under its own dedup key and cap, so an item
// found on two pages appears once with its best confidence.
func (e *Extractor) Merge(sets ...Set) Set {
	var all Set
	for _, s := range sets {
		all.Pricing = append(all.Pricing, s.Pricing...)
		all.Coupons = append(all.Coupons, s.Coupons...)
		all.Discounts = append(all.Discounts, s.Discounts...)
		all.Features = append(all.Features, s.Features...)
		all.Buttons = append(all.Buttons, s.Buttons...)
	}
	w := e.weights
	return Set{
		Pricing: rank(all.Pricing,
			func(it models.PricingItem) float64 { return it.Confidence },
			PricingKey, w.Pricing.Min, w.Pricing.Cap),
		Coupons: rank(all.Coupons,
			func(it models.CouponItem) float64 { return it.Confidence },
			func(it models.CouponItem) string { return it.Code },
			w.Coupon.Min, w.Coupon.Cap),
		Discounts: rank(all.Discounts,
			func(it models.DiscountItem) float64 { return it.Confidence },
			func(it models.DiscountItem) string { return textKey(it.Text) },
			w.Discount.Min, w.Discount.Cap),
		Features: rank(all.Features,
			func(it models.FeatureItem) float64 { return it.Confidence },
			func(it models.FeatureItem) string { return textKey(it.Text) },
			w.Feature.Min, w.Feature.Cap),
		Buttons: rank(all.Buttons,
			func(it models.ButtonItem) float64 { return it.Confidence },
			ButtonKey,
			w.Button.Min, w.Button.Cap),
	}
}

// Reconcile folds structured offers into heuristic pricing. A structured
// item replaces every heuristic item for the same plan; plans that only
// the markup heuristics found are kept.
func (e *Extractor) Reconcile(heuristic, structured []models.PricingItem) []models.PricingItem {
	if len(structured) == 0 {
		return heuristic
	}
	covered := make(map[string]struct{}, len(structured))
	for _, it := range structured {
		covered[textKey(it.Plan)] = struct{}{}
	}
	all := make([]models.PricingItem, 0, len(structured)+len(heuristic))
	all = append(all, structured...)
	for _, it := range heuristic {
		if _, ok := covered[textKey(it.Plan)]; ok {
			continue
		}
		all = append(all, it)
	}
	return rank(all,
		func(it models.PricingItem) float64 { return it.Confidence },
		PricingKey,
		0, e.weights.Pricing.Cap)
}
