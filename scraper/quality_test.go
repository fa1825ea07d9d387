package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/rivalscope/models"
)

func TestQualityWeightedSum(t *testing.T) {
	r := &models.ScrapedResult{
		Title:       "Acme pricing",
		Description: "Plans for every team",
		Pricing:     []models.PricingItem{{Confidence: 0.9}, {Confidence: 0.7}},
		Features:    []models.FeatureItem{{Confidence: 0.6}},
	}
	// 0.8*40 + 0.6*25 + (5+5+2*2) + 2/5*15
	assert.Equal(t, 67.0, Quality(r))
}

func TestQualityEmptyPage(t *testing.T) {
	r := &models.ScrapedResult{
		Title:       models.PlaceholderTitle,
		Description: models.PlaceholderDescription,
	}
	assert.Equal(t, 0.0, Quality(r))

	r.Title = "Acme"
	assert.Equal(t, 5.0, Quality(r))
}

func TestQualityCapsCompleteness(t *testing.T) {
	r := &models.ScrapedResult{
		Title:       "Acme",
		Description: "Acme",
		Pricing:     []models.PricingItem{{Confidence: 1}},
		Coupons:     []models.CouponItem{{Confidence: 1}},
		Discounts:   []models.DiscountItem{{Confidence: 1}},
		Features:    []models.FeatureItem{{Confidence: 1}},
		Buttons:     []models.ButtonItem{{Confidence: 1}},
	}
	assert.Equal(t, 100.0, Quality(r))
}
