package signals

import (
	"strconv"
	"strings"

	"github.com/use-agent/rivalscope/models"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// Structured turns a machine-readable offer into a pricing item tagged
// with its source. Offers with a non-numeric or implausible price are
// rejected.
func (e *Extractor) Structured(planName, price, currency, description, source string, confidence float64) (models.PricingItem, bool) {
	price = strings.TrimSpace(strings.ReplaceAll(price, ",", ""))
	value, err := strconv.ParseFloat(price, 64)
	if err != nil || value < 0 || value > maxPriceValue {
		return models.PricingItem{}, false
	}

	display := price
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if sym, ok := currencySymbols[currency]; ok {
		display = sym + price
	} else if currency != "" {
		display = currency + " " + price
	}

	if planName = strings.TrimSpace(planName); planName == "" {
		planName = tierFromText(description)
	}
	text := description + " " + planName
	category := pricingCategory(text)
	if value == 0 {
		category = models.PricingFreemium
	}
	return models.PricingItem{
		Price:      display,
		Plan:       planName,
		Features:   []string{},
		Billing:    billingPeriod(text),
		Category:   category,
		Confidence: clamp(confidence),
		Source:     source,
	}, true
}
