package signals

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

var pricingCandidates = cleaner.MustSelector(strings.Join([]string{
	`[class*="price"]:not([class*="old"]):not([class*="was"]):not([class*="strike"])`,
	`[class*="cost"]`,
	`[class*="plan"]`,
	`[class*="tier"]`,
	`[data-testid*="price"], [data-price], [data-cost], [itemprop="price"]`,
	`.pricing-card, .plan-card, .subscription-card`,
	`[itemtype*="Offer"], [itemtype*="Product"]`,
}, ", "))

var (
	pricingContextSel = cleaner.MustSelector(`[class*="pricing"], [class*="plan"], [class*="cost"], [class*="tier"]`)
	currencyMarkupSel = cleaner.MustSelector(`[class*="currency"], [class*="symbol"], [itemprop="priceCurrency"]`)
	struckSel         = cleaner.MustSelector(`del, s, strike, [class*="old"], [class*="was"], [class*="strike"]`)
	planFeatureSel    = cleaner.MustSelector(`li, [class*="feature"], [class*="benefit"], [class*="include"]`)
)

var (
	// priceRe captures a currency-prefixed or currency-suffixed amount.
	priceRe = regexp.MustCompile(`([$€£¥₹])\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d{1,2}))?|\b(USD|EUR|GBP)\s?(\d+(?:\.\d{1,2})?)\b|\b(\d+(?:\.\d{1,2})?)\s?(€|USD|EUR|GBP)`)

	cleanPriceRe = regexp.MustCompile(`^[$€£]\s?\d+(?:\.\d{2})?$`)

	billingKeywordRe = regexp.MustCompile(`(?i)month|year|annual|plan|subscription|billing|/mo\b|/yr\b`)

	tierWordRe = regexp.MustCompile(`(?i)\b(free|starter|basic|standard|essential|plus|pro|professional|premium|business|team|growth|scale|enterprise|ultimate)\b`)
)

var billingRules = []struct {
	re      *regexp.Regexp
	billing string
}{
	{regexp.MustCompile(`(?i)\bmonth(ly)?\b|/\s*mo\b|\bper\s+mo\b|\bmonths?\b`), models.BillingMonthly},
	{regexp.MustCompile(`(?i)\byear(ly)?\b|\bannual(ly)?\b|/\s*yr\b|\bper\s+yr\b`), models.BillingYearly},
	{regexp.MustCompile(`(?i)\bweekly\b|\bper\s+week\b|/\s*w(ee)?k\b`), models.BillingWeekly},
	{regexp.MustCompile(`(?i)\bdaily\b|\bper\s+day\b|/\s*day\b`), models.BillingDaily},
	{regexp.MustCompile(`(?i)one[-\s]?time|\bonce\b|lifetime`), models.BillingOneTime},
}

var categoryRules = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)\bfree\b|\$0(?:\.00)?\b|no[-\s]?cost`), models.PricingFreemium},
	{regexp.MustCompile(`(?i)enterprise|custom|contact[-\s]?(?:us|sales)|call[-\s]?us`), models.PricingEnterprise},
	{regexp.MustCompile(`(?i)usage|per[-\s]?request|per[-\s]?api|per[-\s]?call|pay[-\s]?as[-\s]?you[-\s]?go|metered`), models.PricingUsageBased},
	{regexp.MustCompile(`(?i)month|year|annual|subscription|recurring|/mo\b|/yr\b`), models.PricingSubscription},
}

const (
	minPriceValue     = 0.01
	maxPriceValue     = 50000
	maxPlanFeatures   = 8
	minCandidateText  = 2
	maxCandidateText  = 300
	longTextThreshold = 150
)

// pricingFacts is the DOM evidence scorePricing weighs.
type pricingFacts struct {
	pricingContext bool
	billingKeyword bool
	currencyMarkup bool
	cleanPrice     bool
	structuredAttr bool
	longText       bool
	scriptTag      bool
}

func scorePricing(f pricingFacts, w PricingWeights) float64 {
	return score(w.Base,
		factor{f.pricingContext, w.PricingContext},
		factor{f.billingKeyword, w.BillingKeyword},
		factor{f.currencyMarkup, w.CurrencyMarkup},
		factor{f.cleanPrice, w.CleanPrice},
		factor{f.structuredAttr, w.StructuredAttr},
		factor{f.longText, w.LongText},
		factor{f.scriptTag, w.ScriptTag},
	)
}

// Pricing extracts price points with their plan, billing period and
// category.
func (e *Extractor) Pricing(doc *cleaner.Document) []models.PricingItem {
	w := e.weights.Pricing
	var items []models.PricingItem

	for _, n := range doc.QueryAll(pricingCandidates) {
		text := n.Text()
		if l := len([]rune(text)); l < minCandidateText || l > maxCandidateText {
			continue
		}
		// Code that leaked into text never yields a price.
		if looksLikeScript(text) {
			continue
		}

		struck := struckPrices(n)
		facts := pricingFacts{
			pricingContext: n.Is(pricingContextSel) || n.Within(pricingContextSel),
			billingKeyword: billingKeywordRe.MatchString(text),
			currencyMarkup: n.Count(currencyMarkupSel) > 0,
			cleanPrice:     cleanPriceRe.MatchString(text),
			structuredAttr: hasAttr(n, "itemprop", "price") || hasAttr(n, "data-price", ""),
			longText:       len([]rune(text)) > longTextThreshold,
			scriptTag:      n.Within(scriptSel),
		}
		conf := scorePricing(facts, w)

		p, hasPlan := planOf(n)
		planName := p.name
		if !hasPlan {
			planName = tierFromText(text)
		}
		features := planFeatures(p, hasPlan)
		billing := billingPeriod(text)
		category := pricingCategory(text + " " + planName)

		for _, m := range priceRe.FindAllStringSubmatch(text, 3) {
			price, value, ok := parsePrice(m)
			if !ok || value < minPriceValue || value > maxPriceValue {
				continue
			}
			if slices.Contains(struck, price) {
				continue
			}
			items = append(items, models.PricingItem{
				Price:      price,
				Plan:       planName,
				Features:   features,
				Billing:    billing,
				Category:   category,
				Confidence: conf,
			})
		}
	}

	return rank(items,
		func(it models.PricingItem) float64 { return it.Confidence },
		PricingKey,
		w.Min, w.Cap)
}

// PricingKey is the dedup key for pricing items: price and plan.
func PricingKey(it models.PricingItem) string {
	return it.Price + "|" + strings.ToLower(it.Plan)
}

// parsePrice turns a priceRe submatch into display text and a numeric value.
func parsePrice(m []string) (string, float64, bool) {
	var symbol, whole, frac string
	suffix := false
	switch {
	case m[1] != "":
		symbol, whole, frac = m[1], m[2], m[3]
	case m[4] != "":
		symbol, whole = m[4], m[5]
	case m[6] != "":
		symbol, whole, suffix = m[7], m[6], true
	default:
		return "", 0, false
	}

	num := strings.ReplaceAll(whole, ",", "")
	if frac != "" {
		num += "." + frac
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return "", 0, false
	}

	amount := whole
	if frac != "" {
		amount += "." + frac
	}
	switch {
	case suffix && symbol == "€":
		return amount + "€", value, true
	case suffix:
		return amount + " " + symbol, value, true
	case len(symbol) == 3:
		return symbol + " " + amount, value, true
	}
	return symbol + amount, value, true
}

func billingPeriod(text string) string {
	for _, r := range billingRules {
		if r.re.MatchString(text) {
			return r.billing
		}
	}
	return models.BillingOneTime
}

func pricingCategory(text string) string {
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return models.PricingOneTime
}

// tierFromText falls back to a tier word in the text, else "Standard Plan".
func tierFromText(text string) string {
	if m := tierWordRe.FindString(text); m != "" {
		return strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	}
	return "Standard Plan"
}

// planFeatures lists short feature lines from the plan's container.
func planFeatures(p plan, ok bool) []string {
	features := []string{}
	if !ok {
		return features
	}
	seen := make(map[string]struct{})
	for _, f := range p.container.QueryAll(planFeatureSel) {
		t := f.Text()
		if l := len([]rune(t)); l < 3 || l > 120 || strings.ContainsAny(t, "$€£") {
			continue
		}
		if f.Count(planFeatureSel) > 0 {
			continue // a wrapper around other feature lines
		}
		k := textKey(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		features = append(features, t)
		if len(features) == maxPlanFeatures {
			break
		}
	}
	return features
}

// struckPrices returns the prices shown inside strike-through markup
// under n, normalised the way parsePrice renders them.
func struckPrices(n cleaner.Node) []string {
	var out []string
	for _, s := range n.QueryAll(struckSel) {
		for _, m := range priceRe.FindAllStringSubmatch(s.Text(), -1) {
			if price, _, ok := parsePrice(m); ok {
				out = append(out, price)
			}
		}
	}
	return out
}

// hasAttr reports whether n has attribute name, and when want is not
// empty, whether its value equals want.
func hasAttr(n cleaner.Node, name, want string) bool {
	v, ok := n.Attr(name)
	if !ok {
		return false
	}
	return want == "" || strings.EqualFold(v, want)
}
