package signals

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

var (
	discountClassSel = cleaner.MustSelector(`[class*="discount"], [class*="sale"], [class*="offer"], [class*="deal"], [class*="promo"], [class*="special"], [class*="save"], [class*="saving"], [class*="badge"], [class*="banner"], [class*="ribbon"]`)
	discountCueSel   = cleaner.MustSelector(`p, li, span, strong, b, em, div, h1, h2, h3, h4, h5, h6, td, small, a, label`)
)

var (
	discountCueRe = regexp.MustCompile(`(?i)\d\s?%|\boff\b|\bsave\b|\bfree\s+(?:trial|shipping|delivery)\b|\bbogo\b|buy\s+one|limited[-\s]time|\bsale\b`)
	urgencyRe     = regexp.MustCompile(`(?i)limited[-\s]time|ends?\s+(?:soon|today|tonight)|today\s+only|last\s+chance|hurry|while\s+(?:stocks?|supplies)\s+last|expires?\s+soon|flash\s+sale`)
	validUntilRe  = regexp.MustCompile(`(?i)(?:ends?|expires?|valid\s+(?:until|through|thru)|until|through|before)\s*:?\s*((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:,?\s*\d{4})?|\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?|\d{4}-\d{2}-\d{2}|today|tonight|midnight|sunday|monday|tuesday|wednesday|thursday|friday|saturday)`)
	conditionsRe  = regexp.MustCompile(`(?i)\b((?:on|for)\s+(?:orders?|purchases?)\s+(?:over|above|of)\s+[$€£]?\s?\d+(?:\.\d{2})?|(?:new|first[-\s]time)\s+(?:customers?|users?|subscribers?)(?:\s+only)?|(?:on|with)\s+(?:annual|yearly)\s+(?:plans?|billing|subscriptions?)|(?:minimum|min\.?)\s+(?:spend|purchase|order)\s+(?:of\s+)?[$€£]?\s?\d+|(?:first|1st)\s+(?:month|year|order))`)
)

// discountRule is one discount pattern. Rules are tried in order and the
// first hit decides the type.
type discountRule struct {
	re   *regexp.Regexp
	kind string
}

var discountRules = []discountRule{
	{regexp.MustCompile(`(?i)(\d{1,3})\s?%\s*(?:off|discount|savings?)|(?:save|get|take)\s+(?:up\s+to\s+)?(\d{1,3})\s?%|(\d{1,3})\s?%`), models.DiscountPercentage},
	{regexp.MustCompile(`(?i)([$€£]\s?\d+(?:\.\d{2})?)\s*off|save\s+([$€£]\s?\d+(?:\.\d{2})?)`), models.DiscountFixed},
	{regexp.MustCompile(`(?i)\bbogo\b|buy\s+one,?\s+get\s+one|buy\s+\d+\s*,?\s*get\s+\d+`), models.DiscountBOGO},
	{regexp.MustCompile(`(?i)free\s+trial|try\s+(?:it\s+)?(?:for\s+)?free|\d+[-\s]day\s+(?:free\s+)?trial`), models.DiscountFreeTrial},
	{regexp.MustCompile(`(?i)free\s+(?:shipping|delivery)`), models.DiscountFreeShipping},
	{regexp.MustCompile(`(?i)limited[-\s]time|flash\s+sale|today\s+only|ends?\s+(?:soon|today|tonight)`), models.DiscountLimitedTime},
}

const (
	minDiscountText = 5
	maxDiscountText = 200
	discountTextCap = 120
	longDiscount    = 120
)

type discountFacts struct {
	discountContext bool
	explicitValue   bool
	urgency         bool
	chrome          bool
	longText        bool
	scriptLike      bool
}

func scoreDiscount(f discountFacts, w DiscountWeights) float64 {
	return score(w.Base,
		factor{f.discountContext, w.DiscountContext},
		factor{f.explicitValue, w.ExplicitValue},
		factor{f.urgency, w.Urgency},
		factor{f.chrome, w.Chrome},
		factor{f.longText, w.LongText},
		factor{f.scriptLike, w.ScriptLike},
	)
}

// Discounts extracts sale and offer statements. Each candidate element
// yields at most one discount.
func (e *Extractor) Discounts(doc *cleaner.Document) []models.DiscountItem {
	w := e.weights.Discount
	var items []models.DiscountItem

	visit := func(n cleaner.Node, inContext bool) {
		text := n.Text()
		l := len([]rune(text))
		if l < minDiscountText || l > maxDiscountText {
			return
		}
		item, ok := classifyDiscount(text)
		if !ok {
			return
		}
		item.Confidence = scoreDiscount(discountFacts{
			discountContext: inContext,
			explicitValue:   item.Percentage != "" || item.Amount != "",
			urgency:         urgencyRe.MatchString(text),
			chrome:          n.Within(chromeSel) || n.Is(chromeSel),
			longText:        l > longDiscount,
			scriptLike:      looksLikeScript(text),
		}, w)
		items = append(items, item)
	}

	for _, n := range doc.QueryAll(discountClassSel) {
		visit(n, true)
	}
	for _, n := range doc.QueryAll(discountCueSel) {
		if n.Is(discountClassSel) || !discountCueRe.MatchString(n.Text()) {
			continue
		}
		if innerDiscount(n) {
			continue
		}
		visit(n, n.Within(discountClassSel))
	}

	return rank(items,
		func(it models.DiscountItem) float64 { return it.Confidence },
		func(it models.DiscountItem) string { return textKey(it.Text) },
		w.Min, w.Cap)
}

// classifyDiscount applies discountRules to text.
func classifyDiscount(text string) (models.DiscountItem, bool) {
	for _, r := range discountRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		item := models.DiscountItem{
			Text:       cleaner.Truncate(text, discountTextCap),
			Type:       r.kind,
			Conditions: conditions(text),
			ValidUntil: validUntil(text),
		}
		switch r.kind {
		case models.DiscountPercentage:
			pct := firstGroup(m)
			if n, err := strconv.Atoi(pct); err != nil || n < 1 || n > 100 {
				continue
			}
			item.Percentage = pct
		case models.DiscountFixed:
			item.Amount = strings.ReplaceAll(firstGroup(m), " ", "")
		}
		return item, true
	}
	return models.DiscountItem{}, false
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// innerDiscount reports whether a descendant of n already carries the cue,
// so only the innermost statement is kept.
func innerDiscount(n cleaner.Node) bool {
	for _, c := range n.QueryAll(discountCueSel) {
		if discountCueRe.MatchString(c.Text()) {
			return true
		}
	}
	return false
}

func validUntil(text string) string {
	if m := validUntilRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func conditions(text string) string {
	if m := conditionsRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
