package signals

import (
	"regexp"
	"strings"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

var (
	couponClassSel = cleaner.MustSelector(`[class*="coupon"], [class*="promo"], [class*="voucher"], [class*="code"], [id*="coupon"], [id*="promo"]`)
	couponDataSel  = cleaner.MustSelector(`[data-coupon], [data-promo-code], [data-code]`)
	couponCueSel   = cleaner.MustSelector(`p, li, span, strong, b, em, div, h1, h2, h3, h4, h5, h6, td, small, a, button, label, code`)
	copyControlSel = cleaner.MustSelector(`[class*="copy"], [data-clipboard-text], [data-copy]`)
)

var (
	cueRe       = regexp.MustCompile(`(?i)\b(?:code|coupon|promo|voucher)\b`)
	cuedCodeRe  = regexp.MustCompile(`(?i:code|coupon|promo(?:\s*code)?|voucher)\s*[:\-]?\s*["“'‘]?([A-Z0-9][A-Z0-9_-]{2,19})\b`)
	genericRe   = regexp.MustCompile(`\b[A-Z0-9]{4,15}\b`)
	percentRe   = regexp.MustCompile(`(\d{1,3})\s?%`)
	amountRe    = regexp.MustCompile(`[$€£]\s?\d+(?:[.,]\d{1,2})?`)
	hasLetterRe = regexp.MustCompile(`[A-Z]`)
	expiryRe    = regexp.MustCompile(`(?i)(?:expires?|ends?|valid\s+(?:until|through|thru)|until|through)\s*:?\s*((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:,?\s*\d{4})?|\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?|\d{4}-\d{2}-\d{2}|today|tonight|midnight|sunday|monday|tuesday|wednesday|thursday|friday|saturday)`)
)

// couponStopwords are capitalised words that look like codes but are UI
// labels.
var couponStopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`HOME ABOUT CONTACT LOGIN LOGOUT SIGNUP SIGNIN REGISTER MENU SEARCH CART HELP FAQ
		CODE CODES COUPON COUPONS PROMO VOUCHER OFF SALE FREE NEW NOW SHOP BUY GET SAVE DEAL DEALS
		USD EUR GBP APPLY COPY COPIED SUBMIT CLOSE MORE VIEW SHOW HIDE NEXT PREV BACK TERMS PRIVACY
		HTTP HTTPS HTML JSON API SALES BLOG NEWS OFFER OFFERS ONLY TODAY WITH YOUR THIS THAT FROM
		PRICING PLANS PLAN`) {
		couponStopwords[w] = struct{}{}
	}
}

const (
	maxCouponDescription = 100
	maxCueTextLen        = 200
)

type couponFacts struct {
	cue           bool
	couponContext bool
	dataAttr      bool
	hasValue      bool
	copyControl   bool
	chrome        bool
	scriptLike    bool
}

func scoreCoupon(f couponFacts, w CouponWeights) float64 {
	return score(w.Base,
		factor{f.cue, w.Cue},
		factor{f.couponContext, w.CouponContext},
		factor{f.dataAttr, w.DataAttr},
		factor{f.hasValue, w.HasValue},
		factor{f.copyControl, w.CopyControl},
		factor{f.chrome, w.Chrome},
		factor{f.scriptLike, w.ScriptLike},
	)
}

// Coupons extracts promotional codes.
func (e *Extractor) Coupons(doc *cleaner.Document) []models.CouponItem {
	w := e.weights.Coupon
	var items []models.CouponItem

	add := func(n cleaner.Node, code, text string, f couponFacts) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !validCode(code) {
			return
		}
		f.hasValue = percentRe.MatchString(text) || amountRe.MatchString(text)
		f.copyControl = hasCopyControl(n)
		f.chrome = n.Within(chromeSel) || n.Is(chromeSel)
		f.scriptLike = looksLikeScript(text)
		items = append(items, models.CouponItem{
			Code:        code,
			Description: cleaner.Truncate(text, maxCouponDescription),
			Discount:    couponValue(text),
			Expiry:      expiry(text),
			Confidence:  scoreCoupon(f, w),
		})
	}

	for _, n := range doc.QueryAll(couponDataSel) {
		for _, attr := range []string{"data-coupon", "data-promo-code", "data-code"} {
			if v, ok := n.Attr(attr); ok && v != "" {
				add(n, v, contextText(n), couponFacts{dataAttr: true, couponContext: true})
			}
		}
	}

	for _, n := range doc.QueryAll(couponClassSel) {
		text := n.Text()
		if text == "" || len([]rune(text)) > maxCueTextLen {
			continue
		}
		if n.Tag() == "code" || isBareCode(text) {
			add(n, text, contextText(n), couponFacts{couponContext: true, cue: cueRe.MatchString(contextText(n))})
			continue
		}
		for _, m := range cuedCodeRe.FindAllStringSubmatch(text, -1) {
			add(n, m[1], text, couponFacts{couponContext: true, cue: true})
		}
		for _, m := range genericRe.FindAllString(text, -1) {
			add(n, m, text, couponFacts{couponContext: true})
		}
	}

	for _, n := range doc.QueryAll(couponCueSel) {
		text := n.Text()
		if text == "" || len([]rune(text)) > maxCueTextLen || !cueRe.MatchString(text) {
			continue
		}
		// Only the innermost element carrying the cue.
		if innerCue(n) {
			continue
		}
		inContext := n.Within(couponClassSel)
		for _, m := range cuedCodeRe.FindAllStringSubmatch(text, -1) {
			add(n, m[1], text, couponFacts{cue: true, couponContext: inContext})
		}
	}

	return rank(items,
		func(it models.CouponItem) float64 { return it.Confidence },
		func(it models.CouponItem) string { return it.Code },
		w.Min, w.Cap)
}

// validCode rejects tokens that are words, numbers or UI labels.
func validCode(code string) bool {
	if l := len(code); l < 3 || l > 20 {
		return false
	}
	if !hasLetterRe.MatchString(code) {
		return false
	}
	if _, stop := couponStopwords[code]; stop {
		return false
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// isBareCode reports whether text is a single code-shaped token.
func isBareCode(text string) bool {
	return !strings.ContainsAny(text, " \t") && strings.ToUpper(text) == text && len(text) >= 3 && len(text) <= 20
}

func innerCue(n cleaner.Node) bool {
	for _, c := range n.QueryAll(couponCueSel) {
		if cueRe.MatchString(c.Text()) && cuedCodeRe.MatchString(c.Text()) {
			return true
		}
	}
	return false
}

// contextText is the text of n's parent when n alone is too short to
// carry a description.
func contextText(n cleaner.Node) string {
	text := n.Text()
	if p, ok := n.Parent(); ok {
		if pt := p.Text(); len([]rune(pt)) <= maxCueTextLen && len(pt) > len(text) {
			return pt
		}
	}
	return text
}

func hasCopyControl(n cleaner.Node) bool {
	if n.Count(copyControlSel) > 0 {
		return true
	}
	if p, ok := n.Parent(); ok {
		return p.Count(copyControlSel) > 0
	}
	return false
}

// couponValue is the percentage or currency amount next to a code.
func couponValue(text string) string {
	if m := percentRe.FindStringSubmatch(text); m != nil {
		return m[1] + "%"
	}
	if m := amountRe.FindString(text); m != "" {
		return strings.ReplaceAll(m, " ", "")
	}
	return "See details"
}

func expiry(text string) string {
	if m := expiryRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
