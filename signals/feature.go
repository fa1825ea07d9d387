package signals

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

var (
	featureCandidates = cleaner.MustSelector(`li, [class*="feature"], [class*="benefit"], [class*="capability"], [class*="include"], [class*="spec"]`)
	featureContextSel = cleaner.MustSelector(`ul, ol, [class*="feature"], [class*="benefit"], [class*="capability"], [class*="include"]`)
	blockChildSel     = cleaner.MustSelector(`li, ul, ol, section, table`)
	paragraphSel      = cleaner.MustSelector(`div, p`)
	iconSel           = cleaner.MustSelector(`svg, i, img, [class*="icon"], [class*="check"], [class*="tick"]`)
)

var (
	invalidFeatureRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(?:home|about|contact|login|log in|sign in|menu|search|cart|blog|careers|help|support|docs|privacy|terms|cookies?)$`),
		regexp.MustCompile(`(?i)©|copyright|all rights reserved`),
		regexp.MustCompile(`(?i)\b(?:toggle|search|shopping cart|skip to)\b`),
		regexp.MustCompile(`^[\d\s\p{P}\p{S}]+$`),
		regexp.MustCompile(`(?i)javascript:|onclick=`),
	}
	checkGlyphRe = regexp.MustCompile(`^[✓✔☑✅•]\s*`)
)

var featureCategories = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)enterprise|\bsso\b|saml|audit|compliance|dedicated|\bsla\b|custom contract|on[-\s]?prem`), models.FeatureEnterprise},
	{regexp.MustCompile(`(?i)premium|advanced|priority|unlimited|\bpro\b|white[-\s]?label`), models.FeaturePremium},
	{regexp.MustCompile(`(?i)add[-\s]?on|extra|optional|additional|\bupgrade\b`), models.FeatureAddon},
}

const (
	minFeatureText  = 5
	maxFeatureText  = 200
	longFeature     = 150
	minSentenceText = 9
)

type featureFacts struct {
	listContext bool
	sentence    bool
	icon        bool
	planContext bool
	longText    bool
	scriptLike  bool
	scriptTag   bool
}

func scoreFeature(f featureFacts, w FeatureWeights) float64 {
	return score(w.Base,
		factor{f.listContext, w.ListContext},
		factor{f.sentence, w.Sentence},
		factor{f.icon, w.Icon},
		factor{f.planContext, w.PlanContext},
		factor{f.longText, w.LongText},
		factor{f.scriptLike, w.ScriptLike},
		factor{f.scriptTag, w.ScriptTag},
	)
}

// Features extracts product capability statements. Navigation, menus and
// container elements are skipped; only leaf-like statements count.
func (e *Extractor) Features(doc *cleaner.Document) []models.FeatureItem {
	w := e.weights.Feature
	var items []models.FeatureItem

	for _, n := range doc.QueryAll(featureCandidates) {
		if n.Is(menuSel) || n.Within(menuSel) {
			continue
		}
		if n.Count(blockChildSel) > 0 || n.Count(paragraphSel) > 2 {
			continue
		}
		text := checkGlyphRe.ReplaceAllString(n.Text(), "")
		l := len([]rune(text))
		if l < minFeatureText || l > maxFeatureText || invalidFeature(text) {
			continue
		}

		p, inPlan := planOf(n)
		planName := ""
		if inPlan {
			planName = p.name
		}
		items = append(items, models.FeatureItem{
			Text:     text,
			Category: featureCategory(text),
			Plan:     planName,
			Confidence: scoreFeature(featureFacts{
				listContext: n.Within(featureContextSel) || n.Is(featureContextSel),
				sentence:    isSentence(text),
				icon:        n.Count(iconSel) > 0 || checkGlyphRe.MatchString(n.Text()),
				planContext: inPlan,
				longText:    l > longFeature,
				scriptLike:  looksLikeScript(text),
				scriptTag:   n.Within(scriptSel),
			}, w),
		})
	}

	return rank(items,
		func(it models.FeatureItem) float64 { return it.Confidence },
		func(it models.FeatureItem) string { return textKey(it.Text) },
		w.Min, w.Cap)
}

func invalidFeature(text string) bool {
	for _, re := range invalidFeatureRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func featureCategory(text string) string {
	for _, c := range featureCategories {
		if c.re.MatchString(text) {
			return c.category
		}
	}
	return models.FeatureCore
}

func isSentence(text string) bool {
	if len([]rune(text)) < minSentenceText {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(r)
}
