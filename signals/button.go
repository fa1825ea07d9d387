package signals

import (
	"regexp"
	"strings"

	"github.com/use-agent/rivalscope/cleaner"
	"github.com/use-agent/rivalscope/models"
)

var (
	buttonCandidates = cleaner.MustSelector(`button, [role="button"], .btn, [class*="button"], a[class*="btn"], a[class*="cta"], input[type="submit"], input[type="button"], [class*="call-to-action"]`)
	primaryClassSel  = cleaner.MustSelector(`[class*="primary"], [class*="cta"], [class*="call-to-action"], [class*="btn-lg"], [class*="main"]`)
	heroSel          = cleaner.MustSelector(`[class*="hero"], [class*="banner"], [class*="cta"], [class*="jumbotron"], [class*="masthead"]`)
	linkSel          = cleaner.MustSelector(`a[href]`)
)

var (
	invalidButtonRe = regexp.MustCompile(`(?i)^(?:home|privacy|terms|cookies?|close|dismiss|cancel|back|next|previous|prev|menu|search|skip|toggle|accept|reject|ok|×|x|✕|←|→|‹|›|«|»|\.\.\.|more|share|like|follow)$`)
	actionKeywordRe = regexp.MustCompile(`(?i)get\s+started|sign\s*up|start|try|buy|purchase|subscribe|order|contact|talk\s+to|book|request|demo|download|join|upgrade|choose|select|claim|shop|learn\s+more|see\s+pricing|view\s+plans`)
)

// buttonTypes is ordered by priority: the first match wins.
var buttonTypes = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?i)sign\s*up|register|create\s+(?:an\s+)?account|join|get\s+started`), models.ButtonSignup},
	{regexp.MustCompile(`(?i)\btrial\b|try\s+(?:it\s+)?(?:for\s+)?free|start\s+free|try\s+now`), models.ButtonTrial},
	{regexp.MustCompile(`(?i)\bdemo\b|book\s+a\s+call|schedule`), models.ButtonDemo},
	{regexp.MustCompile(`(?i)\bbuy\b|purchase|add\s+to\s+cart|checkout|order\s+now|subscribe|upgrade|choose\s+plan|select\s+plan`), models.ButtonPurchase},
	{regexp.MustCompile(`(?i)contact|talk\s+to|get\s+in\s+touch|call\s+us|sales`), models.ButtonContact},
	{regexp.MustCompile(`(?i)download|install|get\s+the\s+app`), models.ButtonDownload},
	{regexp.MustCompile(`(?i)pricing|view\s+plans|see\s+plans|compare\s+plans`), models.ButtonPricing},
}

const maxButtonText = 60

type buttonFacts struct {
	primaryClass  bool
	actionKeyword bool
	heroContext   bool
	chrome        bool
	scriptLike    bool
}

func scoreButton(f buttonFacts, w ButtonWeights) float64 {
	return score(w.Base,
		factor{f.primaryClass, w.PrimaryClass},
		factor{f.actionKeyword, w.ActionKeyword},
		factor{f.heroContext, w.HeroContext},
		factor{f.chrome, w.Chrome},
		factor{f.scriptLike, w.ScriptLike},
	)
}

// Buttons extracts calls to action. Buttons in site chrome are kept but
// scored lower.
func (e *Extractor) Buttons(doc *cleaner.Document) []models.ButtonItem {
	w := e.weights.Button
	var items []models.ButtonItem

	for _, n := range doc.QueryAll(buttonCandidates) {
		// A wrapper styled as a button around a real one.
		if n.Count(buttonCandidates) > 0 {
			continue
		}
		text := buttonText(n)
		if l := len([]rune(text)); l < 1 || l > maxButtonText || invalidButtonRe.MatchString(text) {
			continue
		}

		planName := ""
		if p, ok := planOf(n); ok {
			planName = p.name
		}
		items = append(items, models.ButtonItem{
			Text: text,
			Type: buttonType(text),
			URL:  buttonURL(doc, n),
			Plan: planName,
			Confidence: scoreButton(buttonFacts{
				primaryClass:  n.Is(primaryClassSel),
				actionKeyword: actionKeywordRe.MatchString(text),
				heroContext:   n.Within(heroSel),
				chrome:        n.Within(chromeSel),
				scriptLike:    looksLikeScript(text),
			}, w),
		})
	}

	return rank(items,
		func(it models.ButtonItem) float64 { return it.Confidence },
		ButtonKey,
		w.Min, w.Cap)
}

// ButtonKey is the dedup key for buttons: the label, case and spacing
// folded. Identical labels pointing at different plans collapse to the
// highest-scoring one.
func ButtonKey(it models.ButtonItem) string {
	return textKey(it.Text)
}

// buttonText is the visible label, falling back to value and aria-label.
func buttonText(n cleaner.Node) string {
	if t := n.Text(); t != "" {
		return t
	}
	for _, attr := range []string{"value", "aria-label", "title"} {
		if v, ok := n.Attr(attr); ok {
			if v = cleaner.CollapseSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func buttonType(text string) string {
	for _, t := range buttonTypes {
		if t.re.MatchString(text) {
			return t.kind
		}
	}
	return models.ButtonCTA
}

// buttonURL resolves the button's own href or that of its enclosing link.
func buttonURL(doc *cleaner.Document, n cleaner.Node) string {
	href, ok := n.Attr("href")
	if !ok {
		if a, found := n.Closest(linkSel); found {
			href, _ = a.Attr("href")
		}
	}
	if href = strings.TrimSpace(href); href == "" {
		return ""
	}
	if u, ok := doc.Resolve(href); ok {
		return u
	}
	return ""
}
