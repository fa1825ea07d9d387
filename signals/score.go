package signals

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/use-agent/rivalscope/cleaner"
)

const (
	minConfidence = 0.1
	maxConfidence = 1.0
)

// factor is one conditional adjustment to a base confidence.
type factor struct {
	on    bool
	delta float64
}

// score adds the deltas of all active factors to base and clamps the sum.
func score(base float64, factors ...factor) float64 {
	c := base
	for _, f := range factors {
		if f.on {
			c += f.delta
		}
	}
	return clamp(c)
}

// clamp bounds c to [0.1, 1.0] and rounds to two decimals so equal inputs
// always serialise identically.
func clamp(c float64) float64 {
	c = math.Max(minConfidence, math.Min(maxConfidence, c))
	return math.Round(c*100) / 100
}

// rank drops items under min, orders by confidence (stable, so document
// order breaks ties), keeps the first item per key and cuts to limit.
// The result is never nil.
func rank[T any](items []T, conf func(T) float64, key func(T) string, min float64, limit int) []T {
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if conf(it) >= min {
			kept = append(kept, it)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return conf(kept[i]) > conf(kept[j]) })

	seen := make(map[string]struct{}, len(kept))
	out := make([]T, 0, min2(len(kept), limit))
	for _, it := range kept {
		k := key(it)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// textKey folds case and spacing for text-keyed deduplication.
func textKey(s string) string {
	return strings.ToLower(cleaner.CollapseSpace(s))
}

// scriptLike matches code that leaked into visible text.
var scriptLike = []*regexp.Regexp{
	regexp.MustCompile(`function\s*\(`),
	regexp.MustCompile(`\b(?:var|let|const)\s+\w+\s*=`),
	regexp.MustCompile(`\|\||&&`),
	regexp.MustCompile(`\breturn\s+`),
	regexp.MustCompile(`console\.|document\.|window\.`),
	regexp.MustCompile(`\$\{|\}\$`),
	regexp.MustCompile(`=>`),
	regexp.MustCompile(`\d{10,}`),
}

// looksLikeScript reports whether text contains code-like syntax.
func looksLikeScript(text string) bool {
	for _, re := range scriptLike {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var (
	// chromeSel marks site chrome rather than page content.
	chromeSel = cleaner.MustSelector(`nav, header, footer, [role="navigation"]`)

	// menuSel widens chromeSel with class-named menus.
	menuSel = cleaner.MustSelector(`nav, header, footer, [role="navigation"], .navigation, .menu, [class*="navbar"], [class*="nav-"], [class*="menu"], [class*="breadcrumb"]`)

	scriptSel = cleaner.MustSelector("script, style, noscript")

	planContainerSel = cleaner.MustSelector(`[class*="plan"], [class*="tier"], [class*="card"], [class*="package"]`)

	planNameSel = cleaner.MustSelector(`h1, h2, h3, h4, h5, .title, [class*="title"], [class*="name"], [class*="label"]`)
)

// plan is the pricing tier a node belongs to.
type plan struct {
	name      string
	container cleaner.Node
}

// planOf finds the plan a node sits in: the nearest plan/tier/card
// container with a usable heading, or failing that the closest of the
// next three ancestors that carries one.
func planOf(n cleaner.Node) (plan, bool) {
	if c, ok := n.Closest(planContainerSel); ok {
		if name := headingIn(c); name != "" {
			return plan{name: name, container: c}, true
		}
	}
	cur := n
	for i := 0; i < 3; i++ {
		p, ok := cur.Parent()
		if !ok {
			break
		}
		if name := headingIn(p); name != "" {
			return plan{name: name, container: p}, true
		}
		cur = p
	}
	return plan{}, false
}

// headingIn returns the first plausible plan name inside c: short, and
// not itself a price.
func headingIn(c cleaner.Node) string {
	for _, h := range c.QueryAll(planNameSel) {
		t := h.Text()
		if l := len([]rune(t)); l < 2 || l >= 50 {
			continue
		}
		if strings.ContainsAny(t, "$€£") || priceRe.MatchString(t) {
			continue
		}
		return t
	}
	return ""
}
