package cleaner

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Signal weights for the block scorer.
const (
	wTextDensity   = 3.0
	wLinkDensity   = -2.0
	wTagWeight     = 1.5
	wClassIDWeight = 1.0
	wTextLength    = 0.5
)

// Commercial pages put their substance in hero, pricing and feature blocks,
// so those count as content alongside the usual article markers.
var positiveClassID = []string{
	"content", "main", "article", "hero", "pricing", "plan", "feature",
	"product", "offer", "benefit", "tier",
}

var negativeClassID = []string{
	"sidebar", "nav", "menu", "footer", "cookie", "consent", "social",
	"share", "modal", "popup", "newsletter", "breadcrumb", "comment", "widget",
}

var bodySel = MustSelector("body")

// pruneMain keeps the top-level body blocks that score as content and
// returns their HTML. When nothing qualifies the whole body is returned.
func pruneMain(d *Document) string {
	body, ok := d.QueryFirst(bodySel)
	if !ok {
		return d.HTML()
	}

	var kept []string
	body.sel.Children().Each(func(_ int, el *goquery.Selection) {
		if blockScore(el) <= 0 {
			return
		}
		if h, err := goquery.OuterHtml(el); err == nil {
			kept = append(kept, h)
		}
	})

	if len(kept) == 0 {
		h, err := body.sel.Html()
		if err != nil {
			return ""
		}
		return h
	}
	return strings.Join(kept, "\n")
}

// blockScore weighs text density, link density, semantic tag and
// class/id hints of a block.
func blockScore(el *goquery.Selection) float64 {
	outer, err := goquery.OuterHtml(el)
	if err != nil || len(outer) == 0 {
		return 0
	}

	text := nodeText(el.Get(0))
	textLen := len(text)
	if textLen == 0 {
		return 0
	}

	linkLen := 0
	el.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkLen += len(CollapseSpace(a.Text()))
	})

	textDensity := float64(textLen) / float64(len(outer))
	linkDensity := float64(linkLen) / float64(textLen)

	return textDensity*wTextDensity +
		linkDensity*wLinkDensity +
		tagWeight(goquery.NodeName(el))*wTagWeight +
		classIDWeight(Node{sel: el}.ClassID())*wClassIDWeight +
		math.Log10(float64(textLen)+1)*wTextLength
}

func tagWeight(tag string) float64 {
	switch tag {
	case "article", "main", "section":
		return 5.0
	case "nav", "footer", "aside", "header":
		return -5.0
	}
	return 0
}

func classIDWeight(classID string) float64 {
	score := 0.0
	for _, p := range positiveClassID {
		if strings.Contains(classID, p) {
			score += 3.0
			break
		}
	}
	for _, p := range negativeClassID {
		if strings.Contains(classID, p) {
			score -= 3.0
			break
		}
	}
	return score
}
