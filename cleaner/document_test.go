package cleaner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rivalscope/models"
)

func mustNormalize(t *testing.T, html string) *Document {
	t.Helper()
	doc, err := Normalize(html, "https://acme.test/product/")
	require.NoError(t, err)
	return doc
}

func TestNormalizeStripsNonContent(t *testing.T) {
	doc := mustNormalize(t, `<html><head><style>.price{}</style><script>var price = 1;</script></head>
<body><noscript>enable js</noscript><iframe src="x"></iframe><object></object><embed>
<div class="price">$49</div></body></html>`)

	text := doc.Root().Text()
	assert.Equal(t, "$49", text)
	assert.NotContains(t, doc.HTML(), "<script")
	assert.NotContains(t, doc.HTML(), "<iframe")
}

func TestNodeTextSeparatesBlocks(t *testing.T) {
	doc := mustNormalize(t, `<ul class="f"><li>Unlimited users</li><li>SSO</li></ul><p><sup>$</sup>49<span>/mo</span></p>`)

	ul, ok := doc.QueryFirst(MustSelector("ul"))
	require.True(t, ok)
	assert.Equal(t, "Unlimited users SSO", ul.Text())

	p, ok := doc.QueryFirst(MustSelector("p"))
	require.True(t, ok)
	assert.Equal(t, "$49/mo", p.Text())
}

func TestClosestAndWithin(t *testing.T) {
	doc := mustNormalize(t, `<nav><a class="btn">Home</a></nav><div class="plan-card"><h3>Pro</h3><span class="price">$49</span></div>`)

	price, ok := doc.QueryFirst(MustSelector(".price"))
	require.True(t, ok)

	card, ok := price.Closest(MustSelector(`[class*="plan"]`))
	require.True(t, ok)
	h, ok := card.QueryFirst(MustSelector("h3"))
	require.True(t, ok)
	assert.Equal(t, "Pro", h.Text())

	self, ok := price.Closest(MustSelector(".price"))
	require.True(t, ok)
	assert.Equal(t, "span", self.Tag(), "closest starts at the node itself")
	assert.Equal(t, "$49", self.Text())

	btn, _ := doc.QueryFirst(MustSelector(".btn"))
	assert.True(t, btn.Within(MustSelector("nav")))
	assert.False(t, price.Within(MustSelector("nav")))
}

func TestTitleFallbacks(t *testing.T) {
	assert.Equal(t, "Acme Pricing", mustNormalize(t, `<title> Acme  Pricing </title><h1>Other</h1>`).Title())
	assert.Equal(t, "Plans for teams", mustNormalize(t, `<h1>Plans for teams</h1>`).Title())
	assert.Equal(t, models.PlaceholderTitle, mustNormalize(t, `<p>nothing</p>`).Title())
}

func TestDescriptionFallbacks(t *testing.T) {
	assert.Equal(t, "Meta desc", mustNormalize(t,
		`<meta name="description" content="Meta desc"><meta property="og:description" content="OG">`).Description())
	assert.Equal(t, "OG desc", mustNormalize(t,
		`<meta property="og:description" content="OG desc"><p>para</p>`).Description())

	long := strings.Repeat("word ", 80)
	desc := mustNormalize(t, `<p></p><p>`+long+`</p>`).Description()
	assert.LessOrEqual(t, len([]rune(desc)), 200)
	assert.True(t, strings.HasPrefix(desc, "word word"))

	assert.Equal(t, models.PlaceholderDescription, mustNormalize(t, `<div>x</div>`).Description())
}

func TestLinksResolveAgainstBase(t *testing.T) {
	doc := mustNormalize(t, `<head><base href="https://acme.test/"></head>
<a href="/pricing#top">Pricing</a><a href="pricing">dup?</a><a href="mailto:a@b">mail</a>
<a href="#faq">faq</a><a href="https://other.test/deals">Deals</a>`)

	links := doc.Links()
	require.Len(t, links, 2)
	assert.Equal(t, Link{URL: "https://acme.test/pricing", Text: "Pricing"}, links[0])
	assert.Equal(t, "https://other.test/deals", links[1].URL)
}

func TestHeadingsDeduplicated(t *testing.T) {
	doc := mustNormalize(t, `<h1>Pricing</h1><h2>Pro</h2><h2>Pro</h2><h3></h3><h4>ignored</h4>`)
	assert.Equal(t, []string{"Pricing", "Pro"}, doc.Headings())
}

func TestSnapshot(t *testing.T) {
	doc := mustNormalize(t, `<html><head><title>Acme</title></head><body>
<nav><a href="/">Home</a><a href="/login">Login</a></nav>
<section class="pricing"><h2>Pro</h2><p>Everything a growing team needs, $49 per month, billed monthly. <a href="/signup">Start now</a></p></section>
<footer>© Acme</footer></body></html>`)

	snap := NewSnapshotter().Snapshot(doc)
	assert.Equal(t, "Acme", snap.Title)
	assert.Equal(t, []string{"Pro"}, snap.Headings)
	assert.Contains(t, snap.Markdown, "$49 per month")
	assert.Contains(t, snap.Markdown, "https://acme.test/signup")
	assert.Len(t, snap.ContentHash, 16)
	assert.Len(t, snap.StructureHash, 16)
	assert.Positive(t, snap.Tokens)
}

func TestToCitations(t *testing.T) {
	in := "See [Pro](https://x.test/pro) and [Pro again](https://x.test/pro) or [Team](https://x.test/team)"
	got := toCitations(in)
	assert.Equal(t, "See [Pro][1] and [Pro again][1] or [Team][2]\n\n---\n[1]: https://x.test/pro\n[2]: https://x.test/team", got)
	assert.Equal(t, "no links", toCitations("no links"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens("123456789"))
}
