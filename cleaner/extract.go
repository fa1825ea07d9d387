package cleaner

import (
	"strings"

	"github.com/use-agent/rivalscope/models"
)

var (
	titleSel     = MustSelector("title")
	h1Sel        = MustSelector("h1")
	metaDescSel  = MustSelector(`meta[name="description"], meta[name="Description"]`)
	ogDescSel    = MustSelector(`meta[property="og:description"]`)
	paragraphSel = MustSelector("p")
	headingSel   = MustSelector("h1, h2, h3")
	anchorSel    = MustSelector("a[href]")
)

const (
	maxDescription = 200
	maxHeadings    = 20
)

// Title returns the page title, falling back to the first h1 and then to
// a placeholder.
func (d *Document) Title() string {
	if n, ok := d.QueryFirst(titleSel); ok {
		if t := n.Text(); t != "" {
			return t
		}
	}
	if n, ok := d.QueryFirst(h1Sel); ok {
		if t := n.Text(); t != "" {
			return t
		}
	}
	return models.PlaceholderTitle
}

// Description returns the meta description, then og:description, then the
// first non-empty paragraph cut to 200 characters, then a placeholder.
func (d *Document) Description() string {
	for _, sel := range []Selector{metaDescSel, ogDescSel} {
		if n, ok := d.QueryFirst(sel); ok {
			if c, _ := n.Attr("content"); strings.TrimSpace(c) != "" {
				return CollapseSpace(c)
			}
		}
	}
	for _, p := range d.QueryAll(paragraphSel) {
		if t := p.Text(); t != "" {
			return Truncate(t, maxDescription)
		}
	}
	return models.PlaceholderDescription
}

// Headings returns up to 20 distinct h1-h3 texts in document order.
func (d *Document) Headings() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range d.QueryAll(headingSel) {
		t := h.Text()
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxHeadings {
			break
		}
	}
	return out
}

// Link is an anchor resolved to an absolute URL.
type Link struct {
	URL  string
	Text string
}

// Links returns every http(s) anchor on the page, resolved and with
// fragments dropped, deduplicated by URL.
func (d *Document) Links() []Link {
	seen := make(map[string]struct{})
	var links []Link
	for _, a := range d.QueryAll(anchorSel) {
		href, _ := a.Attr("href")
		abs, ok := d.Resolve(href)
		if !ok {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, Link{URL: abs, Text: a.Text()})
	}
	return links
}
