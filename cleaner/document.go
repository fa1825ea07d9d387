package cleaner

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContent lists subtrees removed before any extractor sees the page.
var nonContent = MustSelector("script, style, noscript, iframe, object, embed, template")

// Document is a parsed, normalised HTML page. It is read-only after
// Normalize returns and safe for concurrent readers.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Normalize parses rawHTML and strips script, style, noscript, iframe,
// object and embed subtrees. pageURL is the address the HTML was served
// from; a <base href> in the page overrides it for link resolution.
func Normalize(rawHTML, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("cleaner: parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("cleaner: parse page url: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = b
		}
	}

	doc.FindMatcher(nonContent.m).Remove()

	return &Document{doc: doc, base: base}, nil
}

// URL returns the base URL relative links resolve against.
func (d *Document) URL() *url.URL {
	u := *d.base
	return &u
}

// Root returns the document element.
func (d *Document) Root() Node {
	return Node{sel: d.doc.Selection}
}

// QueryAll returns all elements matching sel in document order.
func (d *Document) QueryAll(sel Selector) []Node {
	return d.Root().QueryAll(sel)
}

// QueryFirst returns the first element matching sel.
func (d *Document) QueryFirst(sel Selector) (Node, bool) {
	return d.Root().QueryFirst(sel)
}

// Resolve turns href into an absolute http(s) URL without fragment.
func (d *Document) Resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := d.base.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

// HTML renders the normalised document.
func (d *Document) HTML() string {
	h, err := d.doc.Html()
	if err != nil {
		return ""
	}
	return h
}

// Node is one element of a Document.
type Node struct {
	sel *goquery.Selection
}

// Valid reports whether n refers to an element.
func (n Node) Valid() bool { return n.sel != nil && n.sel.Length() > 0 }

// Text returns the element's visible text, whitespace collapsed.
func (n Node) Text() string {
	if !n.Valid() {
		return ""
	}
	return nodeText(n.sel.Get(0))
}

// Attr returns the named attribute.
func (n Node) Attr(name string) (string, bool) {
	if !n.Valid() {
		return "", false
	}
	return n.sel.Attr(name)
}

// Tag returns the lower-case element name.
func (n Node) Tag() string {
	if !n.Valid() {
		return ""
	}
	return goquery.NodeName(n.sel)
}

// ClassID returns the lower-cased class and id attributes joined by a space.
func (n Node) ClassID() string {
	class, _ := n.Attr("class")
	id, _ := n.Attr("id")
	return strings.ToLower(strings.TrimSpace(class + " " + id))
}

// Is reports whether the element itself matches sel.
func (n Node) Is(sel Selector) bool {
	return n.Valid() && sel.valid() && n.sel.IsMatcher(sel.m)
}

// Closest returns the nearest element, starting with n itself, that
// matches sel.
func (n Node) Closest(sel Selector) (Node, bool) {
	if !n.Valid() || !sel.valid() {
		return Node{}, false
	}
	c := n.sel.ClosestMatcher(sel.m)
	if c.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: c.First()}, true
}

// Within reports whether a strict ancestor of n matches sel.
func (n Node) Within(sel Selector) bool {
	return n.Valid() && sel.valid() && n.sel.ParentsMatcher(sel.m).Length() > 0
}

// Parent returns the parent element.
func (n Node) Parent() (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	p := n.sel.Parent()
	if p.Length() == 0 || goquery.NodeName(p) == "#document" {
		return Node{}, false
	}
	return Node{sel: p}, true
}

// QueryAll returns descendants of n matching sel in document order.
func (n Node) QueryAll(sel Selector) []Node {
	if !n.Valid() || !sel.valid() {
		return nil
	}
	found := n.sel.FindMatcher(sel.m)
	nodes := make([]Node, found.Length())
	for i := range nodes {
		nodes[i] = Node{sel: found.Eq(i)}
	}
	return nodes
}

// QueryFirst returns the first descendant of n matching sel.
func (n Node) QueryFirst(sel Selector) (Node, bool) {
	if !n.Valid() || !sel.valid() {
		return Node{}, false
	}
	found := n.sel.FindMatcher(sel.m)
	if found.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: found.First()}, true
}

// Count returns how many descendants match sel.
func (n Node) Count(sel Selector) int {
	if !n.Valid() || !sel.valid() {
		return 0
	}
	return n.sel.FindMatcher(sel.m).Length()
}
