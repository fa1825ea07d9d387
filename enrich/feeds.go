package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/rivalscope/models"
)

// feeds records RSS and Atom feeds the page advertises.
func feeds(doc *goquery.Document, base *url.URL, r *Result) {
	seen := make(map[string]bool)
	doc.Find(`link[type="application/rss+xml"], link[type="application/atom+xml"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		feedURL := resolve(base, href)
		if feedURL == "" || seen[feedURL] {
			return
		}
		seen[feedURL] = true

		typ, _ := s.Attr("type")
		data := map[string]string{"feedUrl": feedURL, "format": strings.TrimSuffix(strings.TrimPrefix(typ, "application/"), "+xml")}
		if title, ok := s.Attr("title"); ok {
			putIf(data, "title", strings.TrimSpace(title))
		}
		r.Findings = append(r.Findings, models.Finding{
			Source:     SourceFeed,
			Kind:       "feed",
			URL:        feedURL,
			Data:       data,
			Confidence: confidenceFeed,
		})
	})
}

var endpointRe = regexp.MustCompile(`(?i)(?:api|endpoint)["']?\s*:\s*["']([^"']+)["']`)

// endpoints finds API endpoint strings in inline scripts that mention
// prices or products.
func endpoints(doc *goquery.Document, base *url.URL, r *Result) {
	var b strings.Builder
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if typ, _ := s.Attr("type"); typ == "application/ld+json" {
			return
		}
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})

	seen := make(map[string]bool)
	for _, m := range endpointRe.FindAllStringSubmatch(b.String(), -1) {
		apiURL := m[1]
		lower := strings.ToLower(apiURL)
		if !strings.Contains(lower, "price") && !strings.Contains(lower, "product") {
			continue
		}
		if seen[apiURL] {
			continue
		}
		seen[apiURL] = true
		r.Findings = append(r.Findings, models.Finding{
			Source:     SourceAPIEndpoint,
			Kind:       "endpoint",
			URL:        resolve(base, apiURL),
			Data:       map[string]string{"apiUrl": apiURL},
			Confidence: confidenceAPIEndpoint,
		})
	}
}
