package cleaner

import (
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the shortest readability text accepted as the page's
// main content.
const minContentLength = 50

// readableArticle runs Mozilla Readability over htmlStr. ok is false when
// extraction failed or found too little text to trust.
func readableArticle(htmlStr string, base *url.URL) (readability.Article, bool) {
	article, err := readability.FromReader(strings.NewReader(htmlStr), base)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", base.String(), "error", err)
		return readability.Article{}, false
	}
	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Debug("readability: content too short", "url", base.String(), "length", len(article.TextContent))
		return article, false
	}
	return article, true
}
