package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// inlineTags carry no layout; skipping them keeps copy edits such as a new
// <strong> from registering as a structural change.
var inlineTags = map[string]bool{
	"b": true, "strong": true, "i": true, "em": true, "span": true,
	"small": true, "sup": true, "sub": true, "br": true, "wbr": true,
}

// FingerprintDOM computes a SimHash over the page's element structure,
// ignoring text and attributes. A large distance between two runs means
// the competitor redesigned the page rather than edited its copy.
func FingerprintDOM(htmlStr string) uint64 {
	tags := structuralTags(htmlStr)
	if len(tags) == 0 {
		return 0
	}
	if sh := shingles(tags, 3); len(sh) > 0 {
		return fromTokens(sh)
	}
	return fromTokens(tags)
}

// structuralTags collects open tag names in document order.
func structuralTags(htmlStr string) []string {
	z := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tags
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := z.TagName()
			if name := string(tn); !inlineTags[name] {
				tags = append(tags, name)
			}
		}
	}
}

// shingles joins every run of n consecutive tokens.
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}
