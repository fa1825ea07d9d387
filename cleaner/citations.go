package cleaner

import (
	"fmt"
	"regexp"
	"strings"
)

// inlineLinkRe matches Markdown inline links: [text](url)
var inlineLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)

// toCitations moves inline link targets into a numbered reference list at
// the end, so a changed URL shows up as one line in a diff instead of
// rewriting the paragraph around it. Repeated URLs share a number.
//
//	"See [Pro](https://x.test/pro)" -> "See [Pro][1]\n\n---\n[1]: https://x.test/pro"
func toCitations(markdown string) string {
	urlToNum := make(map[string]int)
	var refs []string

	body := inlineLinkRe.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := inlineLinkRe.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		text, target := parts[1], parts[2]

		num, ok := urlToNum[target]
		if !ok {
			num = len(refs) + 1
			urlToNum[target] = num
			refs = append(refs, fmt.Sprintf("[%d]: %s", num, target))
		}
		return fmt.Sprintf("[%s][%d]", text, num)
	})

	if len(refs) == 0 {
		return markdown
	}
	return body + "\n\n---\n" + strings.Join(refs, "\n")
}
