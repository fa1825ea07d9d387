package cleaner

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/use-agent/rivalscope/models"
	"github.com/use-agent/rivalscope/simhash"
)

// maxSnapshotRunes caps the markdown kept for change analysis.
const maxSnapshotRunes = 10000

// Snapshotter renders a Document into a ContentSnapshot. The converter is
// created once and reused; Snapshotter is safe for concurrent use.
type Snapshotter struct {
	md *converter.Converter
}

// NewSnapshotter creates a Snapshotter.
func NewSnapshotter() *Snapshotter {
	return &Snapshotter{md: newMarkdownConverter()}
}

// Snapshot digests d for downstream diffing:
//  1. main content: readability and block pruning run side by side and the
//     more plausible result wins
//  2. markdown with citation-style links, capped at 10,000 runes
//  3. token estimate plus content and DOM-structure simhashes
func (s *Snapshotter) Snapshot(d *Document) *models.ContentSnapshot {
	normalized := d.HTML()
	mainHTML := s.mainContent(d, normalized)

	md, err := toMarkdown(s.md, mainHTML, d.base.String())
	if err != nil {
		slog.Debug("snapshot: markdown conversion failed", "url", d.base.String(), "error", err)
		md = nodeText(d.doc.Get(0))
	}
	md = Truncate(toCitations(md), maxSnapshotRunes)

	return &models.ContentSnapshot{
		Title:         d.Title(),
		Description:   d.Description(),
		Headings:      d.Headings(),
		Markdown:      md,
		Tokens:        EstimateTokens(md),
		ContentHash:   fmt.Sprintf("%016x", simhash.Fingerprint(md)),
		StructureHash: fmt.Sprintf("%016x", simhash.FingerprintDOM(normalized)),
	}
}

// mainContent picks between readability output and pruned blocks. The
// longer text wins unless it is more than ten times the other, which
// usually means it swallowed navigation and footers.
func (s *Snapshotter) mainContent(d *Document, normalized string) string {
	var (
		wg          sync.WaitGroup
		articleOK   bool
		articleHTML string
		articleTxt  string
		pruned      string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		a, ok := readableArticle(normalized, d.URL())
		articleOK, articleHTML, articleTxt = ok, a.Content, CollapseSpace(a.TextContent)
	}()
	go func() {
		defer wg.Done()
		pruned = pruneMain(d)
	}()
	wg.Wait()

	if !articleOK {
		return pruned
	}

	prunedLen := len(textOf(pruned))
	articleLen := len(articleTxt)
	useArticle := articleLen >= prunedLen
	if useArticle && prunedLen > minContentLength && articleLen > 10*prunedLen {
		useArticle = false
	} else if !useArticle && articleLen > minContentLength && prunedLen > 10*articleLen {
		useArticle = true
	}

	if useArticle {
		return articleHTML
	}
	return pruned
}

// textOf returns the visible text of an HTML fragment.
func textOf(fragment string) string {
	doc, err := Normalize(fragment, "about:blank")
	if err != nil {
		return ""
	}
	return doc.Root().Text()
}
