// Package goquery implements HTML metadata extraction.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagecache"
)

// Ensure TitleExtractor implements pagecache.TitleExtractor at compile time.
var _ pagecache.TitleExtractor = (*TitleExtractor)(nil)

// TitleExtractor pulls a display title out of rendered HTML: the document
// title element, falling back to the first h1 when the title is empty.
type TitleExtractor struct{}

// NewTitleExtractor creates a new TitleExtractor.
func NewTitleExtractor() *TitleExtractor {
	return &TitleExtractor{}
}

// Title returns the page title for the given HTML, or "" when the page
// declares none.
func (e *TitleExtractor) Title(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", pagecache.Errorf(pagecache.EINVALID, "failed to parse HTML: %v", err)
	}

	if title := clean(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}
	return clean(doc.Find("h1").First().Text()), nil
}

// clean collapses internal whitespace runs, which are common in
// pretty-printed markup.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
