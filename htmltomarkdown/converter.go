// Package htmltomarkdown derives plain-text payloads from rendered HTML.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/pagecache"
)

// Ensure Converter implements pagecache.TextConverter at compile time.
var _ pagecache.TextConverter = (*Converter)(nil)

// Converter turns rendered HTML into readable plain text. It runs
// html-to-markdown first, then strips the markup that carries no reading
// value in a text payload: link targets, emphasis markers, and image
// syntax (kept as the alt text).
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into plain text.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", pagecache.Errorf(pagecache.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return flatten(result), nil
}

var (
	imageRE    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRE     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasisRE = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
)

// flatten strips markdown decoration from the converted text. Images
// collapse to their alt text and must be handled before links, since the
// link pattern matches the tail of an image.
func flatten(markdown string) string {
	text := imageRE.ReplaceAllString(markdown, "$1")
	text = linkRE.ReplaceAllString(text, "$1")
	text = emphasisRE.ReplaceAllString(text, "$2")
	return strings.TrimSpace(text)
}
