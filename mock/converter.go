package mock

import "github.com/fwojciec/pagecache"

var _ pagecache.TextConverter = (*TextConverter)(nil)

// TextConverter is a mock implementation of pagecache.TextConverter.
type TextConverter struct {
	ConvertFn func(html string) (string, error)
}

func (c *TextConverter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ pagecache.TitleExtractor = (*TitleExtractor)(nil)

// TitleExtractor is a mock implementation of pagecache.TitleExtractor.
type TitleExtractor struct {
	TitleFn func(html string) (string, error)
}

func (e *TitleExtractor) Title(html string) (string, error) {
	return e.TitleFn(html)
}
