package pagecache

import "context"

// Kind identifies the content stored for a URL.
type Kind string

// Content kinds.
const (
	// KindWeb is a rendered page: readable text plus a screenshot.
	KindWeb Kind = "web"

	// KindDocument is an opaque byte blob, e.g. a PDF fetched directly.
	KindDocument Kind = "document"

	// KindNone means the URL is not cached.
	KindNone Kind = ""
)

// Summary reports aggregate counts for a store.
type Summary struct {
	TotalURLs int `json:"totalUrls"`
	WebPages  int `json:"webPages"`
	Documents int `json:"documents"`
}

// Store persists one task's captured entries, keyed by canonical URL.
//
// Has resolves the URL through the layered identity lookup (exact key,
// comparable-form scan, variant membership) against the in-memory index
// only; it never touches disk after construction. Put calls write payload
// files immediately but mutate the index in memory only; Save is the
// explicit index flush.
//
// A Store must support concurrent reads, and concurrent writes for
// distinct URLs (the orchestrator never issues two concurrent operations
// for the same resource).
type Store interface {
	// Has returns the content kind cached for url, or KindNone.
	Has(url string) Kind

	// PutWeb stores a rendered page. The screenshot is re-encoded to the
	// store's raster format. A prior entry for the same resource is
	// overwritten.
	PutWeb(ctx context.Context, url, text string, screenshot []byte) error

	// PutDocument stores an opaque document payload.
	PutDocument(ctx context.Context, url string, data []byte) error

	// GetWeb returns the stored text and, if withScreenshot, the
	// screenshot bytes. Returns ENOTFOUND if the URL is unresolved or
	// cached as a different kind.
	GetWeb(ctx context.Context, url string, withScreenshot bool) (text string, screenshot []byte, err error)

	// GetDocument returns the stored document bytes.
	// Returns ENOTFOUND if the URL is unresolved or cached as web.
	GetDocument(ctx context.Context, url string) ([]byte, error)

	// Delete removes a URL's payload file(s) and index entry.
	// Returns ENOTFOUND if the URL is unresolved.
	Delete(ctx context.Context, url string) error

	// URLs returns all indexed canonical URLs.
	URLs() []string

	// Summary returns aggregate entry counts.
	Summary() Summary

	// Save flushes the in-memory index to disk.
	Save(ctx context.Context) error
}
