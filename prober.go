package pagecache

import "context"

// DocumentProber decides whether a URL points at a document file (e.g. a
// PDF) rather than a renderable page, and fetches such documents directly.
// Both operations are best effort: a false negative simply routes the URL
// through page capture instead.
type DocumentProber interface {
	// IsDocumentLike reports whether the URL appears to serve a document
	// payload, typically via content negotiation.
	IsDocumentLike(ctx context.Context, url string) bool

	// FetchBytes retrieves the raw document payload.
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}
