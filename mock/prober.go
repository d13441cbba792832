package mock

import (
	"context"

	"github.com/fwojciec/pagecache"
)

var _ pagecache.DocumentProber = (*DocumentProber)(nil)

// DocumentProber is a mock implementation of pagecache.DocumentProber.
type DocumentProber struct {
	IsDocumentLikeFn func(ctx context.Context, url string) bool
	FetchBytesFn     func(ctx context.Context, url string) ([]byte, error)
}

func (p *DocumentProber) IsDocumentLike(ctx context.Context, url string) bool {
	return p.IsDocumentLikeFn(ctx, url)
}

func (p *DocumentProber) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return p.FetchBytesFn(ctx, url)
}
