package mock

import (
	"context"

	"github.com/fwojciec/pagecache"
)

var _ pagecache.Store = (*Store)(nil)

// Store is a mock implementation of pagecache.Store.
type Store struct {
	HasFn         func(url string) pagecache.Kind
	PutWebFn      func(ctx context.Context, url, text string, screenshot []byte) error
	PutDocumentFn func(ctx context.Context, url string, data []byte) error
	GetWebFn      func(ctx context.Context, url string, withScreenshot bool) (string, []byte, error)
	GetDocumentFn func(ctx context.Context, url string) ([]byte, error)
	DeleteFn      func(ctx context.Context, url string) error
	URLsFn        func() []string
	SummaryFn     func() pagecache.Summary
	SaveFn        func(ctx context.Context) error
}

func (s *Store) Has(url string) pagecache.Kind {
	return s.HasFn(url)
}

func (s *Store) PutWeb(ctx context.Context, url, text string, screenshot []byte) error {
	return s.PutWebFn(ctx, url, text, screenshot)
}

func (s *Store) PutDocument(ctx context.Context, url string, data []byte) error {
	return s.PutDocumentFn(ctx, url, data)
}

func (s *Store) GetWeb(ctx context.Context, url string, withScreenshot bool) (string, []byte, error) {
	return s.GetWebFn(ctx, url, withScreenshot)
}

func (s *Store) GetDocument(ctx context.Context, url string) ([]byte, error) {
	return s.GetDocumentFn(ctx, url)
}

func (s *Store) Delete(ctx context.Context, url string) error {
	return s.DeleteFn(ctx, url)
}

func (s *Store) URLs() []string {
	return s.URLsFn()
}

func (s *Store) Summary() pagecache.Summary {
	return s.SummaryFn()
}

func (s *Store) Save(ctx context.Context) error {
	return s.SaveFn(ctx)
}
