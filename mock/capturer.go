// Package mock provides mock implementations of pagecache interfaces
// for testing.
package mock

import (
	"context"

	"github.com/fwojciec/pagecache"
)

var _ pagecache.Capturer = (*Capturer)(nil)

// Capturer is a mock implementation of pagecache.Capturer.
type Capturer struct {
	CaptureFn func(ctx context.Context, url string) *pagecache.Capture
	CloseFn   func() error
}

func (c *Capturer) Capture(ctx context.Context, url string) *pagecache.Capture {
	return c.CaptureFn(ctx, url)
}

func (c *Capturer) Close() error {
	if c.CloseFn == nil {
		return nil
	}
	return c.CloseFn()
}
