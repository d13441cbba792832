// Package slog provides logging decorators for pagecache interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/pagecache"
)

// Ensure LoggingCapturer implements pagecache.Capturer.
var _ pagecache.Capturer = (*LoggingCapturer)(nil)

// LoggingCapturer wraps a Capturer with per-capture logging.
type LoggingCapturer struct {
	next   pagecache.Capturer
	logger *slog.Logger
}

// NewLoggingCapturer creates a new LoggingCapturer.
func NewLoggingCapturer(next pagecache.Capturer, logger *slog.Logger) *LoggingCapturer {
	return &LoggingCapturer{next: next, logger: logger}
}

// Capture logs the URL, payload sizes, and duration of each capture,
// and delegates to the wrapped capturer.
func (c *LoggingCapturer) Capture(ctx context.Context, url string) *pagecache.Capture {
	begin := time.Now()
	capture := c.next.Capture(ctx, url)
	c.logger.Info("capture",
		"url", url,
		"bytes", len(capture.Text),
		"screenshot_bytes", len(capture.Screenshot),
		"failed", capture.Failed,
		"duration", time.Since(begin),
	)
	return capture
}

// Close delegates to the wrapped capturer.
func (c *LoggingCapturer) Close() error {
	return c.next.Close()
}
