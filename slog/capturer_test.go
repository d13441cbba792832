package slog_test

import (
	"bytes"
	"context"
	stdslog "log/slog"
	"testing"

	"github.com/fwojciec/pagecache"
	"github.com/fwojciec/pagecache/mock"
	pagecacheslog "github.com/fwojciec/pagecache/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingCapturer_Capture(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := stdslog.New(stdslog.NewTextHandler(&buf, nil))

	next := &mock.Capturer{
		CaptureFn: func(_ context.Context, url string) *pagecache.Capture {
			return &pagecache.Capture{Text: "hello", Screenshot: []byte("png")}
		},
	}

	capturer := pagecacheslog.NewLoggingCapturer(next, logger)
	capture := capturer.Capture(context.Background(), "https://example.com")

	require.NotNil(t, capture)
	assert.Equal(t, "hello", capture.Text)

	out := buf.String()
	assert.Contains(t, out, "msg=capture")
	assert.Contains(t, out, "url=https://example.com")
	assert.Contains(t, out, "bytes=5")
	assert.Contains(t, out, "failed=false")
}

func TestLoggingCapturer_Close(t *testing.T) {
	t.Parallel()

	closed := false
	next := &mock.Capturer{
		CaptureFn: func(context.Context, string) *pagecache.Capture { return nil },
		CloseFn:   func() error { closed = true; return nil },
	}

	capturer := pagecacheslog.NewLoggingCapturer(next, stdslog.New(stdslog.DiscardHandler))
	require.NoError(t, capturer.Close())
	assert.True(t, closed)
}
