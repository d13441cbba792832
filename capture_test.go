package pagecache_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/fwojciec/pagecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelCapture(t *testing.T) {
	t.Parallel()

	t.Run("is marked failed with the fixed error text", func(t *testing.T) {
		t.Parallel()

		c := pagecache.SentinelCapture()
		assert.True(t, c.Failed)
		assert.Equal(t, pagecache.ErrorText, c.Text)
	})

	t.Run("screenshot is a decodable 1x1 transparent image", func(t *testing.T) {
		t.Parallel()

		c := pagecache.SentinelCapture()
		img, err := png.Decode(bytes.NewReader(c.Screenshot))
		require.NoError(t, err)
		assert.Equal(t, 1, img.Bounds().Dx())
		assert.Equal(t, 1, img.Bounds().Dy())
		_, _, _, a := img.At(0, 0).RGBA()
		assert.Zero(t, a, "sentinel pixel should be fully transparent")
	})

	t.Run("is stable across calls", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, pagecache.SentinelCapture(), pagecache.SentinelCapture())
	})
}
