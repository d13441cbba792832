package fs_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/pagecache"
	"github.com/fwojciec/pagecache/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetWeb(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	// Store a rendered page, then read it back with and without the
	// screenshot.
	err = store.PutWeb(ctx, "https://example.com/page", "page text", testPNG(t))
	require.NoError(t, err)

	text, shot, err := store.GetWeb(ctx, "https://example.com/page", true)
	require.NoError(t, err)
	assert.Equal(t, "page text", text)
	assert.NotEmpty(t, shot)

	text, shot, err = store.GetWeb(ctx, "https://example.com/page", false)
	require.NoError(t, err)
	assert.Equal(t, "page text", text)
	assert.Nil(t, shot)

	assert.Equal(t, pagecache.KindWeb, store.Has("https://example.com/page"))
}

func TestStore_ScreenshotReencodedAsJPEG(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.PutWeb(ctx, "https://example.com", "text", testPNG(t))
	require.NoError(t, err)

	_, shot, err := store.GetWeb(ctx, "https://example.com", true)
	require.NoError(t, err)

	_, err = jpeg.Decode(bytes.NewReader(shot))
	assert.NoError(t, err, "stored screenshot should decode as JPEG")
}

func TestStore_ScreenshotRawPassthrough(t *testing.T) {
	t.Parallel()

	// Bytes that are not a decodable image are stored verbatim rather
	// than lost.
	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	raw := []byte("not an image")
	err = store.PutWeb(ctx, "https://example.com", "text", raw)
	require.NoError(t, err)

	_, shot, err := store.GetWeb(ctx, "https://example.com", true)
	require.NoError(t, err)
	assert.Equal(t, raw, shot)
}

func TestStore_PutGetDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	data := []byte{0x01, 0x02, 0x03}
	err = store.PutDocument(ctx, "https://example.com/report", data)
	require.NoError(t, err)

	got, err := store.GetDocument(ctx, "https://example.com/report")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.Equal(t, pagecache.KindDocument, store.Has("https://example.com/report"))
}

func TestStore_DocumentExtensionByContent(t *testing.T) {
	t.Parallel()

	// Payloads that are not valid PDFs get the opaque .bin name.
	ctx := context.Background()
	dir := t.TempDir()
	store, err := fs.NewStore(dir)
	require.NoError(t, err)

	err = store.PutDocument(ctx, "https://example.com/data", []byte("%PDF-1.7 truncated"))
	require.NoError(t, err)

	bins, err := filepath.Glob(filepath.Join(dir, "*.bin"))
	require.NoError(t, err)
	assert.Len(t, bins, 1)

	pdfs, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	require.NoError(t, err)
	assert.Empty(t, pdfs)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.GetWeb(ctx, "https://example.com/missing", false)
	assert.Equal(t, pagecache.ENOTFOUND, pagecache.ErrorCode(err))

	_, err = store.GetDocument(ctx, "https://example.com/missing")
	assert.Equal(t, pagecache.ENOTFOUND, pagecache.ErrorCode(err))

	assert.Equal(t, pagecache.KindNone, store.Has("https://example.com/missing"))
}

func TestStore_HasResolvesVariants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.PutWeb(ctx, "https://example.com/docs", "text", nil)
	require.NoError(t, err)

	// Same resource spelled differently still hits the cache.
	lookups := []string{
		"https://example.com/docs",
		"https://example.com/docs/",
		"https://example.com/docs#section",
		"https://example.com/docs?utm_source=chatgpt.com",
		"http://example.com/docs",
		"https://www.example.com/docs",
		"https://example.com/docs?utm_source=chatgpt.com#ref",
		"https://example.com/docs/%3Futm_source%3Dchatgpt.com",
	}
	for _, lookup := range lookups {
		assert.Equal(t, pagecache.KindWeb, store.Has(lookup), "lookup %q", lookup)
	}
}

func TestStore_VariantsShareOnePayload(t *testing.T) {
	t.Parallel()

	// Writing under a variant spelling overwrites the same resource
	// rather than creating a second entry.
	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.PutWeb(ctx, "https://example.com/docs#intro", "first", nil))
	require.NoError(t, store.PutWeb(ctx, "https://example.com/docs#usage", "second", nil))

	assert.Equal(t, pagecache.Summary{TotalURLs: 1, WebPages: 1}, store.Summary())

	text, _, err := store.GetWeb(ctx, "https://example.com/docs", false)
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestStore_SaveAndReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := fs.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.PutWeb(ctx, "https://example.com/a", "a", nil))
	require.NoError(t, store.PutDocument(ctx, "https://example.com/b.pdf", []byte("data")))
	require.NoError(t, store.Save(ctx))

	reloaded, err := fs.NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, pagecache.KindWeb, reloaded.Has("https://example.com/a"))
	assert.Equal(t, pagecache.KindDocument, reloaded.Has("https://example.com/b.pdf"))
	assert.Equal(t, pagecache.Summary{TotalURLs: 2, WebPages: 1, Documents: 1}, reloaded.Summary())
	assert.Zero(t, reloaded.Dropped())
}

func TestStore_UnsavedEntriesNotReloaded(t *testing.T) {
	t.Parallel()

	// Without Save the index file never learns about the entry, so a
	// new Store starts from the last flushed state.
	ctx := context.Background()
	dir := t.TempDir()

	store, err := fs.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.PutWeb(ctx, "https://example.com/a", "a", nil))

	reloaded, err := fs.NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, pagecache.KindNone, reloaded.Has("https://example.com/a"))
}

func TestStore_IntegritySweepDropsOrphanedEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := fs.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.PutWeb(ctx, "https://example.com/keep", "keep", nil))
	require.NoError(t, store.PutWeb(ctx, "https://example.com/lost", "lost", nil))
	require.NoError(t, store.Save(ctx))

	// Simulate a partial write by deleting one entry's text payload.
	removePayload(t, dir, "lost")

	reloaded, err := fs.NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, pagecache.KindWeb, reloaded.Has("https://example.com/keep"))
	assert.Equal(t, pagecache.KindNone, reloaded.Has("https://example.com/lost"))
	assert.Equal(t, 1, reloaded.Dropped())
}

func TestStore_MalformedIndexStartsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0644)
	require.NoError(t, err)

	store, err := fs.NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, pagecache.Summary{}, store.Summary())
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.PutWeb(ctx, "https://example.com/a", "a", nil))

	// Delete accepts a variant spelling too.
	require.NoError(t, store.Delete(ctx, "https://example.com/a/"))
	assert.Equal(t, pagecache.KindNone, store.Has("https://example.com/a"))

	err = store.Delete(ctx, "https://example.com/a")
	assert.Equal(t, pagecache.ENOTFOUND, pagecache.ErrorCode(err))
}

func TestStore_URLs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.PutWeb(ctx, "https://example.com/b", "b", nil))
	require.NoError(t, store.PutWeb(ctx, "https://example.com/a", "a", nil))

	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, store.URLs())
}

// testPNG encodes a small opaque image for use as a screenshot payload.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.NRGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// removePayload deletes the .txt payload file holding the given content.
func removePayload(t *testing.T, dir, content string) {
	t.Helper()

	texts, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	for _, path := range texts {
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		if string(got) == content {
			require.NoError(t, os.Remove(path))
			return
		}
	}
	t.Fatalf("no payload with content %q", content)
}
