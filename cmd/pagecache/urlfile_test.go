package main_test

import (
	"os"
	"path/filepath"
	"testing"

	main "github.com/fwojciec/pagecache/cmd/pagecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadURLFile(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "urls")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("newline list with comments", func(t *testing.T) {
		t.Parallel()

		path := write(t, "https://example.com/a\n\n# a comment\nhttps://example.com/b\n")
		file, err := main.ReadURLFile(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, file.URLs)
		assert.Nil(t, file.Sources)
	})

	t.Run("json array", func(t *testing.T) {
		t.Parallel()

		path := write(t, `["https://example.com/a", "https://example.com/b"]`)
		file, err := main.ReadURLFile(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, file.URLs)
	})

	t.Run("json discovery record", func(t *testing.T) {
		t.Parallel()

		path := write(t, `{
			"urls": ["https://example.com/a", "https://example.com/b"],
			"sources": {"https://example.com/a": ["report.pdf", "notes.md"]}
		}`)
		file, err := main.ReadURLFile(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, file.URLs)
		assert.Equal(t, []string{"report.pdf", "notes.md"}, file.Sources["https://example.com/a"])
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		path := write(t, `["https://example.com/a"`)
		_, err := main.ReadURLFile(path)

		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := main.ReadURLFile(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}
