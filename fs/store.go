// Package fs provides the file-based content-addressable store for
// captured page content. One Store owns one task directory.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagecache"
	"github.com/fwojciec/pagecache/bloom"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Ensure Store implements pagecache.Store at compile time.
var _ pagecache.Store = (*Store)(nil)

// indexFile is the per-task index file name. The index is the single
// source of truth for "is this URL cached"; payload files without an
// index entry are orphans and are never read.
const indexFile = "index.json"

// DefaultJPEGQuality is the encoding quality for stored screenshots.
const DefaultJPEGQuality = 85

// Bloom sizing for the comparable-form scan guard. A false positive only
// costs a redundant linear scan.
const (
	bloomExpectedURLs = 10000
	bloomFPRate       = 0.01
)

// Store is a task-scoped store mapping canonical URLs to content payloads
// named by a content hash key. Payload files are written synchronously on
// every put; the index is flushed only by Save, so a crash mid-run loses
// at most unflushed index entries, which the load-time integrity sweep
// ignores on the next run.
//
// Store supports concurrent reads and concurrent writes for distinct URLs.
type Store struct {
	dir    string
	logger *slog.Logger

	mu         sync.RWMutex
	index      map[string]pagecache.Kind
	comparable *bloom.Filter
	dropped    int

	jpegQuality int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithJPEGQuality sets the screenshot encoding quality.
// Defaults to DefaultJPEGQuality.
func WithJPEGQuality(q int) Option {
	return func(s *Store) { s.jpegQuality = q }
}

// NewStore opens (creating if absent) the store rooted at dir, loads the
// index file, and runs the integrity sweep: any index entry whose backing
// payload file(s) are missing is dropped so the store is self-consistent
// even if a previous process died mid-write.
func NewStore(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:         dir,
		index:       make(map[string]pagecache.Kind),
		comparable:  bloom.NewFilter(bloomExpectedURLs, bloomFPRate),
		jpegQuality: DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s.loadIndex()
	return s, nil
}

// loadIndex reads the index file and reconciles it against the payload
// files on disk. A missing or malformed index degrades to an empty one
// (everything needs refetching) rather than failing the run.
func (s *Store) loadIndex() {
	loaded := make(map[string]pagecache.Kind)

	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		s.logger.Warn("failed to read index, starting empty", "dir", s.dir, "error", err)
	default:
		if err := json.Unmarshal(data, &loaded); err != nil {
			s.logger.Warn("malformed index, starting empty", "dir", s.dir, "error", err)
			loaded = make(map[string]pagecache.Kind)
		}
	}

	for url, kind := range loaded {
		if !s.payloadsExist(url, kind) {
			s.dropped++
			s.logger.Warn("missing payload files, dropping index entry", "url", url, "kind", kind)
			continue
		}
		s.index[url] = kind
		s.comparable.Add(pagecache.ComparableURL(url))
	}
}

// payloadsExist verifies the backing file(s) for an entry's kind.
func (s *Store) payloadsExist(url string, kind pagecache.Kind) bool {
	h := s.hashKey(url)
	switch kind {
	case pagecache.KindWeb:
		return fileExists(s.textPath(h)) && fileExists(s.shotPath(h))
	case pagecache.KindDocument:
		return fileExists(s.pdfPath(h)) || fileExists(s.binPath(h))
	}
	return false
}

// Dropped returns the number of index entries discarded by the integrity
// sweep at load time.
func (s *Store) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Has returns the content kind cached for url, or KindNone. It resolves
// the URL against the in-memory index only.
func (s *Store) Has(url string) pagecache.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.resolve(url)
	if !ok {
		return pagecache.KindNone
	}
	return s.index[stored]
}

// resolve finds the stored key matching url. Lookup order: exact string,
// exact canonical form, comparable-form scan (Bloom-guarded), variant
// membership. Must be called with mu held.
func (s *Store) resolve(url string) (string, bool) {
	if _, ok := s.index[url]; ok {
		return url, true
	}
	if canonical := pagecache.CanonicalURL(url); canonical != url {
		if _, ok := s.index[canonical]; ok {
			return canonical, true
		}
	}

	// Linear scan over stored keys, acceptable at the scale of a few
	// thousand URLs per task. The Bloom filter skips it for URLs whose
	// comparable form was never stored.
	comparable := pagecache.ComparableURL(url)
	if s.comparable.Test(comparable) {
		for stored := range s.index {
			if pagecache.ComparableURL(stored) == comparable {
				return stored, true
			}
		}
	}

	for _, variant := range pagecache.URLVariants(url) {
		if _, ok := s.index[variant]; ok {
			return variant, true
		}
		if canonical := pagecache.CanonicalURL(variant); canonical != variant {
			if _, ok := s.index[canonical]; ok {
				return canonical, true
			}
		}
	}
	return "", false
}

// PutWeb stores a rendered page: the text payload and the screenshot
// (re-encoded to JPEG) are written to disk first, then the in-memory
// index is updated. Overwrites any prior payload for the same resource.
func (s *Store) PutWeb(ctx context.Context, url, text string, screenshot []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := pagecache.CanonicalURL(url)
	h := s.hashKey(key)

	if err := os.WriteFile(s.textPath(h), []byte(text), 0644); err != nil {
		return fmt.Errorf("writing text payload: %w", err)
	}
	jpg := convertToJPEG(screenshot, s.jpegQuality, s.logger)
	if err := os.WriteFile(s.shotPath(h), jpg, 0644); err != nil {
		return fmt.Errorf("writing screenshot payload: %w", err)
	}

	s.mu.Lock()
	s.index[key] = pagecache.KindWeb
	s.comparable.Add(pagecache.ComparableURL(key))
	s.mu.Unlock()
	return nil
}

// PutDocument stores an opaque document payload. Bytes that validate as a
// PDF are stored with a .pdf name, anything else as .bin.
func (s *Store) PutDocument(ctx context.Context, url string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := pagecache.CanonicalURL(url)
	h := s.hashKey(key)

	path := s.binPath(h)
	if isPDF(data) {
		path = s.pdfPath(h)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing document payload: %w", err)
	}

	s.mu.Lock()
	s.index[key] = pagecache.KindDocument
	s.comparable.Add(pagecache.ComparableURL(key))
	s.mu.Unlock()
	return nil
}

// GetWeb returns the stored text and, if withScreenshot, the screenshot
// bytes for url.
func (s *Store) GetWeb(ctx context.Context, url string, withScreenshot bool) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	s.mu.RLock()
	stored, ok := s.resolve(url)
	if !ok || s.index[stored] != pagecache.KindWeb {
		s.mu.RUnlock()
		return "", nil, pagecache.Errorf(pagecache.ENOTFOUND, "no web content for URL: %s", url)
	}
	s.mu.RUnlock()

	h := s.hashKey(stored)
	text, err := os.ReadFile(s.textPath(h))
	if err != nil {
		return "", nil, fmt.Errorf("reading text payload: %w", err)
	}
	var shot []byte
	if withScreenshot {
		if shot, err = os.ReadFile(s.shotPath(h)); err != nil {
			return "", nil, fmt.Errorf("reading screenshot payload: %w", err)
		}
	}
	return string(text), shot, nil
}

// GetDocument returns the stored document bytes for url.
func (s *Store) GetDocument(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stored, ok := s.resolve(url)
	if !ok || s.index[stored] != pagecache.KindDocument {
		s.mu.RUnlock()
		return nil, pagecache.Errorf(pagecache.ENOTFOUND, "no document content for URL: %s", url)
	}
	s.mu.RUnlock()

	h := s.hashKey(stored)
	for _, path := range []string{s.pdfPath(h), s.binPath(h)} {
		if fileExists(path) {
			return os.ReadFile(path)
		}
	}
	return nil, pagecache.Errorf(pagecache.ENOTFOUND, "document payload missing for URL: %s", url)
}

// Delete removes a URL's payload file(s) and index entry.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.resolve(url)
	if !ok {
		return pagecache.Errorf(pagecache.ENOTFOUND, "no content for URL: %s", url)
	}

	h := s.hashKey(stored)
	for _, path := range []string{s.textPath(h), s.shotPath(h), s.pdfPath(h), s.binPath(h)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing payload: %w", err)
		}
	}
	delete(s.index, stored)
	return nil
}

// URLs returns all indexed canonical URLs, sorted.
func (s *Store) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.index))
	for url := range s.index {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Summary returns aggregate entry counts.
func (s *Store) Summary() pagecache.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := pagecache.Summary{TotalURLs: len(s.index)}
	for _, kind := range s.index {
		switch kind {
		case pagecache.KindWeb:
			sum.WebPages++
		case pagecache.KindDocument:
			sum.Documents++
		}
	}
	return sum
}

// Save serializes the in-memory index to the index file via a temp file
// and an atomic rename, so a crash during Save never corrupts the index.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.index, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	path := filepath.Join(s.dir, indexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// hashKey derives the content hash key from a canonical URL. It is used
// only as a filename component; identity comparisons always go through
// the index.
func (s *Store) hashKey(url string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(pagecache.CanonicalURL(url)))
}

func (s *Store) textPath(hash string) string { return filepath.Join(s.dir, hash+".txt") }
func (s *Store) shotPath(hash string) string { return filepath.Join(s.dir, hash+".jpg") }
func (s *Store) pdfPath(hash string) string  { return filepath.Join(s.dir, hash+".pdf") }
func (s *Store) binPath(hash string) string  { return filepath.Join(s.dir, hash+".bin") }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// isPDF reports whether data is a valid PDF: a header check first, then
// structural validation with pdfcpu.
func isPDF(data []byte) bool {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return false
	}
	_, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	return err == nil
}
