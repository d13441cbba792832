// Package http implements document probing and retrieval over plain HTTP
// for URLs that point at downloadable files rather than renderable pages.
package http

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/pagecache"
)

// DefaultProbeTimeout is the default timeout for probe requests.
const DefaultProbeTimeout = 10 * time.Second

// DefaultMaxDocumentSize caps fetched document payloads at 50MB.
const DefaultMaxDocumentSize = 50 << 20

// sniffLen is how many leading bytes a ranged probe requests; enough for
// http.DetectContentType.
const sniffLen = 512

// documentTypes are content types treated as downloadable documents
// rather than renderable pages.
var documentTypes = []string{
	"application/pdf",
	"application/octet-stream",
	"application/msword",
	"application/vnd.openxmlformats-officedocument",
	"application/zip",
	"application/x-zip-compressed",
}

// Ensure Prober implements pagecache.DocumentProber at compile time.
var _ pagecache.DocumentProber = (*Prober)(nil)

// Prober decides whether a URL serves a document (PDF or other
// downloadable file) without rendering it, and retrieves document bytes.
// Probing is best effort: servers that reject probes are treated as
// serving renderable pages and left to the browser.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	maxSize int64
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the timeout for probe requests.
// Defaults to DefaultProbeTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		p.timeout = d
	}
}

// WithMaxDocumentSize caps how many bytes FetchBytes will read.
// Defaults to DefaultMaxDocumentSize.
func WithMaxDocumentSize(n int64) Option {
	return func(p *Prober) {
		p.maxSize = n
	}
}

// NewProber creates a new HTTP-based Prober.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		timeout: DefaultProbeTimeout,
		maxSize: DefaultMaxDocumentSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.client = &http.Client{
		Timeout: p.timeout,
	}

	return p
}

// IsDocumentLike reports whether url appears to serve a downloadable
// document. It tries a HEAD request first; servers that reject HEAD get
// a ranged GET whose leading bytes are content-sniffed instead.
func (p *Prober) IsDocumentLike(ctx context.Context, url string) bool {
	if strings.HasSuffix(strings.ToLower(strippedPath(url)), ".pdf") {
		return true
	}

	contentType, ok := p.headContentType(ctx, url)
	if !ok {
		contentType, ok = p.sniffContentType(ctx, url)
	}
	if !ok {
		return false
	}
	return isDocumentType(contentType)
}

// FetchBytes downloads the document payload at url, reading at most the
// configured size cap.
func (p *Prober) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pagecache.Errorf(pagecache.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize))
	if err != nil {
		return nil, fmt.Errorf("reading document body: %w", err)
	}
	return data, nil
}

// headContentType probes url with HEAD. The second return is false when
// the server rejects the method or the request fails.
func (p *Prober) headContentType(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	return resp.Header.Get("Content-Type"), resp.Header.Get("Content-Type") != ""
}

// sniffContentType fetches the first bytes of url with a ranged GET and
// detects the content type from them.
func (p *Prober) sniffContentType(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", sniffLen-1))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, sniffLen))
	if err != nil || len(head) == 0 {
		return "", false
	}
	return http.DetectContentType(head), true
}

// isDocumentType matches a Content-Type header value against the known
// document types, ignoring parameters like charset.
func isDocumentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, dt := range documentTypes {
		if strings.HasPrefix(mediaType, dt) {
			return true
		}
	}
	return false
}

// strippedPath returns url without its query and fragment, so extension
// checks are not fooled by parameters.
func strippedPath(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}
