// Package crawl orchestrates batch capture of URLs into a store: it
// deduplicates the input, skips what is already cached, and fans the
// rest out to bounded-concurrency capture.
package crawl

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/pagecache"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the default number of URLs processed at once.
const DefaultConcurrency = 5

// DefaultURLTimeout is the default overall budget per URL, covering
// probing, every capture attempt, and storage.
const DefaultURLTimeout = 2 * time.Minute

// Crawler coordinates the capture of URL batches.
type Crawler struct {
	Store       pagecache.Store
	Capturer    pagecache.Capturer
	Prober      pagecache.DocumentProber
	Logger      *slog.Logger
	Concurrency int
	Timeout     time.Duration
}

// Result holds the outcome of a crawl operation.
type Result struct {
	Total     int
	Unique    int
	Cached    int
	WebPages  int
	Documents int
	Abandoned int
	Failed    int

	// Titles maps stored URLs to the page titles seen during capture.
	Titles map[string]string
}

// ProgressEvent reports progress during a crawl operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCached
	ProgressCaptured
	ProgressDocument
	ProgressAbandoned
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// outcome classifies what happened to a single URL.
type outcome int

const (
	outcomeCached outcome = iota
	outcomeWebPage
	outcomeDocument
	outcomeAbandoned
	outcomeFailed
)

// crawlResult holds the outcome of processing a single URL.
type crawlResult struct {
	url     string
	title   string
	outcome outcome
	err     error
}

// Crawl captures every URL in urls that is not already cached, then
// flushes the store index once. The input may contain duplicates and
// variant spellings of the same resource; each distinct resource is
// fetched at most once. The progress callback, if provided, receives
// events as crawling proceeds.
//
// Crawl returns an error only when flushing the store fails; individual
// URL failures are reported in the Result.
func (c *Crawler) Crawl(ctx context.Context, urls []string, progress ProgressFunc) (*Result, error) {
	stripped := make([]string, 0, len(urls))
	for _, url := range urls {
		stripped = append(stripped, pagecache.StripTrackingParams(url))
	}
	unique := pagecache.DedupeVariants(stripped)

	result := &Result{
		Total:  len(urls),
		Unique: len(unique),
		Titles: make(map[string]string),
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan crawlResult, len(unique))

	var completed atomic.Int64
	total := len(unique)

	if progress != nil {
		progress(ProgressEvent{
			Type:  ProgressStarted,
			Total: total,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for _, url := range unique {
			g.Go(func() error {
				resultCh <- c.processURL(gctx, url)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		completed.Add(1)

		switch r.outcome {
		case outcomeCached:
			result.Cached++
		case outcomeWebPage:
			result.WebPages++
		case outcomeDocument:
			result.Documents++
		case outcomeAbandoned:
			result.Abandoned++
		case outcomeFailed:
			result.Failed++
		}
		if r.title != "" {
			result.Titles[r.url] = r.title
		}

		if progress != nil {
			progress(ProgressEvent{
				Type:      progressType(r.outcome),
				Completed: int(completed.Load()),
				Total:     total,
				URL:       r.url,
				Error:     r.err,
			})
		}
	}

	// One flush for the whole batch; payload files are already on disk.
	if err := c.Store.Save(ctx); err != nil {
		return result, err
	}

	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFinished,
			Completed: total,
			Total:     total,
		})
	}

	return result, nil
}

// processURL handles one URL under the overall per-URL budget. The fetch
// runs in its own goroutine so a hung capture can be abandoned: the
// budget expiring cancels the fetch context and processURL returns
// without waiting for the fetch to notice.
func (c *Crawler) processURL(ctx context.Context, url string) crawlResult {
	if kind := c.Store.Has(url); kind != pagecache.KindNone {
		return crawlResult{url: url, outcome: outcomeCached}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultURLTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan crawlResult, 1)
	go func() {
		done <- c.fetchURL(tctx, url)
	}()

	select {
	case r := <-done:
		return r
	case <-tctx.Done():
		c.logger().Warn("abandoning URL, budget exhausted", "url", url, "timeout", timeout)
		return crawlResult{url: url, outcome: outcomeAbandoned, err: tctx.Err()}
	}
}

// fetchURL retrieves one uncached URL: document URLs are downloaded
// directly, everything else is rendered in the browser. A failed
// document download falls through to browser capture rather than giving
// up.
func (c *Crawler) fetchURL(ctx context.Context, url string) crawlResult {
	r := crawlResult{url: url}

	if c.Prober != nil && c.Prober.IsDocumentLike(ctx, url) {
		data, err := c.Prober.FetchBytes(ctx, url)
		if err == nil && len(data) > 0 {
			if err := c.Store.PutDocument(ctx, url, data); err != nil {
				r.outcome = outcomeFailed
				r.err = err
				return r
			}
			r.outcome = outcomeDocument
			return r
		}
		c.logger().Warn("document download failed, falling back to capture", "url", url, "error", err)
	}

	capture := c.Capturer.Capture(ctx, url)

	// Sentinel and empty captures are not worth caching; leaving the URL
	// absent lets a later run try again.
	if capture.Failed {
		r.outcome = outcomeFailed
		r.err = pagecache.Errorf(pagecache.EUNAVAILABLE, "capture failed for %s", url)
		return r
	}
	if strings.TrimSpace(capture.Text) == "" || len(capture.Screenshot) == 0 {
		r.outcome = outcomeFailed
		r.err = pagecache.Errorf(pagecache.EUNAVAILABLE, "empty capture for %s", url)
		return r
	}

	if err := c.Store.PutWeb(ctx, url, capture.Text, capture.Screenshot); err != nil {
		r.outcome = outcomeFailed
		r.err = err
		return r
	}
	r.outcome = outcomeWebPage
	r.title = capture.Title
	return r
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func progressType(o outcome) ProgressType {
	switch o {
	case outcomeCached:
		return ProgressCached
	case outcomeWebPage:
		return ProgressCaptured
	case outcomeDocument:
		return ProgressDocument
	case outcomeAbandoned:
		return ProgressAbandoned
	default:
		return ProgressFailed
	}
}
