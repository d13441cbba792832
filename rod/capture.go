package rod

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/pagecache"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"golang.org/x/sync/errgroup"
)

// Ensure Capturer implements pagecache.Capturer at compile time.
var _ pagecache.Capturer = (*Capturer)(nil)

// DefaultAttempts is the default number of capture attempts per URL.
const DefaultAttempts = 3

// DefaultNavigationTimeout bounds a single navigation, not the whole
// capture attempt.
const DefaultNavigationTimeout = 30 * time.Second

// maxScreenshotHeight caps full-page screenshots; very long pages are
// truncated rather than rendered into enormous images.
const maxScreenshotHeight = 6000

// scrollCycles is the number of End-key presses used to trigger lazy
// loading before content is captured.
const scrollCycles = 3

// userAgents is the pool of desktop user agent strings; each capture
// context picks one at random.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

// Capturer renders pages in isolated incognito contexts leased from a
// Pool and converts them to text and screenshot payloads. Capture never
// returns an error: any failure yields the sentinel capture, so callers
// can treat every URL uniformly.
//
// Capturer is safe for concurrent use; concurrency is bounded by the Pool.
type Capturer struct {
	pool      *Pool
	converter pagecache.TextConverter
	titles    pagecache.TitleExtractor

	attempts   int
	navTimeout time.Duration
}

// CaptureOption configures a Capturer.
type CaptureOption func(*Capturer)

// WithAttempts sets how many times a failed capture is retried with a
// fresh browser context. Defaults to DefaultAttempts.
func WithAttempts(n int) CaptureOption {
	return func(c *Capturer) {
		c.attempts = n
	}
}

// WithNavigationTimeout sets the per-navigation timeout.
// Defaults to DefaultNavigationTimeout.
func WithNavigationTimeout(d time.Duration) CaptureOption {
	return func(c *Capturer) {
		c.navTimeout = d
	}
}

// NewCapturer creates a Capturer that leases browser contexts from pool
// and derives text payloads with converter. The title extractor is used
// best-effort; a nil extractor disables titles.
func NewCapturer(pool *Pool, converter pagecache.TextConverter, titles pagecache.TitleExtractor, opts ...CaptureOption) *Capturer {
	c := &Capturer{
		pool:       pool,
		converter:  converter,
		titles:     titles,
		attempts:   DefaultAttempts,
		navTimeout: DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capture renders url and returns its text and screenshot payloads.
// Failed attempts retry with a fresh browser context; after the last
// attempt the sentinel capture is returned.
func (c *Capturer) Capture(ctx context.Context, url string) *pagecache.Capture {
	capture, err := withAttempts(ctx, c.attempts, func(ctx context.Context) (*pagecache.Capture, error) {
		return c.attempt(ctx, url)
	})
	if err != nil {
		return pagecache.SentinelCapture()
	}
	return capture
}

// Close is a no-op; the browser is owned by the Pool.
func (c *Capturer) Close() error {
	return nil
}

// withAttempts runs fn up to attempts times, returning the first success
// or the last error. Context cancellation stops retrying immediately.
func withAttempts(ctx context.Context, attempts int, fn func(context.Context) (*pagecache.Capture, error)) (*pagecache.Capture, error) {
	var err error
	for i := 0; i < attempts; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		var capture *pagecache.Capture
		if capture, err = fn(ctx); err == nil {
			return capture, nil
		}
	}
	return nil, err
}

// attempt performs one capture in a leased browser context, reporting
// failures so the pool can replace a crashed browser.
func (c *Capturer) attempt(ctx context.Context, url string) (*pagecache.Capture, error) {
	lease, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	capture, err := c.capturePage(ctx, lease.Browser(), url)
	if err != nil {
		lease.ReportFailure(err)
		return nil, err
	}
	return capture, nil
}

// capturePage renders one page in a fresh incognito context and returns
// its payloads.
func (c *Capturer) capturePage(ctx context.Context, browser *rod.Browser, url string) (*pagecache.Capture, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("creating incognito context: %w", err)
	}
	defer func() {
		// Dispose the context only; Close would take down the shared
		// browser process.
		_ = (&proto.TargetDisposeBrowserContext{BrowserContextID: incognito.BrowserContextID}).Call(browser)
	}()

	page, err := stealth.Page(incognito)
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := c.preparePage(incognito, page); err != nil {
		return nil, err
	}
	if err := c.navigate(ctx, page, url); err != nil {
		return nil, err
	}
	c.settle(page)

	html, screenshot, err := c.snapshot(page)
	if err != nil {
		return nil, err
	}

	text, err := c.converter.Convert(html)
	if err != nil {
		return nil, fmt.Errorf("converting page text: %w", err)
	}

	capture := &pagecache.Capture{Text: text, Screenshot: screenshot}
	if c.titles != nil {
		// Best effort; a page without a usable title is still a capture.
		capture.Title, _ = c.titles.Title(html)
	}
	return capture, nil
}

// preparePage randomizes the context fingerprint: user agent, viewport
// size, and pre-granted permissions so permission prompts never block
// rendering.
func (c *Capturer) preparePage(browser *rod.Browser, page *rod.Page) error {
	ua := userAgents[rand.IntN(len(userAgents))]
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1050 + rand.IntN(101),
		Height:            700 + rand.IntN(101),
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("setting viewport: %w", err)
	}

	grant := &proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeGeolocation,
			proto.BrowserPermissionTypeNotifications,
		},
	}
	if err := grant.Call(browser); err != nil {
		return fmt.Errorf("granting permissions: %w", err)
	}
	return nil
}

// navigate loads url within the navigation timeout. A load event that
// never fires is tolerated; many pages are usable without it.
func (c *Capturer) navigate(ctx context.Context, page *rod.Page, url string) error {
	nctx, cancel := context.WithTimeout(ctx, c.navTimeout)
	defer cancel()

	page = page.Context(nctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	_ = page.WaitLoad()
	return nil
}

// settle scrolls through the page to trigger lazy-loaded content, then
// returns to the top so the screenshot starts at the beginning.
func (c *Capturer) settle(page *rod.Page) {
	for i := 0; i < scrollCycles; i++ {
		if err := page.Keyboard.Press(input.End); err != nil {
			return
		}
		time.Sleep(300 * time.Millisecond)
	}
	_ = page.Keyboard.Press(input.Home)
	time.Sleep(200 * time.Millisecond)
}

// snapshot captures the rendered HTML and the full-page screenshot
// concurrently.
func (c *Capturer) snapshot(page *rod.Page) (html string, screenshot []byte, err error) {
	metrics, err := proto.PageGetLayoutMetrics{}.Call(page)
	if err != nil {
		return "", nil, fmt.Errorf("reading layout metrics: %w", err)
	}
	width := metrics.CSSContentSize.Width
	height := metrics.CSSContentSize.Height
	if height > maxScreenshotHeight {
		height = maxScreenshotHeight
	}

	var g errgroup.Group
	g.Go(func() error {
		var herr error
		html, herr = page.HTML()
		return herr
	})
	g.Go(func() error {
		var serr error
		screenshot, serr = page.Screenshot(false, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
			Clip: &proto.PageViewport{
				Width:  width,
				Height: height,
				Scale:  1,
			},
		})
		return serr
	})
	if err := g.Wait(); err != nil {
		return "", nil, fmt.Errorf("capturing page content: %w", err)
	}
	return html, screenshot, nil
}
