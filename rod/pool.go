// Package rod implements browser-driven page capture using Chrome
// automation. A Pool owns one shared browser process and bounds the
// number of concurrent capture contexts; a Capturer renders pages into
// text and screenshot payloads.
package rod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxContexts is the default number of concurrent capture contexts.
const DefaultMaxContexts = 5

// Pool manages the lifecycle of a shared Chrome browser. All capture
// contexts run against the same process; when the process crashes the
// pool restarts it once and later leases see the replacement. Chrome
// also accumulates memory over long runs, so restart doubles as the
// recovery path for a degraded process.
//
// Pool is safe for concurrent use.
type Pool struct {
	headless bool
	logger   *slog.Logger
	sem      *semaphore.Weighted

	// launch starts a browser process. Swappable in tests.
	launch func() (*rod.Browser, *launcher.Launcher, error)

	mu         sync.Mutex
	browser    *rod.Browser
	launcher   *launcher.Launcher
	generation int64

	closed atomic.Bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithMaxContexts sets the maximum number of concurrently leased capture
// contexts. Defaults to DefaultMaxContexts.
func WithMaxContexts(n int64) PoolOption {
	return func(p *Pool) {
		p.sem = semaphore.NewWeighted(n)
	}
}

// WithHeadless controls whether the browser runs headless. Defaults to true.
func WithHeadless(headless bool) PoolOption {
	return func(p *Pool) {
		p.headless = headless
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool launches the browser process and returns a ready Pool.
// Close must be called when the Pool is no longer needed.
func NewPool(opts ...PoolOption) (*Pool, error) {
	p := &Pool{
		headless: true,
		sem:      semaphore.NewWeighted(DefaultMaxContexts),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.launch == nil {
		p.launch = p.launchBrowser
	}

	browser, lnchr, err := p.launch()
	if err != nil {
		return nil, err
	}
	p.browser = browser
	p.launcher = lnchr
	return p, nil
}

// Acquire blocks until a capture context slot is free and returns a lease
// on the current browser. Release must be called on the returned Lease.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	lease := &Lease{pool: p, browser: p.browser, generation: p.generation}
	p.mu.Unlock()
	return lease, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeBrowser()
}

// Generation returns the current browser generation. It increments each
// time the pool replaces a crashed browser process. This method exists
// for testing purposes.
func (p *Pool) Generation() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// restart replaces the browser process, unless another lease already
// reported the same crash and the process was replaced in the meantime.
// If the replacement fails to launch, the current instance is kept: the
// generation stays put, so the next failure report retries the launch,
// and leases never observe a nil browser.
func (p *Pool) restart(generation int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() || p.generation != generation {
		return
	}

	p.logger.Warn("browser process gone, restarting", "generation", generation)
	browser, lnchr, err := p.launch()
	if err != nil {
		p.logger.Error("browser restart failed", "error", err)
		return
	}
	_ = p.closeBrowser()
	p.browser = browser
	p.launcher = lnchr
	p.generation++
}

// launchBrowser starts a new browser instance with stability and
// anti-automation-detection flags.
func (p *Pool) launchBrowser() (*rod.Browser, *launcher.Launcher, error) {
	lnchr := launcher.New().
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Set("ignore-certificate-errors").
		NoSandbox(true).
		Leakless(true).
		Headless(p.headless)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, lnchr, nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (p *Pool) closeBrowser() error {
	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	if p.launcher != nil {
		p.launcher.Kill()
		p.launcher = nil
	}
	return err
}

// Lease is a held capture context slot bound to one browser instance.
type Lease struct {
	pool       *Pool
	browser    *rod.Browser
	generation int64
}

// Browser returns the browser instance this lease was taken against.
func (l *Lease) Browser() *rod.Browser {
	return l.browser
}

// ReportFailure inspects a capture error and, if it indicates the browser
// process is gone, triggers a pool restart. Concurrent reports against
// the same generation restart at most once.
func (l *Lease) ReportFailure(err error) {
	if IsBrowserGone(err) {
		l.pool.restart(l.generation)
	}
}

// Release returns the capture context slot to the pool.
func (l *Lease) Release() {
	l.pool.sem.Release(1)
}

// IsBrowserGone reports whether err indicates the browser process has
// died or its control connection is closed, as opposed to an ordinary
// navigation failure. When the devtools websocket dies, the client fails
// every pending call with the raw transport read error, so those errors
// are the signal.
func IsBrowserGone(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}
