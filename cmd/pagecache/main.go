package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagecache/crawl"
	"github.com/fwojciec/pagecache/fs"
	"github.com/fwojciec/pagecache/goquery"
	"github.com/fwojciec/pagecache/htmltomarkdown"
	pagecachehttp "github.com/fwojciec/pagecache/http"
	"github.com/fwojciec/pagecache/rod"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Store opened for the selected task directory. Set by Run; exposed
	// for end-to-end testing.
	Store *fs.Store

	pool *rod.Pool
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.pool != nil {
		return m.pool.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagecache"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'pagecache --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Every command operates on one task directory.
	dir := taskDir(cli, cmd)
	store, err := fs.NewStore(dir, fs.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open cache at %q: %w", dir, err)
	}
	m.Store = store
	deps.Store = store
	deps.Dropped = store.Dropped()

	if cmd == "crawl" {
		pool, err := rod.NewPool(
			rod.WithHeadless(!cli.Crawl.Headed),
			rod.WithMaxContexts(int64(cli.Crawl.Concurrency)),
			rod.WithLogger(logger),
		)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		m.pool = pool
		defer m.Close()

		capturer := rod.NewCapturer(pool,
			htmltomarkdown.NewConverter(),
			goquery.NewTitleExtractor(),
			rod.WithAttempts(cli.Crawl.Attempts),
		)

		deps.Crawler = &crawl.Crawler{
			Store:       store,
			Capturer:    capturer,
			Prober:      pagecachehttp.NewProber(),
			Logger:      logger,
			Concurrency: cli.Crawl.Concurrency,
			Timeout:     cli.Crawl.Timeout,
		}
	}

	return kongCtx.Run(deps)
}

// taskDir extracts the task directory of the selected command.
func taskDir(cli *CLI, cmd string) string {
	switch cmd {
	case "crawl":
		return cli.Crawl.Dir
	case "status":
		return cli.Status.Dir
	default:
		return cli.Delete.Dir
	}
}
