package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/pagecache"
	"github.com/fwojciec/pagecache/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Store   pagecache.Store
	Dropped int
	Crawler *crawl.Crawler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Crawl  CrawlCmd  `cmd:"" help:"Capture a batch of URLs into a task cache"`
	Status StatusCmd `cmd:"" help:"Show what a task cache contains"`
	Delete DeleteCmd `cmd:"" help:"Remove a URL from a task cache"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URLsFile    string        `arg:"" help:"File listing URLs to capture (newline list or JSON array)"`
	Dir         string        `arg:"" help:"Task cache directory"`
	Concurrency int           `short:"c" default:"5" help:"Concurrent capture limit"`
	Attempts    int           `default:"3" help:"Capture attempts per URL"`
	Timeout     time.Duration `default:"2m" help:"Overall budget per URL"`
	Headed      bool          `help:"Run the browser with a visible window"`
	Report      string        `help:"Write a crawl report JSON to this path"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	Dir  string `arg:"" help:"Task cache directory"`
	URLs bool   `name:"urls" short:"u" help:"List cached URLs"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Dir   string `arg:"" help:"Task cache directory"`
	URL   string `arg:"" help:"URL to remove"`
	Force bool   `help:"Confirm deletion"`
}
