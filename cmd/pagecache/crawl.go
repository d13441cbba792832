package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/pagecache/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	file, err := ReadURLFile(c.URLsFile)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	urls := file.URLs
	if len(urls) == 0 {
		fmt.Fprintln(deps.Stdout, "Nothing to capture")
		return nil
	}

	if deps.Dropped > 0 {
		fmt.Fprintf(deps.Stderr, "warning: dropped %d cache entries with missing payload files\n", deps.Dropped)
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Capturing %d URLs\n", event.Total)
		case crawl.ProgressCached:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] cached    %s\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 60))
		case crawl.ProgressCaptured:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] captured  %s\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 60))
		case crawl.ProgressDocument:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] document  %s\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 60))
		case crawl.ProgressAbandoned:
			fmt.Fprintf(deps.Stderr, "  [%d/%d] abandoned %s\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 60))
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  [%d/%d] failed    %s: %v\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 60), event.Error)
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, urls, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Done: %d unique (%d pages, %d documents, %d cached, %d abandoned, %d failed)\n",
		result.Unique, result.WebPages, result.Documents, result.Cached, result.Abandoned, result.Failed)

	if c.Report != "" {
		report := deps.Crawler.BuildReport(urls, file.Sources, result)
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if err := os.WriteFile(c.Report, data, 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(deps.Stdout, "Report written to %s\n", c.Report)
	}

	return nil
}
