package main

import (
	"fmt"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	summary := deps.Store.Summary()

	fmt.Fprintf(deps.Stdout, "%d URLs cached (%d web pages, %d documents)\n",
		summary.TotalURLs, summary.WebPages, summary.Documents)
	if deps.Dropped > 0 {
		fmt.Fprintf(deps.Stdout, "%d entries dropped (missing payload files)\n", deps.Dropped)
	}

	if c.URLs {
		for _, url := range deps.Store.URLs() {
			fmt.Fprintf(deps.Stdout, "%-8s %s\n", deps.Store.Has(url), url)
		}
	}
	return nil
}
