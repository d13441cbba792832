package main

import (
	"fmt"

	"github.com/fwojciec/pagecache"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return pagecache.Errorf(pagecache.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Store.Delete(deps.Ctx, c.URL); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagecache.ErrorMessage(err))
		return err
	}
	if err := deps.Store.Save(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagecache.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted %s\n", c.URL)
	return nil
}
