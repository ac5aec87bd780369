package statusview

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteTable renders branches as a plain, non-interactive table: the
// output used whenever --watch wasn't requested. Whether stdout is a
// terminal is not checked.
func WriteTable(w io.Writer, branches []Branch) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRANCH\tROOT\tREPO\tREF\tSTATUS")
	for _, b := range branches {
		if len(b.Clones) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\n", b.Name, b.Root)
			continue
		}
		for _, c := range b.Clones {
			status := "clean"
			if c.Dirty {
				status = "dirty"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.Name, b.Root, c.RepoName, c.Ref, status)
		}
	}
	return tw.Flush()
}
