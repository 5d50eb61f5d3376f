package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"rgr/internal/args"
	"rgr/internal/driver"
)

// printSummary reports the run on stderr so it never mixes with a diff on
// stdout.
func printSummary(out io.Writer, res *driver.Result, opts args.Options, timings bool) {
	if res == nil {
		return
	}
	verb := "replaced"
	if opts.Diff {
		verb = "accepted"
	}
	fmt.Fprintf(out, "rgr: %s %d of %d matches in %d files", verb, res.Accepted, res.Matches, res.Files)
	if res.Aborted {
		fmt.Fprint(out, color.YellowString(" (aborted)"))
	}
	fmt.Fprintln(out)
	if len(res.Conflicts) > 0 {
		fmt.Fprintf(out, "rgr: %d files changed during review and were left untouched\n", len(res.Conflicts))
	}
	if res.Journal != "" {
		fmt.Fprintln(out, "rgr: run `rgr --undo` to revert")
	}
	if timings {
		fmt.Fprint(out, res.Stats.Summary())
	}
}
