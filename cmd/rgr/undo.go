package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rgr/internal/apply"
	"rgr/internal/config"
	"rgr/internal/errs"
)

func runUndo(cmd *cobra.Command, cfg config.Config) error {
	dir := cfg.Journal.Dir
	if dir == "" {
		var err error
		if dir, err = apply.DefaultDir(); err != nil {
			return errs.New(errs.KindIO, "undo", err)
		}
	}
	report, err := apply.Undo(dir)
	if errors.Is(err, apply.ErrNoJournal) {
		return errs.New(errs.KindUsage, "undo", err)
	}
	if report != nil {
		printUndoReport(cmd, report)
	}
	if err != nil {
		return errs.New(errs.KindIO, "undo", err)
	}
	return nil
}

func printUndoReport(cmd *cobra.Command, report *apply.UndoReport) {
	out := cmd.ErrOrStderr()
	for _, path := range report.Restored {
		fmt.Fprintf(out, "%s %s\n", color.GreenString("restored"), path)
	}
	for _, path := range report.Conflicts {
		fmt.Fprintf(out, "%s %s (modified since rgr wrote it)\n", color.YellowString("kept"), path)
	}
	if len(report.Conflicts) > 0 {
		fmt.Fprintf(out, "session %s kept for the files above\n", report.Session)
	}
}
