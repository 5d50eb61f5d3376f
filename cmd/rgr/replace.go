package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rgr/internal/args"
	"rgr/internal/config"
	"rgr/internal/driver"
	"rgr/internal/errs"
)

func runReplace(cmd *cobra.Command, cfg config.Config, opts args.Options, argv []string, wd string) error {
	mode, err := readUIMode(cfg.Review.UI)
	if err != nil {
		return errs.New(errs.KindUsage, "config", err)
	}

	req := driver.Request{
		Argv:    argv,
		Options: opts,
		Config:  cfg,
		Dir:     wd,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Color:   !color.NoColor,
	}

	var res *driver.Result
	if opts.Mode() == args.ModeInteractive && shouldUseTUI(mode, promptOutput(opts)) {
		res, err = runReplaceWithUI(cmd.Context(), "rgr "+opts.Replace, promptOutput(opts), req)
	} else {
		res, err = driver.Run(cmd.Context(), req)
	}
	printSummary(os.Stderr, res, opts, cfg.Trace.Timings)
	return err
}

// promptOutput is the terminal prompts are drawn on: stderr while the diff
// itself goes to stdout.
func promptOutput(opts args.Options) *os.File {
	if opts.Diff && (opts.DiffPath == "" || opts.DiffPath == "-") {
		return os.Stderr
	}
	return os.Stdout
}
