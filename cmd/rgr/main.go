package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rgr/internal/args"
	"rgr/internal/config"
	"rgr/internal/errs"
	"rgr/internal/trace"
)

var rootCmd = &cobra.Command{
	Use:   "rgr [rg arguments] --replace TEXT [--diff [PATH]] [--iterative] [--no-confirm]",
	Short: "ripgrep with reviewed replacements",
	Long: `rgr runs ripgrep and, when --replace is given, walks through every match
asking whether to apply the replacement. Accepted edits are written back into
the files, or emitted as a unified diff with --diff.

Without --replace, every argument is handed to rg unchanged.

rgr flags:
  --replace TEXT, -R TEXT  replacement text; enables replace mode
  --diff [PATH]            write a unified diff (stdout when PATH is omitted)
  --iterative              confirm each match even when writing a diff
  --no-confirm             replace every match in place without asking
  --undo                   restore the files changed by the last in-place run
  --rgr-version            print rgr's version`,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               runRoot,
}

var errColor = color.New(color.FgRed, color.Bold)
var warnColor = color.New(color.FgYellow)

// main wires signals into the root context, runs the command and exits with
// the code the outcome maps to.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(rootCmd.ErrOrStderr(), err))
}

// exitCodeError carries an exit status that is not a failure of rgr itself,
// such as rg's own status in passthrough mode.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	_, _ = errColor.Fprintf(stderr, "rgr: %v\n", err)
	return errs.ExitCode(err)
}

func runRoot(cmd *cobra.Command, argv []string) (err error) {
	opts, err := args.Parse(argv)
	for _, hint := range opts.Hints {
		_, _ = warnColor.Fprintf(cmd.ErrOrStderr(), "rgr: %s\n", hint)
	}
	if err != nil {
		return err
	}
	if opts.Version {
		return printVersion(cmd.OutOrStdout())
	}

	wd, err := os.Getwd()
	if err != nil {
		return errs.New(errs.KindIO, "getwd", err)
	}
	cfg, err := config.Load(wd, os.Getenv)
	if err != nil {
		return errs.New(errs.KindUsage, "config", err)
	}
	applyColorMode(cfg.Review.Color)

	stopProfiling, err := setupProfiling(cmd, cfg)
	if err != nil {
		return errs.New(errs.KindIO, "profile", err)
	}
	defer stopProfiling()

	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return errs.New(errs.KindUsage, "trace", err)
	}
	defer func() {
		var ec *exitCodeError
		if err != nil && !errors.As(err, &ec) {
			dumpRing(cmd)
		}
		cleanup()
	}()

	switch {
	case opts.Undo:
		return runUndo(cmd, cfg)
	case opts.Mode() == args.ModePassthrough:
		return runPassthrough(cmd, cfg, argv)
	default:
		return runReplace(cmd, cfg, opts, argv, wd)
	}
}

// applyColorMode maps the [review] color switch onto fatih/color, which
// already detects terminals for "auto".
func applyColorMode(mode string) {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}

// dumpRing prints the ring buffer's recent events after a failure.
func dumpRing(cmd *cobra.Command) {
	ring, ok := trace.Ring(trace.FromContext(cmd.Context()))
	if !ok {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "rgr: recent trace events:")
	if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
