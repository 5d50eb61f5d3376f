package main

import (
	"os"

	"github.com/spf13/cobra"

	"rgr/internal/config"
	"rgr/internal/search"
	"rgr/internal/trace"
)

// runPassthrough hands argv to rg untouched. rg's exit status becomes ours.
func runPassthrough(cmd *cobra.Command, cfg config.Config, argv []string) error {
	trace.Point(trace.FromContext(cmd.Context()), trace.ScopeDriver, "passthrough", cfg.Search.Binary)
	runner := &search.Runner{Binary: cfg.Search.Binary}
	code, err := runner.Passthrough(cmd.Context(), argv, search.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitCodeError{code: code}
	}
	return nil
}
