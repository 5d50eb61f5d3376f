package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rgr/internal/config"
	"rgr/internal/trace"
)

// setupTracing builds the tracer described by the [trace] section and its
// environment overrides, and attaches it to the command context.
// It returns a cleanup function and an error if initialization fails.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), error) {
	tc, err := cfg.TracerConfig()
	if err != nil {
		return nil, err
	}

	// If level is off, skip tracing
	if tc.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(tc)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	progress := trace.NewProgress()
	cmd.SetContext(trace.WithProgress(trace.WithTracer(cmd.Context(), tracer), progress))

	heartbeat := trace.StartHeartbeat(tracer, tc.Heartbeat, progress)

	cleanup := func() {
		// Stop heartbeat first
		heartbeat.Stop()

		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
