package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rgr/internal/config"
	"rgr/internal/prof"
)

// setupProfiling starts the profilers named in [profile]. The returned
// cleanup writes the heap profile and is safe to call multiple times.
func setupProfiling(cmd *cobra.Command, cfg config.Config) (func(), error) {
	session, err := prof.Start(prof.Paths{
		CPU:   cfg.Profile.CPU,
		Mem:   cfg.Profile.Mem,
		Trace: cfg.Profile.Trace,
	})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "rgr: %v\n", err)
		}
	}, nil
}
