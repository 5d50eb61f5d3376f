// Package search runs rg and feeds its JSON output through the file-group
// aggregator while the process is still producing it.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"rgr/internal/errs"
	"rgr/internal/filegroup"
	"rgr/internal/rgjson"
	"rgr/internal/trace"
)

// DefaultBinary is used when Runner.Binary is empty.
const DefaultBinary = "rg"

// Runner launches rg.
type Runner struct {
	Binary string
	Dir    string
	// Stderr receives rg's diagnostics as they arrive; nil discards them.
	Stderr io.Writer
}

func (r *Runner) binary() string {
	if r.Binary == "" {
		return DefaultBinary
	}
	return r.Binary
}

func (r *Runner) command(ctx context.Context, args []string) (*exec.Cmd, error) {
	bin := r.binary()
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errs.New(errs.KindToolNotFound, "search", fmt.Errorf("%s: %w", bin, err))
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	return cmd, nil
}

// Stream runs rg with args and hands every completed file group to emit.
// rg is stopped as soon as emit fails or returns filegroup.ErrStop. Exit
// status 1 means "no matches" and is not an error.
func (r *Runner) Stream(ctx context.Context, args []string, emit func(filegroup.FileGroup) error) error {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeStage, "search", trace.ParentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd, err := r.command(ctx, args)
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.New(errs.KindInvocation, "search", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errs.New(errs.KindInvocation, "search", err)
	}
	if tracer.Level() >= trace.LevelStage {
		trace.Point(tracer, trace.ScopeStage, "exec", cmd.Path+" "+strings.Join(args, " "))
	}
	if err := cmd.Start(); err != nil {
		return startError(err)
	}

	tail := &tailBuffer{limit: 4096}
	var sink io.Writer = tail
	if r.Stderr != nil {
		sink = io.MultiWriter(r.Stderr, tail)
	}

	stopped := false
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := io.Copy(sink, stderr)
		if err != nil && !errors.Is(err, os.ErrClosed) {
			return errs.New(errs.KindIO, "search", fmt.Errorf("read rg stderr: %w", err))
		}
		return nil
	})
	g.Go(func() error {
		err := filegroup.Collect(gctx, rgjson.NewDecoder(stdout), func(fg filegroup.FileGroup) error {
			if err := emit(fg); err != nil {
				if errors.Is(err, filegroup.ErrStop) {
					stopped = true
				}
				return err
			}
			return nil
		})
		if err != nil || stopped {
			// nothing else will read stdout; stop rg instead of letting it block
			cancel()
		}
		return err
	})

	collectErr := g.Wait()
	waitErr := cmd.Wait()

	switch {
	case collectErr != nil:
		return collectErr
	case stopped:
		span.WithExtra("stopped", "true")
		return nil
	}
	return exitError(waitErr, tail.String())
}

// Stdio is the terminal wiring for Passthrough.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Passthrough runs rg with args untouched and returns its exit code.
func (r *Runner) Passthrough(ctx context.Context, args []string, stdio Stdio) (int, error) {
	cmd, err := r.command(ctx, args)
	if err != nil {
		return 0, err
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdio.In, stdio.Out, stdio.Err
	if err := cmd.Start(); err != nil {
		return 0, startError(err)
	}
	err = cmd.Wait()
	var exit *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exit):
		return exit.ExitCode(), nil
	default:
		return 0, errs.New(errs.KindInvocation, "search", err)
	}
}

func startError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return errs.New(errs.KindToolNotFound, "search", err)
	}
	return errs.New(errs.KindInvocation, "search", err)
}

func exitError(err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exit *exec.ExitError
	if !errors.As(err, &exit) {
		return errs.New(errs.KindInvocation, "search", err)
	}
	if exit.ExitCode() == 1 {
		return nil
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return errs.New(errs.KindInvocation, "search", fmt.Errorf("rg exited with status %d", exit.ExitCode()))
	}
	return errs.New(errs.KindInvocation, "search", fmt.Errorf("rg exited with status %d: %s", exit.ExitCode(), msg))
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
