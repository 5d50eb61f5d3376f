// Package driver runs one replace session: rewrite rg's arguments, stream
// its matches through review, and write the accepted edits as a diff or
// back into the files.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"rgr/internal/apply"
	"rgr/internal/args"
	"rgr/internal/config"
	"rgr/internal/diff"
	"rgr/internal/filegroup"
	"rgr/internal/observ"
	"rgr/internal/replay"
	"rgr/internal/search"
	"rgr/internal/trace"
)

// Request describes one replace run.
type Request struct {
	Argv    []string // the command line as typed, rgr flags included
	Options args.Options
	Config  config.Config
	Dir     string

	// Decider answers prompts in interactive mode. When nil, a LineDecider
	// reads answers from Stdin.
	Decider replay.Decider

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Color  bool
}

// Result summarises a run.
type Result struct {
	Mode      args.Mode
	Files     int
	Matches   int
	Accepted  int
	Skipped   int
	Aborted   bool
	Changes   []apply.FileChange
	Conflicts []string // files changed on disk after rg read them
	Journal   string   // undo session file, when anything was written in place
	Stats     observ.Report
}

type sink interface {
	emit(path string, hunks []diff.Hunk) error
	close() error
}

// Run executes req.
func Run(ctx context.Context, req Request) (*Result, error) {
	mode := req.Options.Mode()
	if mode == args.ModePassthrough {
		return nil, errors.New("driver: run needs --replace")
	}
	if req.Stdout == nil {
		req.Stdout = os.Stdout
	}
	if req.Stderr == nil {
		req.Stderr = os.Stderr
	}
	if req.Stdin == nil {
		req.Stdin = os.Stdin
	}

	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopeDriver, "rgr", trace.ParentSpan(ctx))
	ctx = trace.WithSpan(ctx, root)
	res := &Result{Mode: mode}
	defer func() { root.WithExtra("mode", mode.String()).End(fmt.Sprintf("%d files", res.Files)) }()

	timer := observ.NewTimer()
	var stats observ.Stats
	cfg := req.Config

	phase := timer.Begin("rewrite")
	rgArgs := args.Rewrite(req.Argv, args.ManagedFlags, args.RequiredFlags(cfg.Search.Context))
	timer.End(phase, "")
	trace.Point(tracer, trace.ScopeStage, "rewrite", fmt.Sprint(rgArgs))

	out, err := openSink(req, res)
	if err != nil {
		return res, err
	}

	decider := req.Decider
	if mode == args.ModeInteractive && decider == nil {
		// keep prompts off stdout while the diff is written there
		promptOut := req.Stdout
		if req.Options.Diff && (req.Options.DiffPath == "" || req.Options.DiffPath == "-") {
			promptOut = req.Stderr
		}
		decider = replay.NewLineDecider(req.Stdin, replay.NewRenderer(promptOut, req.Color))
	}
	engine, err := replay.New(replay.Config{
		Replacement: req.Options.Replace,
		Batch:       mode == args.ModeBatchDiff || mode == args.ModeBatchInPlace,
		Decider:     decider,
		Protect:     cfg.Review.Protect,
	})
	if err != nil {
		_ = out.close()
		return res, err
	}

	runner := &search.Runner{Binary: cfg.Search.Binary, Dir: req.Dir, Stderr: req.Stderr}
	phase = timer.Begin("search+review")
	streamErr := runner.Stream(ctx, rgArgs, func(g filegroup.FileGroup) error {
		outcome, err := engine.Review(ctx, g)
		if err != nil {
			return err
		}
		accepted := outcome.Accepted()
		stats.AddFile(g.MatchCount())
		stats.AddDecisions(accepted, len(outcome.Decisions)-accepted)
		if outcome.Protected {
			stats.AddProtected()
		}

		hunks, err := diff.Build(g, outcome.Decisions, cfg.Search.Context)
		if err != nil {
			return err
		}
		if len(hunks) > 0 {
			if err := out.emit(g.Path, hunks); err != nil {
				return err
			}
			stats.AddWritten()
		}
		if engine.Aborted() {
			return filegroup.ErrStop
		}
		return nil
	})
	timer.End(phase, "")
	closeErr := out.close()

	snap := stats.Snapshot()
	res.Files = int(snap.Files)
	res.Matches = int(snap.Matches)
	res.Accepted = int(snap.Accepted)
	res.Skipped = int(snap.Skipped)
	res.Aborted = engine.Aborted()
	res.Stats = timer.Report()
	res.Stats.Stats = snap

	if streamErr != nil {
		return res, streamErr
	}
	return res, closeErr
}

func openSink(req Request, res *Result) (sink, error) {
	if req.Options.Diff {
		dest, err := diff.OpenDestination(req.Options.DiffPath, req.Stdout)
		if err != nil {
			return nil, err
		}
		return &diffSink{dest: dest, w: diff.NewWriter(dest)}, nil
	}

	applier := &apply.Applier{Dir: req.Dir}
	if req.Config.Journal.Enabled {
		dir := req.Config.Journal.Dir
		if dir == "" {
			var err error
			if dir, err = apply.DefaultDir(); err != nil {
				return nil, fmt.Errorf("locate undo journal: %w", err)
			}
		}
		j, err := apply.OpenJournal(dir, req.Dir, req.Argv)
		if err != nil {
			return nil, err
		}
		applier.Journal = j
	}
	return &fileSink{applier: applier, res: res, stderr: req.Stderr}, nil
}

type diffSink struct {
	dest io.WriteCloser
	w    *diff.Writer
}

func (s *diffSink) emit(path string, hunks []diff.Hunk) error {
	return s.w.Write(path, hunks)
}

func (s *diffSink) close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.dest.Close()
		return err
	}
	return s.dest.Close()
}

type fileSink struct {
	applier *apply.Applier
	res     *Result
	stderr  io.Writer
}

func (s *fileSink) emit(path string, hunks []diff.Hunk) error {
	change, err := s.applier.ApplyFile(path, hunks)
	if errors.Is(err, diff.ErrConflict) {
		s.res.Conflicts = append(s.res.Conflicts, path)
		_, _ = fmt.Fprintf(s.stderr, "rgr: %s changed while it was being reviewed; left untouched\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	s.res.Changes = append(s.res.Changes, change)
	return nil
}

func (s *fileSink) close() error {
	if j := s.applier.Journal; j != nil && j.Len() > 0 {
		s.res.Journal = j.Path()
	}
	return nil
}
