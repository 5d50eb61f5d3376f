package filegroup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rgr/internal/errs"
	"rgr/internal/rgjson"
	"rgr/internal/trace"
)

// Aggregator is the Idle / InFile state machine over rg events.
// The zero value is ready to use.
type Aggregator struct {
	open  bool
	path  string
	lines []Line
}

// Feed consumes one event. It returns the sealed group when ev closes one.
func (a *Aggregator) Feed(ev rgjson.Event) (*FileGroup, error) {
	switch e := ev.(type) {
	case rgjson.Begin:
		if a.open {
			return nil, errs.Protocolf("aggregate", "begin %q while %q is still open", e.Path, a.path).WithPath(a.path)
		}
		a.open, a.path, a.lines = true, e.Path, nil
		return nil, nil

	case rgjson.Match:
		if err := a.accept("match", e.Path, e.LineNumber); err != nil {
			return nil, err
		}
		a.lines = append(a.lines, Line{
			Kind:       LineMatched,
			Number:     e.LineNumber,
			Offset:     e.AbsoluteOffset,
			Text:       e.Text,
			Submatches: e.Submatches,
		})
		return nil, nil

	case rgjson.Context:
		if err := a.accept("context", e.Path, e.LineNumber); err != nil {
			return nil, err
		}
		a.lines = append(a.lines, Line{Kind: LineContext, Number: e.LineNumber, Text: e.Text})
		return nil, nil

	case rgjson.End:
		if !a.open {
			return nil, errs.Protocolf("aggregate", "end %q without begin", e.Path).WithPath(e.Path)
		}
		if e.Path != a.path {
			return nil, errs.Protocolf("aggregate", "end %q does not close %q", e.Path, a.path).WithPath(a.path)
		}
		g := &FileGroup{Path: a.path, Lines: a.lines}
		a.open, a.path, a.lines = false, "", nil
		return g, nil

	case rgjson.Summary:
		return nil, nil

	default:
		return nil, errs.Protocolf("aggregate", "unexpected event %T", ev)
	}
}

func (a *Aggregator) accept(tag, path string, number int) error {
	if !a.open {
		return errs.Protocolf("aggregate", "%s line %d outside any file", tag, number).WithPath(path)
	}
	if path != "" && path != a.path {
		return errs.Protocolf("aggregate", "%s for %q inside %q", tag, path, a.path).WithPath(a.path)
	}
	if n := len(a.lines); n > 0 && a.lines[n-1].Number >= number {
		return errs.Protocolf("aggregate", "%s line %d after line %d", tag, number, a.lines[n-1].Number).WithPath(a.path)
	}
	return nil
}

// Open reports whether a group is in progress.
func (a *Aggregator) Open() bool { return a.open }

// Close ends the stream. An unterminated group is a protocol error.
func (a *Aggregator) Close() error {
	if a.open {
		return errs.Protocolf("aggregate", "stream ended inside %q", a.path).WithPath(a.path)
	}
	return nil
}

// ErrStop may be returned by an emit callback to end collection early
// without reporting an error.
var ErrStop = errors.New("filegroup: stop")

// Collect decodes events from dec and hands each sealed group to emit as soon
// as its end event arrives. It returns nil when emit returns ErrStop.
func Collect(ctx context.Context, dec *rgjson.Decoder, emit func(FileGroup) error) error {
	tracer := trace.FromContext(ctx)
	progress := trace.ProgressFrom(ctx)
	var agg Aggregator
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return agg.Close()
		}
		if err != nil {
			return err
		}
		progress.Record()
		if tracer.Level() >= trace.LevelDebug {
			trace.Point(tracer, trace.ScopeLine, "event", rgjson.String(ev))
		}
		if s, ok := ev.(rgjson.Summary); ok {
			trace.Point(tracer, trace.ScopeStage, "summary",
				fmt.Sprintf("%d matches in %d files, %d bytes searched", s.Matches, s.SearchesWithMatch, s.BytesSearched))
		}
		g, err := agg.Feed(ev)
		if err != nil {
			return err
		}
		if g == nil {
			continue
		}
		progress.File(g.MatchCount())
		if err := emit(*g); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}
