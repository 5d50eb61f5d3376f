// Package replay walks sealed file groups, asks the operator (or a batch
// policy) what to do with every matched line, and records the answers as
// edit decisions.
package replay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"rgr/internal/errs"
	"rgr/internal/filegroup"
	"rgr/internal/trace"
)

// EditDecision is the outcome for one matched line.
type EditDecision struct {
	LineNumber  int
	Original    string
	Replacement *string // nil when the match was skipped
	Applied     bool
}

// Changed reports whether the decision alters the line.
func (d EditDecision) Changed() bool {
	return d.Applied && d.Replacement != nil && *d.Replacement != d.Original
}

// Outcome holds the decisions for one file group, in line order.
type Outcome struct {
	Path      string
	Decisions []EditDecision
	Aborted   bool // the operator quit while, or before, reviewing this file
	Protected bool // the path matched a protect glob; nothing was replaced
}

// Accepted counts applied decisions.
func (o Outcome) Accepted() int {
	n := 0
	for _, d := range o.Decisions {
		if d.Applied {
			n++
		}
	}
	return n
}

// Config configures an Engine.
type Config struct {
	Replacement string
	// Batch replaces every match without asking. It must only be set from
	// an explicit operator opt-in.
	Batch   bool
	Decider Decider
	// Protect lists doublestar globs of paths that are never edited.
	Protect []string
}

// Engine reviews file groups in arrival order. Once the operator aborts,
// every later Review returns an empty aborted outcome.
type Engine struct {
	cfg     Config
	aborted bool
}

// New validates cfg and returns an engine.
func New(cfg Config) (*Engine, error) {
	if !cfg.Batch && cfg.Decider == nil {
		return nil, errors.New("replay: interactive mode needs a decider")
	}
	for _, pattern := range cfg.Protect {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("replay: invalid protect pattern %q", pattern)
		}
	}
	return &Engine{cfg: cfg}, nil
}

// Aborted reports whether the operator stopped the run.
func (e *Engine) Aborted() bool { return e.aborted }

// filePolicy is the per-file state of the read → decide → apply cycle.
type filePolicy uint8

const (
	policyAsk filePolicy = iota
	policyAcceptRest
	policySkipRest
)

// Review decides every matched line of g.
func (e *Engine) Review(ctx context.Context, g filegroup.FileGroup) (Outcome, error) {
	out := Outcome{Path: g.Path, Decisions: make([]EditDecision, 0, g.MatchCount())}
	if e.aborted {
		out.Aborted = true
		return out, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "review:"+g.Path, trace.ParentSpan(ctx))
	defer func() {
		span.WithExtra("accepted", fmt.Sprint(out.Accepted())).End(fmt.Sprintf("%d decisions", len(out.Decisions)))
	}()

	policy := policyAsk
	switch {
	case e.protected(g.Path):
		out.Protected = true
		policy = policySkipRest
		trace.Warn(tracer, "protect", g.Path+" matches a protect pattern; leaving it untouched")
	case e.cfg.Batch:
		policy = policyAcceptRest
	}

	total, index := g.MatchCount(), 0
	gutter := g.GutterWidth()
	for i, line := range g.Lines {
		if !line.Matched() {
			continue
		}
		index++

		// read
		replaced, err := Substitute(line.Text, line.Submatches, e.cfg.Replacement)
		if err != nil {
			return out, withLocation(err, g.Path, line.Number)
		}

		// decide
		action := ActionAccept
		switch policy {
		case policySkipRest:
			action = ActionSkip
		case policyAsk:
			action, err = e.cfg.Decider.Decide(ctx, Prompt{
				Path:        g.Path,
				Line:        line,
				Replaced:    replaced,
				Replacement: e.cfg.Replacement,
				Gutter:      gutter,
				Index:       index,
				Total:       total,
				Context:     surroundingContext(g.Lines, i),
			})
			if err != nil {
				return out, fmt.Errorf("review %s:%d: %w", g.Path, line.Number, err)
			}
		}
		if tracer.Level() >= trace.LevelDebug {
			trace.Point(tracer, trace.ScopeLine, "decide", fmt.Sprintf("%s:%d %s", g.Path, line.Number, action))
		}

		// apply
		switch action {
		case ActionAcceptFile:
			policy, action = policyAcceptRest, ActionAccept
		case ActionSkipFile:
			policy, action = policySkipRest, ActionSkip
		}
		switch action {
		case ActionAccept:
			out.Decisions = append(out.Decisions, EditDecision{
				LineNumber:  line.Number,
				Original:    line.Text,
				Replacement: &replaced,
				Applied:     true,
			})
		case ActionSkip:
			out.Decisions = append(out.Decisions, EditDecision{
				LineNumber: line.Number,
				Original:   line.Text,
			})
		case ActionAbort:
			e.aborted = true
			out.Aborted = true
			return out, nil
		default:
			return out, fmt.Errorf("review %s:%d: decider returned %v", g.Path, line.Number, action)
		}
	}
	return out, nil
}

func (e *Engine) protected(path string) bool {
	if len(e.cfg.Protect) == 0 {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, pattern := range e.cfg.Protect {
		if ok, _ := doublestar.Match(pattern, clean); ok {
			return true
		}
	}
	return false
}

// surroundingContext returns the context lines adjacent to lines[i], up to
// the neighbouring matched lines.
func surroundingContext(lines []filegroup.Line, i int) []filegroup.Line {
	start := i
	for start > 0 && !lines[start-1].Matched() {
		start--
	}
	end := i + 1
	for end < len(lines) && !lines[end].Matched() {
		end++
	}
	ctx := make([]filegroup.Line, 0, end-start-1)
	ctx = append(ctx, lines[start:i]...)
	return append(ctx, lines[i+1:end]...)
}

func withLocation(err error, path string, line int) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.WithPath(path).WithLine(line)
	}
	return err
}
