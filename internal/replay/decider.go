package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"rgr/internal/filegroup"
)

// Action is the operator's answer for one matched line.
type Action uint8

const (
	ActionAccept     Action = iota + 1 // replace this line
	ActionSkip                         // leave this line
	ActionAbort                        // stop the whole run
	ActionAcceptFile                   // replace this and every later line of the file
	ActionSkipFile                     // leave this and every later line of the file
)

// String returns the string representation of Action.
func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionSkip:
		return "skip"
	case ActionAbort:
		return "abort"
	case ActionAcceptFile:
		return "accept-file"
	case ActionSkipFile:
		return "skip-file"
	default:
		return "unknown"
	}
}

// Prompt is everything a decider needs to present one matched line.
type Prompt struct {
	Path        string
	Line        filegroup.Line
	Replaced    string // the line after substitution
	Replacement string
	Gutter      int // gutter width of the file group
	Index       int // 1-based position among the file's matched lines
	Total       int // matched lines in the file
	Context     []filegroup.Line
}

// Decider solicits one action per matched line.
type Decider interface {
	Decide(ctx context.Context, p Prompt) (Action, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, p Prompt) (Action, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, p Prompt) (Action, error) {
	return f(ctx, p)
}

const lineHelp = `y - replace this match
n - leave this match
a - replace this and all later matches in the file
d - leave this and all later matches in the file
q - quit; decisions made so far are kept
? - print help
`

// LineDecider renders each prompt and reads one answer per input line.
// End of input means abort, so `yes | rgr ...` replaces everything and
// a closed terminal never replaces anything by accident.
type LineDecider struct {
	in       *bufio.Reader
	renderer *Renderer
	header   string // path of the last header printed
}

// NewLineDecider reads answers from in and renders prompts through r.
func NewLineDecider(in io.Reader, r *Renderer) *LineDecider {
	return &LineDecider{in: bufio.NewReader(in), renderer: r}
}

// Decide implements Decider.
func (d *LineDecider) Decide(ctx context.Context, p Prompt) (Action, error) {
	if err := d.show(p); err != nil {
		return ActionAbort, err
	}
	w := d.renderer.Writer()
	for {
		if err := ctx.Err(); err != nil {
			return ActionAbort, err
		}
		if _, err := fmt.Fprintf(w, "Replace (%d/%d)? [y,n,a,d,q,?] ", p.Index, p.Total); err != nil {
			return ActionAbort, err
		}
		answer, err := d.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return ActionAbort, err
		}
		if errors.Is(err, io.EOF) && strings.TrimSpace(answer) == "" {
			_, _ = fmt.Fprintln(w)
			return ActionAbort, nil
		}
		if action, ok := parseAnswer(answer); ok {
			return action, nil
		}
		if _, err := io.WriteString(w, lineHelp); err != nil {
			return ActionAbort, err
		}
	}
}

func (d *LineDecider) show(p Prompt) error {
	if p.Path != d.header {
		if err := d.renderer.Header(p.Path); err != nil {
			return err
		}
		d.header = p.Path
	}
	for _, l := range p.Context {
		if l.Number >= p.Line.Number {
			break
		}
		if err := d.renderer.Line(l, p.Gutter); err != nil {
			return err
		}
	}
	if err := d.renderer.Line(p.Line, p.Gutter); err != nil {
		return err
	}
	if err := d.renderer.Preview(p.Line, p.Replaced, p.Replacement, p.Gutter); err != nil {
		return err
	}
	for _, l := range p.Context {
		if l.Number <= p.Line.Number {
			continue
		}
		if err := d.renderer.Line(l, p.Gutter); err != nil {
			return err
		}
	}
	return nil
}

func parseAnswer(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return ActionAccept, true
	case "n", "no":
		return ActionSkip, true
	case "a", "all":
		return ActionAcceptFile, true
	case "d":
		return ActionSkipFile, true
	case "q", "quit":
		return ActionAbort, true
	default:
		return 0, false
	}
}
