package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"rgr/internal/filegroup"
	"rgr/internal/rgjson"
)

// Renderer prints file groups the way rg does: a path header, then a
// right-aligned line-number gutter with ':' for matches and '-' for context.
type Renderer struct {
	w      io.Writer
	path   *color.Color
	gutter *color.Color
	match  *color.Color
	added  *color.Color
}

// NewRenderer returns a renderer writing to w. colored forces escape codes
// on or off regardless of what fatih/color detected for stdout.
func NewRenderer(w io.Writer, colored bool) *Renderer {
	r := &Renderer{
		w:      w,
		path:   color.New(color.FgMagenta, color.Bold),
		gutter: color.New(color.FgGreen),
		match:  color.New(color.FgRed, color.Bold),
		added:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{r.path, r.gutter, r.match, r.added} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Writer returns the underlying writer.
func (r *Renderer) Writer() io.Writer { return r.w }

// Header prints the file path.
func (r *Renderer) Header(path string) error {
	_, err := fmt.Fprintln(r.w, r.path.Sprint(path))
	return err
}

// Line prints one line with its gutter; submatches of matched lines are
// emphasised.
func (r *Renderer) Line(l filegroup.Line, width int) error {
	sep := "-"
	var ranges []rgjson.Range
	if l.Matched() {
		sep = ":"
		ranges = l.Submatches
	}
	gutter := r.gutter.Sprintf("%*d", width, l.Number) + sep
	return r.body(gutter, l.Text, ranges, r.match)
}

// Preview prints the substituted line under the original one, with the
// replacement text emphasised.
func (r *Renderer) Preview(l filegroup.Line, replaced, repl string, width int) error {
	gutter := strings.Repeat(" ", width) + r.added.Sprint("+")
	return r.body(gutter, replaced, ReplacedRanges(l.Submatches, repl), r.added)
}

func (r *Renderer) body(gutter, text string, ranges []rgjson.Range, emph *color.Color) error {
	body := trimTerminator(text)
	segments, err := Segments(body, clipRanges(ranges, len(body)))
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(gutter)
	for _, seg := range segments {
		if seg.Emphasis {
			b.WriteString(emph.Sprint(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	b.WriteByte('\n')
	_, err = io.WriteString(r.w, b.String())
	return err
}

func trimTerminator(text string) string {
	text = strings.TrimSuffix(text, "\n")
	return strings.TrimSuffix(text, "\r")
}

// clipRanges cuts ranges that reach into the stripped line terminator.
func clipRanges(ranges []rgjson.Range, n int) []rgjson.Range {
	out := make([]rgjson.Range, 0, len(ranges))
	for _, rg := range ranges {
		out = append(out, rgjson.Range{Start: min(rg.Start, n), End: min(rg.End, n)})
	}
	return out
}
