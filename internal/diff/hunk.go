// Package diff turns reviewed file groups into unified-diff hunks, writes
// them out, and applies them back onto file contents.
package diff

import (
	"fmt"
	"strings"

	"rgr/internal/filegroup"
	"rgr/internal/replay"
)

// Op is the role of a line inside a hunk.
type Op uint8

const (
	OpContext Op = iota
	OpRemove
	OpAdd
)

// Prefix returns the unified-diff column marker for op.
func (o Op) Prefix() byte {
	switch o {
	case OpRemove:
		return '-'
	case OpAdd:
		return '+'
	default:
		return ' '
	}
}

// HunkLine is one physical line. Text excludes the "\n" terminator; NoEOL
// marks a final line that had none.
type HunkLine struct {
	Op    Op
	Text  string
	NoEOL bool
}

// Raw returns the line as it appears in the file.
func (l HunkLine) Raw() string {
	if l.NoEOL {
		return l.Text
	}
	return l.Text + "\n"
}

// Hunk is a contiguous edit window. Starts are 1-based; a zero count
// follows the GNU convention of pointing at the line before the window.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Lines              []HunkLine
}

// item is either one unchanged physical line or one changed rg record.
type item struct {
	start   int
	old     []string
	new     []string
	changed bool
}

func (it item) next() int { return it.start + len(it.old) }

// SplitLines splits s after every "\n". The last element lacks a terminator
// when s does not end with one.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Build produces the hunks for g. Context is taken only from lines rg
// reported and only while they are contiguous with the edit; windows that
// touch or overlap are merged.
func Build(g filegroup.FileGroup, decisions []replay.EditDecision, context int) ([]Hunk, error) {
	if context < 0 {
		context = 0
	}
	byLine := make(map[int]replay.EditDecision, len(decisions))
	for _, d := range decisions {
		byLine[d.LineNumber] = d
	}

	items := make([]item, 0, len(g.Lines))
	for _, l := range g.Lines {
		old := SplitLines(l.Text)
		d, ok := byLine[l.Number]
		if ok && l.Matched() && d.Changed() {
			repl := *d.Replacement
			if strings.HasSuffix(l.Text, "\n") && !strings.HasSuffix(repl, "\n") {
				return nil, fmt.Errorf("diff %s:%d: replacement removes the line terminator", g.Path, l.Number)
			}
			items = append(items, item{start: l.Number, old: old, new: SplitLines(repl), changed: true})
			continue
		}
		for i, raw := range old {
			items = append(items, item{start: l.Number + i, old: []string{raw}, new: []string{raw}})
		}
	}

	contiguous := func(a, b int) bool { return items[a].next() == items[b].start }

	type window struct{ lo, hi int }
	var windows []window
	for c := range items {
		if !items[c].changed {
			continue
		}
		lo := c
		for n := 0; n < context && lo > 0 && contiguous(lo-1, lo) && !items[lo-1].changed; n++ {
			lo--
		}
		hi := c
		for n := 0; n < context && hi+1 < len(items) && contiguous(hi, hi+1) && !items[hi+1].changed; n++ {
			hi++
		}
		if k := len(windows) - 1; k >= 0 {
			last := &windows[k]
			if lo <= last.hi || (lo == last.hi+1 && contiguous(last.hi, lo)) {
				last.hi = hi
				continue
			}
		}
		windows = append(windows, window{lo, hi})
	}

	hunks := make([]Hunk, 0, len(windows))
	delta := 0
	for _, w := range windows {
		h := Hunk{OldStart: items[w.lo].start}
		h.NewStart = h.OldStart + delta
		for _, it := range items[w.lo : w.hi+1] {
			h.OldLines += len(it.old)
			h.NewLines += len(it.new)
			if !it.changed {
				h.Lines = append(h.Lines, hunkLine(OpContext, it.old[0]))
				continue
			}
			for _, raw := range it.old {
				h.Lines = append(h.Lines, hunkLine(OpRemove, raw))
			}
			for _, raw := range it.new {
				h.Lines = append(h.Lines, hunkLine(OpAdd, raw))
			}
		}
		delta += h.NewLines - h.OldLines
		if h.NewLines == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
	}
	return hunks, nil
}

func hunkLine(op Op, raw string) HunkLine {
	text, ok := strings.CutSuffix(raw, "\n")
	return HunkLine{Op: op, Text: text, NoEOL: !ok}
}
