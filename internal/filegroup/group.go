// Package filegroup folds rg's event stream into one group of lines per file.
package filegroup

import (
	"strconv"

	"rgr/internal/rgjson"
)

// LineKind distinguishes matched lines from context lines.
type LineKind uint8

const (
	LineMatched LineKind = iota + 1
	LineContext
)

// Line is a matched or context line as reported by rg.
type Line struct {
	Kind       LineKind
	Number     int
	Offset     int64 // absolute byte offset; matched lines only
	Text       string
	Submatches []rgjson.Range // matched lines only
}

// Matched reports whether the line carries submatches.
func (l Line) Matched() bool { return l.Kind == LineMatched }

// FileGroup holds the lines of one file in ascending line order.
type FileGroup struct {
	Path  string
	Lines []Line
}

// GutterWidth is the widest line number in the group, in digits.
func (g FileGroup) GutterWidth() int {
	width := 1
	for _, l := range g.Lines {
		if w := len(strconv.Itoa(l.Number)); w > width {
			width = w
		}
	}
	return width
}

// MatchCount returns the number of matched lines.
func (g FileGroup) MatchCount() int {
	n := 0
	for _, l := range g.Lines {
		if l.Matched() {
			n++
		}
	}
	return n
}
