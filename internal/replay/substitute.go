package replay

import (
	"slices"
	"strings"

	"rgr/internal/errs"
	"rgr/internal/rgjson"
)

// sortedRanges returns a copy of ranges ordered by start, then end, and
// rejects inverted or overlapping ranges. Two empty ranges at the same offset
// do not overlap.
func sortedRanges(ranges []rgjson.Range) ([]rgjson.Range, error) {
	for _, r := range ranges {
		if r.End < r.Start {
			return nil, errs.Protocolf("substitute", "submatch [%d,%d) is inverted", r.Start, r.End)
		}
	}
	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b rgjson.Range) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.End > cur.Start {
			return nil, errs.Protocolf("substitute", "submatches [%d,%d) and [%d,%d) overlap",
				prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return sorted, nil
}

// Substitute replaces every range of text with repl. Ranges are applied in
// ascending order against the original offsets, so earlier replacements
// never shift later ones.
func Substitute(text string, ranges []rgjson.Range, repl string) (string, error) {
	sorted, err := sortedRanges(ranges)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(text) + len(sorted)*len(repl))
	last := 0
	for _, r := range sorted {
		if r.Start < last || r.End > len(text) {
			return "", errs.Protocolf("substitute", "submatch [%d,%d) outside line of %d bytes", r.Start, r.End, len(text))
		}
		b.WriteString(text[last:r.Start])
		b.WriteString(repl)
		last = r.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Segment is a run of line text that is either emphasised or plain.
type Segment struct {
	Text     string
	Emphasis bool
}

// Segments splits text on submatch boundaries. Each range becomes exactly
// one emphasised segment; ranges are never split or merged.
func Segments(text string, ranges []rgjson.Range) ([]Segment, error) {
	sorted, err := sortedRanges(ranges)
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, 2*len(sorted)+1)
	last := 0
	for _, r := range sorted {
		if r.Start < 0 || r.End > len(text) {
			return nil, errs.Protocolf("render", "submatch [%d,%d) outside line of %d bytes", r.Start, r.End, len(text))
		}
		if r.Start > last {
			out = append(out, Segment{Text: text[last:r.Start]})
		}
		if r.End > r.Start {
			out = append(out, Segment{Text: text[r.Start:r.End], Emphasis: true})
		}
		last = r.End
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out, nil
}

// ReplacedRanges maps the submatch ranges of the original line onto the
// substituted line, for highlighting the preview.
func ReplacedRanges(ranges []rgjson.Range, repl string) []rgjson.Range {
	sorted, err := sortedRanges(ranges)
	if err != nil {
		return nil
	}
	out := make([]rgjson.Range, len(sorted))
	shift := 0
	for i, r := range sorted {
		start := r.Start + shift
		out[i] = rgjson.Range{Start: start, End: start + len(repl)}
		shift += len(repl) - r.Len()
	}
	return out
}
