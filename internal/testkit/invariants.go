// Package testkit holds checks shared by tests of several packages.
package testkit

import (
	"fmt"

	"rgr/internal/diff"
)

// CheckHunkInvariants runs the structural checks every hunk list must pass:
// 1) header counts equal the lines carried for each side
// 2) hunks ascend and never overlap on the old side
// 3) NewStart equals OldStart shifted by the line delta of earlier hunks,
// with the GNU rule that an empty side points at the line before
// 4) only the last line of a hunk side may lack a terminator
func CheckHunkInvariants(hunks []diff.Hunk) error {
	delta := 0
	prevEnd := 0
	for i, h := range hunks {
		var oldN, newN int
		for j, l := range h.Lines {
			switch l.Op {
			case diff.OpContext:
				oldN++
				newN++
			case diff.OpRemove:
				oldN++
			case diff.OpAdd:
				newN++
			default:
				return fmt.Errorf("hunk %d line %d: unknown op %d", i, j, l.Op)
			}
			if l.NoEOL && !lastOfSide(h.Lines, j) {
				return fmt.Errorf("hunk %d line %d: missing terminator before the end of the hunk", i, j)
			}
		}
		if oldN != h.OldLines || newN != h.NewLines {
			return fmt.Errorf("hunk %d: header -%d +%d, body -%d +%d", i, h.OldLines, h.NewLines, oldN, newN)
		}

		oldStart := effectiveStart(h.OldStart, h.OldLines)
		if oldStart <= prevEnd {
			return fmt.Errorf("hunk %d starts at old line %d, inside the previous hunk ending at %d", i, oldStart, prevEnd)
		}
		if got := effectiveStart(h.NewStart, h.NewLines); got != oldStart+delta {
			return fmt.Errorf("hunk %d: new start %d, want %d", i, got, oldStart+delta)
		}
		prevEnd = oldStart + h.OldLines - 1
		delta += h.NewLines - h.OldLines
	}
	return nil
}

func effectiveStart(start, count int) int {
	if count == 0 {
		return start + 1
	}
	return start
}

// lastOfSide reports whether no later line of the hunk belongs to the same
// side as lines[j].
func lastOfSide(lines []diff.HunkLine, j int) bool {
	op := lines[j].Op
	for _, l := range lines[j+1:] {
		if l.Op == diff.OpContext || op == diff.OpContext || l.Op == op {
			return false
		}
	}
	return true
}
