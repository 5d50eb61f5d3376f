package diff

import (
	"errors"
	"fmt"
)

// ErrConflict reports a hunk whose old lines do not match the target.
var ErrConflict = errors.New("hunk does not apply")

// Apply applies hunks, in ascending order, to lines as returned by
// SplitLines. Every context and removed line is verified first.
func Apply(lines []string, hunks []Hunk) ([]string, error) {
	out := make([]string, 0, len(lines))
	pos := 0
	for i, h := range hunks {
		at := h.OldStart - 1
		if h.OldLines == 0 {
			at = h.OldStart
		}
		if at < pos || at+h.OldLines > len(lines) {
			return nil, fmt.Errorf("hunk %d at line %d: %w", i+1, h.OldStart, ErrConflict)
		}
		out = append(out, lines[pos:at]...)

		cur := at
		for _, l := range h.Lines {
			switch l.Op {
			case OpContext, OpRemove:
				if cur >= len(lines) || lines[cur] != l.Raw() {
					return nil, fmt.Errorf("hunk %d: line %d differs: %w", i+1, cur+1, ErrConflict)
				}
				if l.Op == OpContext {
					out = append(out, lines[cur])
				}
				cur++
			case OpAdd:
				out = append(out, l.Raw())
			}
		}
		if cur != at+h.OldLines {
			return nil, fmt.Errorf("hunk %d: header claims %d old lines, body has %d: %w", i+1, h.OldLines, cur-at, ErrConflict)
		}
		pos = cur
	}
	return append(out, lines[pos:]...), nil
}
