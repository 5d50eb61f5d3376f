package fuzztests

import (
	"strings"
	"testing"

	"rgr/internal/diff"
	"rgr/internal/filegroup"
	"rgr/internal/replay"
	"rgr/internal/rgjson"
	"rgr/internal/testkit"
)

// FuzzBuildApply treats every line containing "foo" as a match, accepts the
// replacement on lines selected by mask, and checks that applying the built
// hunks reproduces a direct edit of the file.
func FuzzBuildApply(f *testing.F) {
	f.Add("one\nfoo two\nthree\nfoo four\n", "bar", uint64(0b10), uint8(3))
	f.Add("foo", "", uint64(1), uint8(0))
	f.Add("a\nfoo\nb\nc\nd\nfoo\n", "x\ny", uint64(0b11), uint8(1))
	f.Fuzz(func(t *testing.T, content, repl string, mask uint64, context uint8) {
		lines := diff.SplitLines(string(clampSeed([]byte(content))))
		var g filegroup.FileGroup
		var decisions []replay.EditDecision
		want := make([]string, 0, len(lines))
		for i, text := range lines {
			at := strings.Index(text, "foo")
			if at < 0 {
				g.Lines = append(g.Lines, filegroup.Line{Kind: filegroup.LineContext, Number: i + 1, Text: text})
				want = append(want, text)
				continue
			}
			l := filegroup.Line{Kind: filegroup.LineMatched, Number: i + 1, Text: text,
				Submatches: []rgjson.Range{{Start: at, End: at + 3}}}
			g.Lines = append(g.Lines, l)
			if mask&(1<<(i%64)) == 0 {
				decisions = append(decisions, replay.EditDecision{LineNumber: l.Number, Original: text})
				want = append(want, text)
				continue
			}
			out, err := replay.Substitute(text, l.Submatches, repl)
			if err != nil {
				t.Fatalf("Substitute: %v", err)
			}
			decisions = append(decisions, replay.EditDecision{LineNumber: l.Number, Original: text, Replacement: &out, Applied: true})
			want = append(want, out)
		}

		hunks, err := diff.Build(g, decisions, int(context%8))
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if err := testkit.CheckHunkInvariants(hunks); err != nil {
			t.Fatalf("invariants: %v", err)
		}
		got, err := diff.Apply(lines, hunks)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if strings.Join(got, "") != strings.Join(want, "") {
			t.Fatalf("round trip mismatch\n got: %q\nwant: %q", strings.Join(got, ""), strings.Join(want, ""))
		}
	})
}
