package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorMessageIncludesContext(t *testing.T) {
	err := Protocolf("aggregate", "unexpected %s", "begin").WithPath("a.txt").WithLine(4)
	want := "aggregate: protocol error in a.txt at line 4: unexpected begin"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(KindIO, "write", io.ErrShortWrite)
	wrapped := fmt.Errorf("apply: %w", base)

	if !IsKind(wrapped, KindIO) {
		t.Fatalf("expected wrapped error to keep KindIO")
	}
	if !errors.Is(wrapped, io.ErrShortWrite) {
		t.Fatalf("expected errors.Is to reach the underlying error")
	}
	if IsKind(wrapped, KindParse) {
		t.Fatalf("unexpected KindParse match")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{Usagef("--diff requires --replace"), 2},
		{fmt.Errorf("run: %w", Parsef("bad record")), 1},
		{errors.New("plain"), 1},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
