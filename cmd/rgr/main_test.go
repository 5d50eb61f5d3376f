package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"rgr/internal/args"
	"rgr/internal/driver"
	"rgr/internal/errs"
	"rgr/internal/observ"
)

func TestExitCode(t *testing.T) {
	color.NoColor = true
	cases := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"ok", nil, 0, ""},
		{"passthrough status", &exitCodeError{code: 1}, 1, ""},
		{"usage", errs.Usagef("--diff needs a path, got %q", "--x"), 2, "rgr: "},
		{"runtime", errors.New("boom"), 1, "rgr: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitCode(&buf, tc.err); got != tc.want {
				t.Fatalf("exitCode = %d, want %d", got, tc.want)
			}
			if tc.msg == "" && buf.Len() != 0 {
				t.Fatalf("unexpected output %q", buf.String())
			}
			if !strings.Contains(buf.String(), tc.msg) {
				t.Fatalf("output %q does not contain %q", buf.String(), tc.msg)
			}
		})
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, " on ": uiModeOn, "off": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error for unknown ui mode")
	}
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	res := &driver.Result{Files: 2, Matches: 5, Accepted: 3, Aborted: true, Journal: "/tmp/x.mp", Conflicts: []string{"b.txt"}}
	res.Stats = observ.Report{TotalMS: 1.5}

	var buf bytes.Buffer
	printSummary(&buf, res, args.Options{}, true)
	out := buf.String()
	for _, want := range []string{
		"rgr: replaced 3 of 5 matches in 2 files (aborted)\n",
		"1 files changed during review",
		"rgr --undo",
		"timings:",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary %q missing %q", out, want)
		}
	}

	buf.Reset()
	printSummary(&buf, &driver.Result{Files: 1, Matches: 1, Accepted: 1}, args.Options{Diff: true}, false)
	if got := buf.String(); got != "rgr: accepted 1 of 1 matches in 1 files\n" {
		t.Fatalf("summary = %q", got)
	}
}
