package fuzztests

import (
	"strings"
	"testing"

	"rgr/internal/args"
	"rgr/internal/rgjson"
	"rgr/internal/replay"
)

func FuzzSubstitute(f *testing.F) {
	f.Add("fooBARbaz", 3, 6, "X")
	f.Add("aaaa", 0, 4, "")
	f.Add("x", 1, 1, "inserted")
	f.Add("short", 2, 9, "y")
	f.Fuzz(func(t *testing.T, text string, start, end int, repl string) {
		ranges := []rgjson.Range{{Start: start, End: end}}
		got, err := replay.Substitute(text, ranges, repl)
		if err != nil {
			return
		}
		if want := len(text) - (end - start) + len(repl); len(got) != want {
			t.Fatalf("Substitute(%q, [%d,%d), %q) = %q: length %d, want %d", text, start, end, repl, got, len(got), want)
		}
		if !strings.HasPrefix(got, text[:start]) || !strings.HasSuffix(got, text[end:]) {
			t.Fatalf("Substitute(%q, [%d,%d), %q) = %q changed bytes outside the range", text, start, end, repl, got)
		}
	})
}

// FuzzRewrite checks that no rgr flag ever reaches rg and that every
// required flag does.
func FuzzRewrite(f *testing.F) {
	for _, s := range argSeeds {
		f.Add(s)
	}
	required := args.RequiredFlags(args.DefaultContext)
	f.Fuzz(func(t *testing.T, joined string) {
		argv := strings.Split(string(clampSeed([]byte(joined))), "\x00")
		out := args.Rewrite(argv, args.ManagedFlags, required)
		if len(out) > len(argv)+len(required) {
			t.Fatalf("Rewrite(%q) grew to %d tokens", argv, len(out))
		}
		for _, tok := range out {
			for _, spec := range args.ManagedFlags {
				if strings.HasPrefix(tok, spec.Name) {
					t.Fatalf("Rewrite(%q) forwarded managed token %q", argv, tok)
				}
			}
		}
		for flag, ok := range args.Presence(out, required) {
			if !ok {
				t.Fatalf("Rewrite(%q) = %q lacks %s", argv, out, flag)
			}
		}
	})
}
