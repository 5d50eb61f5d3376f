package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgr/internal/args"
	"rgr/internal/config"
	"rgr/internal/replay"
	"rgr/internal/testkit"
)

const fileA = "one\nfoo two\nthree\nfoo four\n"

const streamA = `{"type":"begin","data":{"path":{"text":"a.txt"}}}
{"type":"context","data":{"path":{"text":"a.txt"},"lines":{"text":"one\n"},"line_number":1,"absolute_offset":0,"submatches":[]}}
{"type":"match","data":{"path":{"text":"a.txt"},"lines":{"text":"foo two\n"},"line_number":2,"absolute_offset":4,"submatches":[{"match":{"text":"foo"},"start":0,"end":3}]}}
{"type":"context","data":{"path":{"text":"a.txt"},"lines":{"text":"three\n"},"line_number":3,"absolute_offset":12,"submatches":[]}}
{"type":"match","data":{"path":{"text":"a.txt"},"lines":{"text":"foo four\n"},"line_number":4,"absolute_offset":18,"submatches":[{"match":{"text":"foo"},"start":0,"end":3}]}}
{"type":"end","data":{"path":{"text":"a.txt"}}}
{"type":"summary","data":{"stats":{"matches":2,"matched_lines":2,"searches_with_match":1,"bytes_searched":27}}}
`

// workspace creates a directory holding a.txt and a fake rg that prints
// streamA and records its arguments.
func workspace(t *testing.T) (dir string, cfg config.Config, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(fileA), 0o644))

	bin := t.TempDir()
	streamFile := filepath.Join(bin, "stream")
	require.NoError(t, os.WriteFile(streamFile, []byte(streamA), 0o644))
	argsFile = filepath.Join(bin, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + argsFile + "'\ncat '" + streamFile + "'\n"
	rg := filepath.Join(bin, "rg")
	require.NoError(t, os.WriteFile(rg, []byte(script), 0o755))

	cfg = config.Default()
	cfg.Search.Binary = rg
	cfg.Journal.Dir = filepath.Join(t.TempDir(), "journal")
	return dir, cfg, argsFile
}

func request(t *testing.T, argv []string, dir string, cfg config.Config) Request {
	t.Helper()
	opts, err := args.Parse(argv)
	require.NoError(t, err)
	return Request{Argv: argv, Options: opts, Config: cfg, Dir: dir, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

func TestBatchDiffToStdout(t *testing.T) {
	dir, cfg, argsFile := workspace(t)
	req := request(t, []string{"foo", "--replace", "bar", "--diff"}, dir, cfg)

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, args.ModeBatchDiff, res.Mode)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 2, res.Matches)
	assert.Equal(t, 2, res.Accepted)

	want := `--- a/a.txt
+++ b/a.txt
@@ -1,4 +1,4 @@
 one
-foo two
+bar two
 three
-foo four
+bar four
`
	assert.Equal(t, want, req.Stdout.(*bytes.Buffer).String())

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, fileA, string(data), "diff mode never edits files")

	forwarded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "foo\n--json\n--line-number\n--context=3\n", string(forwarded))
}

func TestInteractiveInPlaceWithUndoJournal(t *testing.T) {
	dir, cfg, _ := workspace(t)
	req := request(t, []string{"foo", "-R", "bar"}, dir, cfg)
	answers := []replay.Action{replay.ActionSkip, replay.ActionAccept}
	req.Decider = replay.DeciderFunc(func(context.Context, replay.Prompt) (replay.Action, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	})

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, args.ModeInteractive, res.Mode)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Changes, 1)
	require.NoError(t, testkit.CheckHunkInvariants(res.Changes[0].Hunks))
	assert.NotEmpty(t, res.Journal)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\nfoo two\nthree\nbar four\n", string(data))
}

func TestAbortKeepsEarlierDecisions(t *testing.T) {
	dir, cfg, _ := workspace(t)
	req := request(t, []string{"foo", "--replace", "bar"}, dir, cfg)
	req.Stdin = strings.NewReader("y\nq\n")

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Aborted)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\nbar two\nthree\nfoo four\n", string(data))
	assert.Contains(t, req.Stdout.(*bytes.Buffer).String(), "Replace (1/2)?")
}

func TestIterativeDiffPromptsOnStderr(t *testing.T) {
	dir, cfg, _ := workspace(t)
	cfg.Journal.Enabled = false
	target := filepath.Join(t.TempDir(), "out.diff")
	req := request(t, []string{"foo", "--replace=bar", "--iterative", "--diff=" + target}, dir, cfg)
	req.Stdin = strings.NewReader("n\ny\n")

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	assert.Empty(t, res.Journal)

	patch, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(patch), "-foo four\n+bar four\n")
	assert.NotContains(t, string(patch), "+bar two")
	assert.Contains(t, req.Stdout.(*bytes.Buffer).String(), "Replace (2/2)?", "prompts go to stdout when the diff goes to a file")
}

func TestProtectedFilesAreLeftAlone(t *testing.T) {
	dir, cfg, _ := workspace(t)
	cfg.Review.Protect = []string{"*.txt"}
	req := request(t, []string{"foo", "--replace", "bar", "--no-confirm"}, dir, cfg)

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, args.ModeBatchInPlace, res.Mode)
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, int64(1), res.Stats.Stats.Protected)
	assert.Empty(t, res.Changes)
}

func TestConflictingFileIsReported(t *testing.T) {
	dir, cfg, _ := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("rewritten meanwhile\n"), 0o644))
	req := request(t, []string{"foo", "--replace", "bar", "--no-confirm"}, dir, cfg)

	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, res.Conflicts)
	assert.Contains(t, req.Stderr.(*bytes.Buffer).String(), "left untouched")
}

func TestRunRejectsPassthrough(t *testing.T) {
	_, err := Run(context.Background(), Request{})
	require.Error(t, err)
}
