package diff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const noNewline = `\ No newline at end of file`

// Writer emits unified diffs, one file section per Write call, in call
// order.
type Writer struct {
	w     *bufio.Writer
	files int
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Files returns the number of file sections written.
func (w *Writer) Files() int { return w.files }

// Write emits the section for path. A path without hunks writes nothing.
func (w *Writer) Write(path string, hunks []Hunk) error {
	if len(hunks) == 0 {
		return nil
	}
	name := displayPath(path)
	fmt.Fprintf(w.w, "--- %s\n+++ %s\n", prefixed("a/", name), prefixed("b/", name))
	for _, h := range hunks {
		fmt.Fprintf(w.w, "@@ -%s +%s @@\n", span(h.OldStart, h.OldLines), span(h.NewStart, h.NewLines))
		for _, l := range h.Lines {
			w.w.WriteByte(l.Op.Prefix())
			w.w.WriteString(l.Text)
			w.w.WriteByte('\n')
			if l.NoEOL {
				w.w.WriteString(noNewline + "\n")
			}
		}
	}
	w.files++
	// flush per file so an abort later in the run leaves whole sections
	return w.w.Flush()
}

// Flush writes any buffered output.
func (w *Writer) Flush() error { return w.w.Flush() }

func span(start, count int) string {
	if count == 1 {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "," + strconv.Itoa(count)
}

func displayPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func prefixed(prefix, name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return prefix + name
}

// OpenDestination resolves the diff target: "" or "-" is stdout, anything
// else is created or truncated.
func OpenDestination(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open diff destination: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
