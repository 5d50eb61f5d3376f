// Package apply writes accepted edits back into files and keeps an undo
// journal of what it overwrote.
package apply

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"rgr/internal/diff"
	"rgr/internal/errs"
)

// FileChange summarises one rewritten file.
type FileChange struct {
	Path    string
	Hunks   []diff.Hunk
	Removed int
	Added   int
}

// Applier edits files in place. Relative paths are resolved against Dir.
type Applier struct {
	Dir     string
	Journal *Journal // nil disables undo
}

// ApplyFile applies hunks to path. The file is re-read and every hunk is
// checked against it, so a file changed since rg searched it is left
// untouched and reported.
func (a *Applier) ApplyFile(path string, hunks []diff.Hunk) (FileChange, error) {
	change := FileChange{Path: path, Hunks: hunks}
	if len(hunks) == 0 {
		return change, nil
	}
	target, err := a.resolve(path)
	if err != nil {
		return change, errs.New(errs.KindIO, "apply", err).WithPath(path)
	}
	info, err := os.Stat(target)
	if err != nil {
		return change, errs.New(errs.KindIO, "apply", err).WithPath(path)
	}
	original, err := os.ReadFile(target)
	if err != nil {
		return change, errs.New(errs.KindIO, "apply", err).WithPath(path)
	}

	lines, err := diff.Apply(diff.SplitLines(string(original)), hunks)
	if err != nil {
		return change, errs.New(errs.KindIO, "apply", fmt.Errorf("file changed since it was searched: %w", err)).WithPath(path)
	}
	updated := []byte(strings.Join(lines, ""))

	for _, h := range hunks {
		for _, l := range h.Lines {
			switch l.Op {
			case diff.OpRemove:
				change.Removed++
			case diff.OpAdd:
				change.Added++
			}
		}
	}

	if a.Journal != nil {
		err := a.Journal.Record(Entry{
			Path:     target,
			Mode:     uint32(info.Mode().Perm()),
			Original: original,
			Before:   xxhash.Sum64(original),
			After:    xxhash.Sum64(updated),
		})
		if err != nil {
			return change, errs.New(errs.KindIO, "journal", err).WithPath(path)
		}
	}
	if err := writeAtomic(target, updated, info.Mode()); err != nil {
		return change, errs.New(errs.KindIO, "apply", err).WithPath(path)
	}
	return change, nil
}

// resolve returns the absolute path of the real file behind path, so
// symlinks stay symlinks after the rename.
func (a *Applier) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) && a.Dir != "" {
		path = filepath.Join(a.Dir, path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}
