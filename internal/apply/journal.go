package apply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Session format changes
const journalSchemaVersion uint16 = 1

const journalExt = ".mp"

// ErrNoJournal means there is no session to undo.
var ErrNoJournal = errors.New("no undo journal found")

// Entry is one rewritten file.
type Entry struct {
	Path     string // absolute
	Mode     uint32
	Original []byte
	Before   uint64 // xxhash of Original
	After    uint64 // xxhash of the content rgr wrote
}

// Session is the unit of undo: every file touched by one rgr run.
type Session struct {
	Schema  uint16
	ID      string
	Started time.Time
	Dir     string
	Args    []string
	Entries []Entry
}

// Journal persists a session as it grows, so an interrupted run can still
// be undone.
type Journal struct {
	mu      sync.Mutex
	path    string
	session Session
}

// DefaultDir returns $XDG_CACHE_HOME/rgr/journal, falling back to
// ~/.cache/rgr/journal.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "rgr", "journal"), nil
}

// OpenJournal starts a new session in dir. Nothing is written until the
// first Record.
func OpenJournal(dir, workdir string, args []string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	id := uuid.NewString()
	return &Journal{
		path: filepath.Join(dir, id+journalExt),
		session: Session{
			Schema:  journalSchemaVersion,
			ID:      id,
			Started: time.Now(),
			Dir:     workdir,
			Args:    append([]string(nil), args...),
		},
	}, nil
}

// ID returns the session id.
func (j *Journal) ID() string { return j.session.ID }

// Path returns the session file.
func (j *Journal) Path() string { return j.path }

// Len returns the number of recorded files.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.session.Entries)
}

// Record adds a file to the session and rewrites the session file.
func (j *Journal) Record(e Entry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.session.Entries = append(j.session.Entries, e)
	return writeSession(j.path, &j.session)
}

func writeSession(path string, s *Session) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	return writeAtomic(path, data, 0o600)
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode journal %s: %w", path, err)
	}
	if s.Schema != journalSchemaVersion {
		return nil, fmt.Errorf("journal %s has schema %d, want %d", path, s.Schema, journalSchemaVersion)
	}
	return &s, nil
}

// Latest returns the most recently started session in dir.
func Latest(dir string) (*Session, string, error) {
	names, err := filepath.Glob(filepath.Join(dir, "*"+journalExt))
	if err != nil {
		return nil, "", err
	}
	var (
		best     *Session
		bestPath string
	)
	for _, name := range names {
		s, err := readSession(name)
		if err != nil {
			return nil, "", err
		}
		if best == nil || s.Started.After(best.Started) {
			best, bestPath = s, name
		}
	}
	if best == nil {
		return nil, "", ErrNoJournal
	}
	return best, bestPath, nil
}

// UndoReport lists what Undo did.
type UndoReport struct {
	Session   string
	Restored  []string
	Conflicts []string // files edited since rgr wrote them; left alone
}

// Undo restores every file of the latest session in dir. A file whose
// content no longer matches what rgr wrote is reported as a conflict and
// kept, together with the session, so the operator can resolve it.
func Undo(dir string) (*UndoReport, error) {
	s, path, err := Latest(dir)
	if err != nil {
		return nil, err
	}
	report := &UndoReport{Session: s.ID}
	var remaining []Entry
	var undoErr error
	for i, e := range s.Entries {
		current, err := os.ReadFile(e.Path)
		if err == nil && xxhash.Sum64(current) != e.After {
			report.Conflicts = append(report.Conflicts, e.Path)
			remaining = append(remaining, e)
			continue
		}
		if err == nil {
			err = writeAtomic(e.Path, e.Original, os.FileMode(e.Mode))
		}
		if err != nil {
			// the failed entry and every entry not yet tried stay journaled
			undoErr = fmt.Errorf("undo %s: %w", e.Path, err)
			remaining = append(remaining, s.Entries[i:]...)
			break
		}
		report.Restored = append(report.Restored, e.Path)
	}
	sort.Strings(report.Restored)
	sort.Strings(report.Conflicts)

	var saveErr error
	if len(remaining) > 0 {
		s.Entries = remaining
		saveErr = writeSession(path, s)
	} else {
		saveErr = os.Remove(path)
	}
	return report, errors.Join(undoErr, saveErr)
}

// writeAtomic replaces path through a temp file in the same directory.
func writeAtomic(path string, data []byte, mode os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+strings.TrimPrefix(base, ".")+".rgr-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Chmod(mode.Perm()); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// atomic replace
	return os.Rename(f.Name(), path)
}
