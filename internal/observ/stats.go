package observ

import "sync/atomic"

// Stats counts what a run saw and did.
type Stats struct {
	files        atomic.Int64
	matches      atomic.Int64
	accepted     atomic.Int64
	skipped      atomic.Int64
	protected    atomic.Int64
	filesWritten atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Files        int64 `json:"files"`
	Matches      int64 `json:"matches"`
	Accepted     int64 `json:"accepted"`
	Skipped      int64 `json:"skipped"`
	Protected    int64 `json:"protected"`
	FilesWritten int64 `json:"files_written"`
}

// AddFile counts one reviewed file and its matched lines.
func (s *Stats) AddFile(matches int) {
	s.files.Add(1)
	s.matches.Add(int64(matches))
}

// AddDecisions counts accepted and skipped lines.
func (s *Stats) AddDecisions(accepted, skipped int) {
	s.accepted.Add(int64(accepted))
	s.skipped.Add(int64(skipped))
}

// AddProtected counts a file left alone by a protect pattern.
func (s *Stats) AddProtected() { s.protected.Add(1) }

// AddWritten counts a file whose diff or in-place edit was emitted.
func (s *Stats) AddWritten() { s.filesWritten.Add(1) }

// Snapshot returns the current counts.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Files:        s.files.Load(),
		Matches:      s.matches.Load(),
		Accepted:     s.accepted.Load(),
		Skipped:      s.skipped.Load(),
		Protected:    s.protected.Load(),
		FilesWritten: s.filesWritten.Load(),
	}
}
