package trace

import (
	"sync/atomic"
	"time"
)

// Progress counts what the pipeline has consumed from rg so far. Heartbeats
// report it; a nil *Progress ignores every call.
type Progress struct {
	records atomic.Int64
	files   atomic.Int64
	matches atomic.Int64
	last    atomic.Int64 // unix nanos of the latest record
}

// ProgressSnapshot is a point-in-time copy of a Progress.
type ProgressSnapshot struct {
	Records int64
	Files   int64
	Matches int64
	Idle    time.Duration // since the latest record; 0 before the first
}

// NewProgress returns an empty counter set.
func NewProgress() *Progress { return &Progress{} }

// Record notes one decoded rg record.
func (p *Progress) Record() {
	if p == nil {
		return
	}
	p.records.Add(1)
	p.last.Store(time.Now().UnixNano())
}

// File notes one sealed file group holding matches matched lines.
func (p *Progress) File(matches int) {
	if p == nil {
		return
	}
	p.files.Add(1)
	p.matches.Add(int64(matches))
}

// Snapshot reads the counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{}
	}
	s := ProgressSnapshot{
		Records: p.records.Load(),
		Files:   p.files.Load(),
		Matches: p.matches.Load(),
	}
	if last := p.last.Load(); last != 0 {
		s.Idle = time.Since(time.Unix(0, last))
	}
	return s
}
