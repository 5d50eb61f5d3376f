package trace

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// StreamTracer writes each event as soon as it is emitted, usually to
// stderr next to rgr's own prompts or to a trace file.
type StreamTracer struct {
	mu      sync.Mutex
	w       io.Writer
	level   Level
	format  Format
	lost    int   // events whose write failed since the last Flush
	lostErr error // first of those failures
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{w: w, level: level, format: format}
}

// Emit writes ev if the level lets it through. A failed write never stops
// the replace run; it is counted and reported by the next Flush.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Kind, ev.Scope) {
		return
	}
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.w.Write(data); err != nil {
		if t.lost == 0 {
			t.lostErr = err
		}
		t.lost++
	}
}

// Flush flushes a buffered writer and reports events lost since the
// previous Flush.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var lostErr error
	if t.lost > 0 {
		lostErr = fmt.Errorf("%d trace events lost: %w", t.lost, t.lostErr)
		t.lost, t.lostErr = 0, nil
	}
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return errors.Join(lostErr, flusher.Flush())
	}
	return lostErr
}

// Close flushes, then closes the writer when it is an io.Closer. A trace
// file is closed even if the flush failed.
func (t *StreamTracer) Close() error {
	flushErr := t.Flush()
	if closer, ok := t.w.(io.Closer); ok {
		if err := closer.Close(); err != nil && flushErr == nil {
			return err
		}
	}
	return flushErr
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
