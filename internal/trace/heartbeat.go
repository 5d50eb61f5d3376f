package trace

import (
	"fmt"
	"sync"
	"time"
)

// quietBeats is how many beats without a new rg record produce a warning.
const quietBeats = 5

// Heartbeat reports pipeline progress at a fixed interval while rg runs.
// A run of beats with an unchanged record count means rg is still walking
// the tree without output, or the operator has a prompt open.
type Heartbeat struct {
	tracer   Tracer
	progress *Progress
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// StartHeartbeat starts beating. It returns nil when tracing is disabled or
// interval is not positive; Stop on nil is a no-op. progress may be nil.
func StartHeartbeat(tracer Tracer, interval time.Duration, progress *Progress) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: tracer, progress: progress, interval: interval, done: make(chan struct{})}
	h.wg.Add(1)
	go h.loop()
	return h
}

func (h *Heartbeat) loop() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat, quiet int
	var seen int64
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}
		beat++
		snap := h.progress.Snapshot()
		if snap.Records == seen {
			quiet++
		} else {
			seen, quiet = snap.Records, 0
		}
		h.tracer.Emit(&Event{
			Time:   time.Now(),
			Kind:   KindHeartbeat,
			Scope:  ScopeDriver,
			Name:   "heartbeat",
			Detail: fmt.Sprintf("#%d records=%d files=%d matches=%d", beat, snap.Records, snap.Files, snap.Matches),
		})
		if quiet == quietBeats {
			Warn(h.tracer, "quiet", fmt.Sprintf("no rg records for %s", time.Duration(quiet)*h.interval))
		}
	}
}

// Stop ends the beats and waits for the goroutine.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		close(h.done)
		h.wg.Wait()
	})
}
