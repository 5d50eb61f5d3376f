package trace

import "errors"

// MultiTracer fans each event out to several tracers, typically a stream
// for the operator plus a ring kept for the failure dump.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

// NewMultiTracer combines tracers. Disabled ones are dropped and the
// combined level is the most verbose of the rest.
func NewMultiTracer(tracers ...Tracer) *MultiTracer {
	m := &MultiTracer{}
	for _, t := range tracers {
		if t == nil || !t.Enabled() {
			continue
		}
		m.tracers = append(m.tracers, t)
		m.level = max(m.level, t.Level())
	}
	return m
}

// Emit stamps one sequence number and hands the event to every tracer, so
// the stream and the ring dump agree on ordering.
func (m *MultiTracer) Emit(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = NextSeq()
	}
	for _, t := range m.tracers {
		t.Emit(ev)
	}
}

func (m *MultiTracer) Flush() error {
	var errList []error
	for _, t := range m.tracers {
		errList = append(errList, t.Flush())
	}
	return errors.Join(errList...)
}

func (m *MultiTracer) Close() error {
	var errList []error
	for _, t := range m.tracers {
		errList = append(errList, t.Close())
	}
	return errors.Join(errList...)
}

func (m *MultiTracer) Level() Level  { return m.level }
func (m *MultiTracer) Enabled() bool { return m.level > LevelOff }
