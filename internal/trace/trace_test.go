package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLevelFiltersScopes(t *testing.T) {
	cases := []struct {
		level Level
		kind  Kind
		scope Scope
		want  bool
	}{
		{LevelOff, KindWarn, ScopeDriver, false},
		{LevelError, KindWarn, ScopeDriver, true},
		{LevelError, KindSpanBegin, ScopeDriver, false},
		{LevelStage, KindSpanBegin, ScopeStage, true},
		{LevelStage, KindSpanBegin, ScopeFile, false},
		{LevelFile, KindPoint, ScopeFile, true},
		{LevelFile, KindPoint, ScopeLine, false},
		{LevelDebug, KindPoint, ScopeLine, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.kind, tc.scope); got != tc.want {
			t.Fatalf("%v.ShouldEmit(%v, %v) = %v, want %v", tc.level, tc.kind, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevelRoundTrip(t *testing.T) {
	for _, l := range []Level{LevelOff, LevelError, LevelStage, LevelFile, LevelDebug} {
		got, err := ParseLevel(strings.ToUpper(l.String()))
		if err != nil || got != l {
			t.Fatalf("ParseLevel(%q) = %v, %v", l.String(), got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelStage, FormatText)

	span := Begin(tr, ScopeStage, "search", 0)
	span.WithExtra("files", "2").End("ok")
	Begin(tr, ScopeFile, "file:a.txt", span.ID()).End("")

	out := buf.String()
	if !strings.Contains(out, "→ search") || !strings.Contains(out, "← search (ok) {files=2}") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "file:a.txt") {
		t.Fatalf("file scope leaked at stage level:\n%s", out)
	}
}

func TestNDJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeLine, "event", "match 3")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid ndjson %q: %v", buf.String(), err)
	}
	if decoded["name"] != "event" || decoded["detail"] != "match 3" || decoded["kind"] != "point" {
		t.Fatalf("unexpected record: %v", decoded)
	}
}

func TestRingTracerWrapsInOrder(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeLine, name, "")
	}
	snap := ring.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Fatalf("snap[%d] = %q, want %q", i, snap[i].Name, want)
		}
	}
	multi := NewMultiTracer(Nop, ring)
	if r, ok := Ring(multi); !ok || r != ring {
		t.Fatalf("Ring did not find the ring inside a MultiTracer")
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop without a tracer")
	}
	ring := NewRingTracer(8, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != ring {
		t.Fatalf("tracer not propagated")
	}
	span := Begin(ring, ScopeStage, "review", 0)
	if ParentSpan(WithSpan(ctx, span)) != span.ID() {
		t.Fatalf("span id not propagated")
	}
}

func TestHeartbeatStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	ring := NewRingTracer(64, LevelStage)
	hb := StartHeartbeat(ring, time.Millisecond, nil)
	time.Sleep(10 * time.Millisecond)
	hb.Stop()
	hb.Stop()

	if len(ring.Snapshot()) == 0 {
		t.Fatalf("expected at least one heartbeat")
	}
	var nilBeat *Heartbeat
	nilBeat.Stop()
}

func TestMultiTracerLevelFollowsChildren(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiTracer(Nop, NewStreamTracer(&buf, LevelStage, FormatText), NewRingTracer(8, LevelFile))
	if multi.Level() != LevelFile || !multi.Enabled() {
		t.Fatalf("level = %v, want file", multi.Level())
	}
	if NewMultiTracer(Nop).Enabled() {
		t.Fatalf("a multi tracer of disabled tracers must be disabled")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamTracerReportsLostEvents(t *testing.T) {
	tr := NewStreamTracer(failingWriter{}, LevelDebug, FormatText)
	Point(tr, ScopeLine, "event", "match 1")
	Point(tr, ScopeLine, "event", "match 2")

	err := tr.Flush()
	if err == nil || !strings.Contains(err.Error(), "2 trace events lost: disk full") {
		t.Fatalf("Flush() = %v", err)
	}
	if err := tr.Flush(); err != nil {
		t.Fatalf("lost count not reset: %v", err)
	}
}

func TestHeartbeatReportsProgress(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := NewProgress()
	p.Record()
	p.Record()
	p.File(3)
	ring := NewRingTracer(256, LevelStage)
	hb := StartHeartbeat(ring, time.Millisecond, p)
	deadline := time.Now().Add(2 * time.Second)
	var sawBeat, sawQuiet bool
	for time.Now().Before(deadline) && !(sawBeat && sawQuiet) {
		time.Sleep(5 * time.Millisecond)
		for _, ev := range ring.Snapshot() {
			switch {
			case ev.Kind == KindHeartbeat && strings.HasSuffix(ev.Detail, "records=2 files=1 matches=3"):
				sawBeat = true
			case ev.Kind == KindWarn && ev.Name == "quiet":
				sawQuiet = true
			}
		}
	}
	hb.Stop()
	if !sawBeat || !sawQuiet {
		t.Fatalf("beat=%v quiet=%v in %+v", sawBeat, sawQuiet, ring.Snapshot())
	}
}

func TestProgressFromContext(t *testing.T) {
	if ProgressFrom(context.Background()) != nil {
		t.Fatalf("expected no progress without WithProgress")
	}
	p := NewProgress()
	ProgressFrom(WithProgress(context.Background(), p)).File(2)
	if got := p.Snapshot(); got.Files != 1 || got.Matches != 2 {
		t.Fatalf("snapshot = %+v", got)
	}
	var none *Progress
	none.Record()
	if none.Snapshot() != (ProgressSnapshot{}) {
		t.Fatalf("nil progress must read as zero")
	}
}
