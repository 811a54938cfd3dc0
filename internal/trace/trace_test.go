package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"coflow/internal/trace"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeInstance, false},
		{trace.LevelDetail, trace.ScopeInstance, true},
		{trace.LevelDetail, trace.ScopeStep, false},
		{trace.LevelDebug, trace.ScopeStep, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	if _, err := trace.ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	if l, err := trace.ParseLevel("DEBUG"); err != nil || l != trace.LevelDebug {
		t.Errorf("ParseLevel(DEBUG) = %v, %v", l, err)
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelDetail, trace.FormatText)
	trace.Point(tr, trace.ScopeInstance, "yield", "", "pos", "3", "id", "1")
	trace.Point(tr, trace.ScopeStep, "step", "filtered out")

	want := "[     1]   • yield {id=1, pos=3}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatNDJSON)
	span := trace.Begin(tr, trace.ScopePass, "optimize", 0)
	span.WithExtra("merged", "4").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var end map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if end["kind"] != "end" || end["name"] != "optimize" || end["detail"] != "ok" {
		t.Errorf("unexpected end event: %v", end)
	}
}

func TestRingWraps(t *testing.T) {
	ring := trace.NewRingTracer(2, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		trace.Point(ring, trace.ScopeStep, name, "")
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestZapTracer(t *testing.T) {
	var buf bytes.Buffer
	tr := trace.NewZapTracer(trace.NewZapLogger(&buf), trace.LevelDebug)
	trace.Point(tr, trace.ScopeStep, "step", "a2", "action", "branch")
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("zap output is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "step" || rec["level"] != "debug" || rec["kind"] != "point" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestContextPropagation(t *testing.T) {
	if trace.FromContext(context.Background()) != trace.Nop {
		t.Error("empty context must yield Nop")
	}
	ring := trace.NewRingTracer(4, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	if trace.FromContext(ctx) != trace.Tracer(ring) {
		t.Error("tracer not propagated")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil || tr.Enabled() {
		t.Errorf("New(off) = %v, %v", tr, err)
	}
	if _, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: 9}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	var buf bytes.Buffer
	stream := trace.NewStreamTracer(&buf, trace.LevelPhase, trace.FormatText)
	ring := trace.NewRingTracer(8, trace.LevelDebug)
	multi := trace.NewMultiTracer(trace.LevelDebug, stream, ring)
	if multi.Ring() != ring {
		t.Fatal("Ring() did not find the ring sink")
	}
	trace.Point(multi, trace.ScopePass, "build", "")
	trace.Point(multi, trace.ScopeStep, "step", "")
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("stream got %d lines, want 1: %q", got, buf.String())
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Seq != 1 || snap[1].Seq != 2 {
		t.Errorf("ring snapshot = %+v", snap)
	}
	if err := multi.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestHeartbeat(t *testing.T) {
	if trace.StartHeartbeat(trace.Nop, time.Millisecond) != nil {
		t.Error("heartbeat on a disabled tracer")
	}
	ring := trace.NewRingTracer(16, trace.LevelPhase)
	hb := trace.StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()
	snap := ring.Snapshot()
	if len(snap) == 0 {
		t.Fatal("no heartbeat recorded")
	}
	if snap[0].Kind != trace.KindHeartbeat || snap[0].Detail != "#1" {
		t.Errorf("first event = %+v", snap[0])
	}
}
