package observ_test

import (
	"errors"
	"strings"
	"testing"

	"coflow/internal/observ"
)

func TestTimerReport(t *testing.T) {
	timer := observ.NewTimer()
	if err := timer.Measure("build", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := timer.Measure("optimize", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Measure must return fn's error, got %v", err)
	}

	rep := timer.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(rep.Phases))
	}
	if rep.Phases[0].Name != "build" || rep.Phases[1].Note != "error" {
		t.Errorf("unexpected phases: %+v", rep.Phases)
	}
	if !strings.Contains(timer.Summary(), "total") {
		t.Errorf("summary lacks total:\n%s", timer.Summary())
	}
}

func TestNilTimer(t *testing.T) {
	var timer *observ.Timer
	idx := timer.Begin("x")
	timer.End(idx, "")
	if rep := timer.Report(); len(rep.Phases) != 0 {
		t.Errorf("nil timer must report nothing")
	}
}
