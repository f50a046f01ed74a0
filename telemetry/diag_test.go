package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestSink(limit int) (*Sink, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewSink(logger, limit), &buf
}

func TestSinkRateLimitsByIdentity(t *testing.T) {
	s, buf := newTestSink(3)

	for i := 0; i < 10; i++ {
		s.Warnf("uniform %s not found in program", "COHORTS")
	}

	got := strings.Count(buf.String(), "uniform COHORTS not found")
	if got != 3 {
		t.Errorf("expected 3 emissions, got %d", got)
	}
	if !strings.Contains(buf.String(), "suppressing further occurrences") {
		t.Error("expected a suppression notice")
	}
}

func TestSinkDistinctKeysIndependent(t *testing.T) {
	s, buf := newTestSink(2)

	s.Warnf("first problem")
	s.Warnf("first problem")
	s.Warnf("first problem")
	s.Warnf("second problem")

	out := buf.String()
	if strings.Count(out, "first problem") != 2 {
		t.Errorf("first key should be limited to 2: %s", out)
	}
	if strings.Count(out, "second problem") != 1 {
		t.Errorf("second key should still emit: %s", out)
	}
}

func TestSinkResetClearsCounters(t *testing.T) {
	s, buf := newTestSink(1)

	s.Warnf("recompile failed")
	s.Warnf("recompile failed")
	s.Reset()
	s.Warnf("recompile failed")

	if got := strings.Count(buf.String(), "recompile failed"); got != 2 {
		t.Errorf("expected 2 emissions after reset, got %d", got)
	}
}

func TestSinkUnlimitedWhenDisabled(t *testing.T) {
	s, buf := newTestSink(0)
	for i := 0; i < 20; i++ {
		s.Infof("spam")
	}
	if got := strings.Count(buf.String(), "spam"); got != 20 {
		t.Errorf("limit 0 should pass everything, got %d", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	if err := r.Record(TickRecord{Tick: 1}); err != nil {
		t.Errorf("nil recorder record: %v", err)
	}
	if err := r.Flush(); err != nil {
		t.Errorf("nil recorder flush: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("nil recorder close: %v", err)
	}
}
