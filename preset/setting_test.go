package preset

import (
	"math"
	"testing"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestEffectiveNoSweepsIsIdentity(t *testing.T) {
	s := Setting{Value: 0.371, Min: -1, Max: 1}

	positions := [][3]float32{
		{0, 0, 0.5},
		{-1, 1, 0},
		{0.33, -0.7, 1},
	}
	for _, pc := range positions {
		if got := s.Effective(pc[0], pc[1], pc[2]); got != s.Value {
			t.Errorf("no-sweep effective at (%v,%v,%v) = %v, want %v",
				pc[0], pc[1], pc[2], got, s.Value)
		}
	}
}

func TestEffectiveXSweepEndpoints(t *testing.T) {
	s := Setting{Value: 3, Min: 0, Max: 10, XSweep: SweepNormal}

	cases := []struct {
		x    float32
		want float32
	}{
		{-1, 0},
		{1, 10},
		{0, 5},
	}
	for _, c := range cases {
		if got := s.Effective(c.x, 0, 0); !almostEqual(got, c.want) {
			t.Errorf("normal x-sweep at x=%v: got %v, want %v", c.x, got, c.want)
		}
	}

	s.XSweep = SweepInverse
	inverse := []struct {
		x    float32
		want float32
	}{
		{-1, 10},
		{1, 0},
		{0, 5},
	}
	for _, c := range inverse {
		if got := s.Effective(c.x, 0, 0); !almostEqual(got, c.want) {
			t.Errorf("inverse x-sweep at x=%v: got %v, want %v", c.x, got, c.want)
		}
	}
}

func TestEffectiveMultiAxisAveraging(t *testing.T) {
	s := Setting{Value: 3, Min: 0, Max: 10, XSweep: SweepNormal, CohortSweep: SweepNormal}

	// x=1 contributes 10, cohort=0 contributes 0; result is the mean.
	if got := s.Effective(1, 0, 0); !almostEqual(got, 5) {
		t.Errorf("x+cohort sweep: got %v, want 5", got)
	}

	// All three axes active.
	s.YSweep = SweepNormal
	if got := s.Effective(1, -1, 0); !almostEqual(got, 10.0/3.0) {
		t.Errorf("three-axis sweep: got %v, want %v", got, 10.0/3.0)
	}
}

func TestEffectiveDegenerateRange(t *testing.T) {
	s := Setting{Value: 9, Min: 4, Max: 4, XSweep: SweepNormal}
	for _, x := range []float32{-1, 0, 1} {
		if got := s.Effective(x, 0, 0); !almostEqual(got, 4) {
			t.Errorf("degenerate range at x=%v: got %v, want 4", x, got)
		}
	}
}

func TestEffectiveInvertedRange(t *testing.T) {
	// min > max is legal; normal sweep runs from Min down to Max.
	s := Setting{Min: 10, Max: 0, XSweep: SweepNormal}
	if got := s.Effective(-1, 0, 0); !almostEqual(got, 10) {
		t.Errorf("inverted range at x=-1: got %v, want 10", got)
	}
	if got := s.Effective(1, 0, 0); !almostEqual(got, 0) {
		t.Errorf("inverted range at x=1: got %v, want 0", got)
	}
}

func TestSetSweepExclusivePerAxis(t *testing.T) {
	axis := Sweeps{}
	SetSweep(axis, AxialForce, SweepNormal)
	SetSweep(axis, Drag, SweepInverse)

	if len(axis) != 1 {
		t.Fatalf("expected exactly one active sweep per axis, got %d", len(axis))
	}
	q, mode, ok := ActiveSweep(axis)
	if !ok || q != Drag || mode != SweepInverse {
		t.Errorf("expected Drag inverse sweep, got %v %v ok=%v", q, mode, ok)
	}

	SetSweep(axis, Drag, SweepOff)
	if _, _, ok := ActiveSweep(axis); ok {
		t.Error("clearing the sweep should leave the axis empty")
	}
}

func TestPresetSettingGatedBySweepsEnabled(t *testing.T) {
	p := New()
	p.XSweeps[SensorGain] = SweepNormal

	if s := p.Setting(SensorGain); s.Swept() {
		t.Error("sweeps disabled: Setting should carry no sweep modes")
	}

	p.SweepsEnabled = true
	s := p.Setting(SensorGain)
	if s.XSweep != SweepNormal {
		t.Errorf("sweeps enabled: expected x sweep, got %v", s.XSweep)
	}
	if min, max := SensorGain.DefaultRange(); s.Min != float32(min) || s.Max != float32(max) {
		t.Errorf("expected default range (%v,%v), got (%v,%v)", min, max, s.Min, s.Max)
	}
}
