package sim

import (
	"testing"

	"github.com/aphid91/Fluoddity-Core/preset"
)

func TestReticleInvertsSweep(t *testing.T) {
	p := preset.New()
	p.SweepsEnabled = true
	p.Ranges[preset.Drag] = preset.Range{CurMin: 0, CurMax: 10, DefMin: 0, DefMax: 10}
	preset.SetSweep(p.XSweeps, preset.Drag, preset.SweepNormal)

	tests := []struct {
		name  string
		value float64
		want  float32
	}{
		{"min pins to left edge", 0, -1},
		{"max pins to right edge", 10, 1},
		{"midpoint pins to center", 5, 0},
		{"out of range clamps", 20, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Values[preset.Drag] = tt.value
			x, _, ok := Reticle(p)
			if !ok {
				t.Fatal("reticle inactive with an x-sweep set")
			}
			if x != tt.want {
				t.Errorf("reticle x = %v, want %v", x, tt.want)
			}
		})
	}

	// The reticle must sit exactly where the swept field equals the
	// slider value: evaluating the sweep at the reticle recovers it.
	p.Values[preset.Drag] = 7.5
	x, _, _ := Reticle(p)
	s := p.Setting(preset.Drag)
	if got := s.Effective(x, 0, 0); got != 7.5 {
		t.Errorf("field at reticle = %v, want 7.5", got)
	}
}

func TestReticleInverseSweep(t *testing.T) {
	p := preset.New()
	p.SweepsEnabled = true
	p.Ranges[preset.Drag] = preset.Range{CurMin: 0, CurMax: 10, DefMin: 0, DefMax: 10}
	preset.SetSweep(p.YSweeps, preset.Drag, preset.SweepInverse)

	p.Values[preset.Drag] = 0
	_, y, ok := Reticle(p)
	if !ok {
		t.Fatal("reticle inactive with a y-sweep set")
	}
	if y != 1 {
		t.Errorf("inverse sweep: min value should sit at +1, got %v", y)
	}
}

func TestReticleDegenerateRange(t *testing.T) {
	p := preset.New()
	p.SweepsEnabled = true
	p.Ranges[preset.Drag] = preset.Range{CurMin: 3, CurMax: 3, DefMin: 0, DefMax: 10}
	preset.SetSweep(p.XSweeps, preset.Drag, preset.SweepNormal)

	x, _, ok := Reticle(p)
	if !ok {
		t.Fatal("reticle inactive")
	}
	if x != 0 {
		t.Errorf("degenerate range should pin to center, got %v", x)
	}
}

func TestReticleInactive(t *testing.T) {
	p := preset.New()
	if _, _, ok := Reticle(p); ok {
		t.Error("reticle active with sweeps disabled")
	}

	p.SweepsEnabled = true
	preset.SetSweep(p.CohortSweeps, preset.Drag, preset.SweepNormal)
	if _, _, ok := Reticle(p); ok {
		t.Error("reticle active with only a cohort sweep (no spatial axis)")
	}
}
