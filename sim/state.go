// Package sim drives the per-tick simulation pipeline over a gpu.Device:
// brush deposit, entity update, and trail blend in fixed order with
// barriers between, plus the host-side queries layered on the entity
// buffer (picking, effective-value readout, sweep reticle).
package sim

import (
	"github.com/aphid91/Fluoddity-Core/preset"
)

// ViewMode selects which texture the assembler consumes.
type ViewMode int

const (
	ViewCanvas ViewMode = iota
	ViewBrush
)

// State is the driver's desired state for one tick. The stepper treats it
// as immutable input; the driver owns it between ticks.
type State struct {
	Preset *preset.Preset

	View     ViewMode
	Paused   bool
	DrawSize float32 // entity footprint scale

	// Mouse drawing. Only honored when neither sweeps nor multi-load are
	// active; drawing and parameter sweeps are mutually exclusive.
	DrawMode  bool       // the tool toggle
	DrawHeld  bool       // button held this tick
	DrawPos   [2]float32 // world coords in [-1,1]
	DrawBrush float32    // stamp radius in world units
	DrawPower float32

	// Multi-load playback. Window state and entity assignment live on
	// the stepper's registry.
	MultiLoad bool
}

// NewState returns a state wrapping a fresh default preset.
func NewState() *State {
	return &State{
		Preset:    preset.New(),
		DrawSize:  1,
		DrawBrush: 0.05,
		DrawPower: 8,
	}
}

// SweepsActive reports whether any sweep axis is in force.
func (st *State) SweepsActive() bool {
	if !st.Preset.SweepsEnabled {
		return false
	}
	for _, axis := range []preset.Sweeps{st.Preset.XSweeps, st.Preset.YSweeps, st.Preset.CohortSweeps} {
		if _, _, ok := preset.ActiveSweep(axis); ok {
			return true
		}
	}
	return false
}

// DrawAllowed reports whether mouse drawing may stamp this tick.
func (st *State) DrawAllowed() bool {
	return st.DrawMode && st.DrawHeld && !st.SweepsActive() && !st.MultiLoad
}

// AdoptEffective writes a set of effective values back into the preset's
// sliders, the pick-to-sliders flow: the clicked entity's in-force values
// become the new slider values.
func (st *State) AdoptEffective(values map[preset.Param]float32) {
	for q, v := range values {
		st.Preset.Values[q] = float64(v)
	}
}
