// Package render assembles output frames: N raw simulation frames
// accumulate into one corrected, stylized frame.
package render

import (
	"github.com/aphid91/Fluoddity-Core/gpu"
	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/telemetry"
)

// Style is the per-frame correction applied once, over the accumulated
// result. Gamma and watercolor are non-linear, so they never run
// per-sample.
type Style struct {
	Brightness       float32
	Gamma            float32
	InkWeight        float32
	Watercolor       bool
	Emboss           preset.EmbossMode
	EmbossIntensity  float32
	EmbossSmoothness float32
	ViewBrush        bool // assemble the brush texture instead of the canvas
}

// Assembler owns the accumulation buffer. It cycles Empty ->
// Accumulating(k of N) -> Ready; Ready is transient, the next call starts
// a fresh cycle.
type Assembler struct {
	dev  gpu.Device
	diag telemetry.Diag

	w, h    int
	samples int
	index   int
}

// NewAssembler returns an assembler with a 1-sample (passthrough)
// configuration until Configure is called.
func NewAssembler(dev gpu.Device, diag telemetry.Diag) *Assembler {
	if diag == nil {
		diag = telemetry.Discard{}
	}
	return &Assembler{dev: dev, diag: diag, samples: 1}
}

// Configure sets the output dimensions and the samples-per-frame count.
// Changing either discards any in-flight accumulation; that is accepted
// behavior, not an error.
func (a *Assembler) Configure(w, h, samples int) {
	if samples < 1 {
		samples = 1
	}
	a.w, a.h, a.samples = w, h, samples
}

// Samples returns the configured accumulation depth.
func (a *Assembler) Samples() int { return a.samples }

// Pending returns how many samples the current cycle has absorbed.
func (a *Assembler) Pending() int { return a.index }

// Assemble accumulates the device's current view. It returns the finished
// frame only on the cycle's final sample; every other call returns
// (nil, false). Correction (brightness, optional watercolor, gamma) is
// applied exactly once, over the accumulated buffer.
func (a *Assembler) Assemble(style Style) (gpu.Frame, bool) {
	prg := a.dev.Assembly()
	if prg == nil {
		return nil, false
	}

	if a.dev.EnsureAccum(a.w, a.h, a.samples) {
		// Recreated: whatever was in flight is gone.
		a.index = 0
	}

	gpu.TrySet(prg, a.diag, "samples", int32(a.samples))
	gpu.TrySet(prg, a.diag, "brightness", style.Brightness)
	gpu.TrySet(prg, a.diag, "gamma", style.Gamma)
	gpu.TrySet(prg, a.diag, "ink_weight", style.InkWeight)
	gpu.TrySet(prg, a.diag, "watercolor", style.Watercolor)
	gpu.TrySet(prg, a.diag, "emboss_mode", int32(style.Emboss))
	gpu.TrySet(prg, a.diag, "emboss_intensity", style.EmbossIntensity)
	gpu.TrySet(prg, a.diag, "emboss_smoothness", style.EmbossSmoothness)
	view := int32(0)
	if style.ViewBrush {
		view = 1
	}
	gpu.TrySet(prg, a.diag, "view_mode", view)

	a.dev.DispatchAssembly()

	a.index++
	if a.index < a.samples {
		return nil, false
	}
	a.index = 0
	return a.dev.AccumFrame(), true
}
