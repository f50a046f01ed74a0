package sim

import (
	"github.com/aphid91/Fluoddity-Core/preset"
)

// Reticle inverts the sweep interpolation: it finds the world position
// where each axis's swept value equals the parameter's slider value, so
// the on-screen marker sits where the field matches the sliders. An axis
// with no active sweep pins to the world center.
func Reticle(p *preset.Preset) (x, y float32, ok bool) {
	if !p.SweepsEnabled {
		return 0, 0, false
	}
	xq, xm, xActive := preset.ActiveSweep(p.XSweeps)
	yq, ym, yActive := preset.ActiveSweep(p.YSweeps)
	if !xActive && !yActive {
		return 0, 0, false
	}
	if xActive {
		x = invertSweep(p, xq, xm)
	}
	if yActive {
		y = invertSweep(p, yq, ym)
	}
	return x, y, true
}

// invertSweep solves value = min + (max-min)*n for n, maps n from [0,1]
// back to world [-1,1], and clamps. A degenerate range pins to center:
// every position yields the same value, so the center is as correct as
// any.
func invertSweep(p *preset.Preset, q preset.Param, mode preset.SweepMode) float32 {
	min, max := p.RangeFor(q)
	value := p.Values[q]

	var n float64
	if max == min {
		n = 0.5
	} else if mode > 0 {
		n = (value - min) / (max - min)
	} else {
		n = (value - max) / (min - max)
	}

	w := n*2 - 1
	if w < -1 {
		w = -1
	} else if w > 1 {
		w = 1
	}
	return float32(w)
}
