package multiload

import (
	"math"

	"github.com/aphid91/Fluoddity-Core/preset"
)

// Neutral trail settings used when nothing is loaded.
const (
	defaultTrailPersistence = 0.938
	defaultTrailDiffusion   = 1.0
)

// windowEpsilon keeps the blend window from collapsing to zero width when
// SimultaneousConfigs is 0.
const windowEpsilon = 1e-3

// TrailBlend computes the window-weighted trail persistence and diffusion
// across the loaded presets. Pure query; no registry state changes.
//
// The N presets occupy unit intervals [i, i+1) on a ring of circumference
// N. The window is centered at CurrentProgress*N + halfWidth with
// halfWidth = SimultaneousConfigs/2 + ε, and each preset contributes in
// proportion to its circular overlap with the window.
func (r *Registry) TrailBlend() (persistence, diffusion float64) {
	n := len(r.slots)
	if n == 0 {
		return defaultTrailPersistence, defaultTrailDiffusion
	}

	halfWidth := r.SimultaneousConfigs/2 + windowEpsilon
	center := r.CurrentProgress*float64(n) + halfWidth

	var totalWeight, wPersistence, wDiffusion float64
	for i := 0; i < n; i++ {
		overlap := Overlap(center-halfWidth, center+halfWidth,
			float64(i), float64(i+1), float64(n))
		if overlap <= 0 {
			continue
		}
		p := r.slots[i].Preset
		wPersistence += overlap * p.Values[preset.TrailPersistence]
		wDiffusion += overlap * p.Values[preset.TrailDiffusion]
		totalWeight += overlap
	}

	if totalWeight > 0 {
		return wPersistence / totalWeight, wDiffusion / totalWeight
	}
	// Degenerate window; fall back to the first preset.
	p := r.slots[0].Preset
	return p.Values[preset.TrailPersistence], p.Values[preset.TrailDiffusion]
}

// Weights returns the normalized per-preset window weights, used by the
// run recorder and debug overlays. Returns nil when nothing is loaded.
func (r *Registry) Weights() []float64 {
	n := len(r.slots)
	if n == 0 {
		return nil
	}

	halfWidth := r.SimultaneousConfigs/2 + windowEpsilon
	center := r.CurrentProgress*float64(n) + halfWidth

	weights := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		weights[i] = Overlap(center-halfWidth, center+halfWidth,
			float64(i), float64(i+1), float64(n))
		total += weights[i]
	}
	if total > 0 {
		for i := range weights {
			weights[i] /= total
		}
	}
	return weights
}

// Overlap computes the length of intersection between a window
// [winStart, winEnd) and a preset's unit interval [cfgStart, cfgEnd) on a
// ring of circumference total. Window bounds may be negative or exceed
// total; they are normalized here and nowhere earlier, since premature
// clamping breaks the wraparound cases.
func Overlap(winStart, winEnd, cfgStart, cfgEnd, total float64) float64 {
	// A window at least one circumference wide covers every interval in
	// full; normalizing its endpoints would alias it to a sliver.
	if winEnd-winStart >= total {
		return cfgEnd - cfgStart
	}

	winStart = math.Mod(winStart, total)
	if winStart < 0 {
		winStart += total
	}
	winEnd = math.Mod(winEnd, total)
	if winEnd < 0 {
		winEnd += total
	}

	if winStart <= winEnd {
		// Window lies within one revolution.
		return overlapLinear(winStart, winEnd, cfgStart, cfgEnd)
	}

	// Window wraps past zero: split into [winStart, total) and [0, winEnd).
	return overlapLinear(winStart, total, cfgStart, cfgEnd) +
		overlapLinear(0, winEnd, cfgStart, cfgEnd)
}

func overlapLinear(aStart, aEnd, bStart, bEnd float64) float64 {
	start := math.Max(aStart, bStart)
	end := math.Min(aEnd, bEnd)
	if end > start {
		return end - start
	}
	return 0
}
