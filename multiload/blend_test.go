package multiload

import (
	"math"
	"testing"

	"github.com/aphid91/Fluoddity-Core/preset"
)

func presetWithTrail(persistence, diffusion float64) *preset.Preset {
	p := preset.New()
	p.Values[preset.TrailPersistence] = persistence
	p.Values[preset.TrailDiffusion] = diffusion
	return p
}

func loaded(trails ...[2]float64) *Registry {
	r := NewRegistry()
	for _, t := range trails {
		r.Add(presetWithTrail(t[0], t[1]), "p")
	}
	return r
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestOverlapNoWrap(t *testing.T) {
	// Window [0.5, 1.5) over configs [0,1) and [1,2) of a 4-ring.
	if got := Overlap(0.5, 1.5, 0, 1, 4); !closeTo(got, 0.5) {
		t.Errorf("config 0 overlap = %v, want 0.5", got)
	}
	if got := Overlap(0.5, 1.5, 1, 2, 4); !closeTo(got, 0.5) {
		t.Errorf("config 1 overlap = %v, want 0.5", got)
	}
	if got := Overlap(0.5, 1.5, 2, 3, 4); got != 0 {
		t.Errorf("config 2 overlap = %v, want 0", got)
	}
}

func TestOverlapWraparound(t *testing.T) {
	// Window [-0.5, 0.5) on a 4-ring straddles index 0: config 3 gets the
	// tail segment [3.5, 4), config 0 the head segment [0, 0.5).
	if got := Overlap(-0.5, 0.5, 3, 4, 4); !closeTo(got, 0.5) {
		t.Errorf("config 3 overlap = %v, want 0.5", got)
	}
	if got := Overlap(-0.5, 0.5, 0, 1, 4); !closeTo(got, 0.5) {
		t.Errorf("config 0 overlap = %v, want 0.5", got)
	}
	sum := Overlap(-0.5, 0.5, 3, 4, 4) + Overlap(-0.5, 0.5, 0, 1, 4)
	if !closeTo(sum, 1.0) {
		t.Errorf("wrapped window total = %v, want 1.0", sum)
	}
}

func TestOverlapConservationFullWindow(t *testing.T) {
	// A window covering the whole ring overlaps every config fully.
	const n = 5
	for _, progress := range []float64{0, 0.3, 0.99} {
		half := float64(n)/2 + windowEpsilon
		center := progress*n + half
		var sum float64
		for i := 0; i < n; i++ {
			sum += Overlap(center-half, center+half, float64(i), float64(i+1), n)
		}
		if !closeTo(sum, n) {
			t.Errorf("progress %v: overlap sum = %v, want %v", progress, sum, float64(n))
		}
	}
}

func TestTrailBlendFullWindowIsMean(t *testing.T) {
	r := loaded([2]float64{0.2, 0.1}, [2]float64{0.4, 0.3}, [2]float64{0.9, 0.8})
	r.SimultaneousConfigs = 3 // window >= full ring

	p, d := r.TrailBlend()
	if !closeTo(p, 0.5) {
		t.Errorf("persistence = %v, want mean 0.5", p)
	}
	if !closeTo(d, 0.4) {
		t.Errorf("diffusion = %v, want mean 0.4", d)
	}
}

func TestTrailBlendNarrowWindowPicksOne(t *testing.T) {
	r := loaded([2]float64{0.1, 0.1}, [2]float64{0.9, 0.9})
	r.SimultaneousConfigs = 0 // epsilon-wide window
	r.CurrentProgress = 0.25  // center inside config 0

	p, _ := r.TrailBlend()
	if !closeTo(p, 0.1) {
		t.Errorf("narrow window should read config 0, got %v", p)
	}

	r.CurrentProgress = 0.75 // center inside config 1
	p, _ = r.TrailBlend()
	if !closeTo(p, 0.9) {
		t.Errorf("narrow window should read config 1, got %v", p)
	}
}

func TestTrailBlendEmptyRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	p, d := r.TrailBlend()
	if p != defaultTrailPersistence || d != defaultTrailDiffusion {
		t.Errorf("empty registry blend = (%v, %v), want defaults", p, d)
	}
}

func TestWeightsNormalized(t *testing.T) {
	r := loaded([2]float64{0.1, 0.1}, [2]float64{0.5, 0.5}, [2]float64{0.9, 0.9})
	r.SimultaneousConfigs = 2

	w := r.Weights()
	if len(w) != 3 {
		t.Fatalf("expected 3 weights, got %d", len(w))
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	if !closeTo(sum, 1.0) {
		t.Errorf("weights sum = %v, want 1.0", sum)
	}
}
