package multiload

import (
	"testing"

	"github.com/aphid91/Fluoddity-Core/preset"
)

func TestAddCapacity(t *testing.T) {
	r := NewRegistry()

	added := 0
	for i := 0; i < MaxConfigs+1; i++ {
		if r.Add(preset.New(), "p") {
			added++
		}
	}
	if added != MaxConfigs {
		t.Errorf("expected %d successful adds, got %d", MaxConfigs, added)
	}
	if r.Count() != MaxConfigs {
		t.Errorf("expected count %d, got %d", MaxConfigs, r.Count())
	}
}

func TestAddClampsSimultaneous(t *testing.T) {
	r := NewRegistry()
	r.SimultaneousConfigs = 5

	r.Add(preset.New(), "a")
	if r.SimultaneousConfigs != 1 {
		t.Errorf("expected simultaneous clamped to 1, got %v", r.SimultaneousConfigs)
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	r.Add(preset.New(), "a")
	r.Add(preset.New(), "b")
	r.Add(preset.New(), "c")
	r.SimultaneousConfigs = 3

	if r.Remove(5) {
		t.Error("out-of-range remove should fail")
	}
	if r.Remove(-1) {
		t.Error("negative-index remove should fail")
	}
	if r.Count() != 3 {
		t.Error("failed removes must not mutate")
	}

	if !r.Remove(1) {
		t.Fatal("remove at valid index should succeed")
	}
	if r.Count() != 2 || r.NameAt(1) != "c" {
		t.Errorf("expected [a c], got count=%d names=%q,%q", r.Count(), r.NameAt(0), r.NameAt(1))
	}
	if r.SimultaneousConfigs != 2 {
		t.Errorf("expected simultaneous re-clamped to 2, got %v", r.SimultaneousConfigs)
	}

	r.Remove(0)
	r.Remove(0)
	if r.SimultaneousConfigs != 1.0 {
		t.Errorf("empty registry should reset simultaneous to 1.0, got %v", r.SimultaneousConfigs)
	}
}

func TestAdvanceWraps(t *testing.T) {
	r := NewRegistry()
	r.ProgressionPace = 1.0
	r.CurrentProgress = 0.9995

	r.Advance()
	if r.CurrentProgress >= 1.0 || r.CurrentProgress < 0 {
		t.Errorf("progress should wrap into [0,1), got %v", r.CurrentProgress)
	}

	r.ProgressionPace = 0
	before := r.CurrentProgress
	r.Advance()
	if r.CurrentProgress != before {
		t.Error("zero pace should not advance")
	}
}

func TestAdvanceUsesProgressScale(t *testing.T) {
	r := NewRegistry()
	r.ProgressionPace = 1.0
	r.ProgressScale = 100
	r.Advance()
	if got := r.CurrentProgress; got != 0.01 {
		t.Errorf("progress after one tick at scale 100 = %v, want 0.01", got)
	}

	// An unset scale falls back to the default.
	r = &Registry{ProgressionPace: 1.0}
	r.Advance()
	if got := r.CurrentProgress; got != 1.0/DefaultProgressScale {
		t.Errorf("progress with zero scale = %v, want %v", got, 1.0/DefaultProgressScale)
	}
}

func TestDirtyTracking(t *testing.T) {
	r := NewRegistry()
	if r.Dirty() {
		t.Error("fresh registry should be clean")
	}

	r.Add(preset.New(), "a")
	if !r.Dirty() {
		t.Error("add should mark dirty")
	}
	r.ClearDirty()

	// Window movement alone must not re-dirty: uploads are gated on set
	// changes, not on progress.
	r.ProgressionPace = 1
	r.Advance()
	r.SetProgress(0.5)
	if r.Dirty() {
		t.Error("progress changes should not mark dirty")
	}

	r.Remove(0)
	if !r.Dirty() {
		t.Error("remove should mark dirty")
	}
	r.ClearDirty()
	r.Clear()
	if !r.Dirty() {
		t.Error("clear should mark dirty")
	}
}

func TestPackMirrorLayout(t *testing.T) {
	p := preset.New()
	p.Values[preset.AxialForce] = 0.5
	p.NumCohorts = 12
	p.SweepsEnabled = true
	p.XSweeps[preset.AxialForce] = preset.SweepNormal

	r := NewRegistry()
	r.Add(p, "a")
	r.Add(preset.New(), "b")

	data := r.PackMirror()
	if len(data) != 2*ConfigStride {
		t.Fatalf("expected %d bytes, got %d", 2*ConfigStride, len(data))
	}

	// First setting of config 0 is AXIAL_FORCE: value, min, max, x, y, cohort.
	if got := f32At(data, 0); got != 0.5 {
		t.Errorf("axial force value = %v, want 0.5", got)
	}
	if got := f32At(data, 4); got != -1 {
		t.Errorf("axial force min = %v, want -1", got)
	}
	if got := f32At(data, 8); got != 1 {
		t.Errorf("axial force max = %v, want 1", got)
	}
	if got := f32At(data, 12); got != 1 {
		t.Errorf("axial force x sweep = %v, want 1", got)
	}

	// Cohort count is the fifth int in the flag block.
	flagsOff := packedSettings * settingFloats * 4
	if got := i32At(data, flagsOff+16); got != 12 {
		t.Errorf("num cohorts = %d, want 12", got)
	}
}

func TestPackRulesLength(t *testing.T) {
	r := NewRegistry()
	r.Add(preset.New(), "a")
	r.Add(preset.New(), "b")
	r.Add(preset.New(), "c")

	if got := len(r.PackRules()); got != 3*RuleStride {
		t.Errorf("expected %d rule bytes, got %d", 3*RuleStride, got)
	}
}
