package gpu

import (
	"testing"

	"github.com/aphid91/Fluoddity-Core/multiload"
	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/rule"
)

// applyPreset uploads a preset's settings and flags to the entity program
// the same way the stepper does.
func applyPreset(t *testing.T, d *Compute, p *preset.Preset) {
	t.Helper()
	for i, q := range []preset.Param{
		preset.AxialForce, preset.LateralForce, preset.SensorGain,
		preset.MutationScale, preset.Drag, preset.StrafePower,
		preset.SensorAngle, preset.GlobalForceMult, preset.SensorDistance,
		preset.HazardRate,
	} {
		s := p.Setting(q)
		base := kernelSettingNames[i]
		d.entity.Set(base+".value", s.Value)
		d.entity.Set(base+".min_value", s.Min)
		d.entity.Set(base+".max_value", s.Max)
		d.entity.Set(base+".x_sweep", float32(s.XSweep))
		d.entity.Set(base+".y_sweep", float32(s.YSweep))
		d.entity.Set(base+".cohort_sweep", float32(s.CohortSweep))
	}
	d.entity.Set("boundary_mode", int32(p.Boundary))
	d.entity.Set("initial_mode", int32(p.Initial))
	d.entity.Set("num_cohorts", int32(p.NumCohorts))
	d.entity.Set("color_by_cohort", p.ColorByCohort)
	d.entity.Set("hue_sensitivity", float32(p.HueSensitivity))
	d.entity.Set("orientation_mode", int32(p.Orientation))
	d.entity.Set("orientation_mix", float32(p.OrientationMix))
	d.entity.Set("disable_symmetry", p.DisableSymmetry)
	d.UploadRule(p.Rule.Flatten())
}

func newTestDevice(t *testing.T, entities, dim int) *Compute {
	t.Helper()
	d := NewCompute(nil)
	if err := d.Init(entities, dim); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d
}

func TestCanvasSwapPreservesTrail(t *testing.T) {
	d := newTestDevice(t, 0, 8)
	d.canvas.Set("TRAIL_PERSISTENCE_SETTING.value", float32(1))
	d.canvas.Set("TRAIL_DIFFUSION_SETTING.value", float32(0))

	d.front.texel(3, 3)[3] = 0.5

	prev := d.front
	d.DispatchCanvas()
	if d.front == prev {
		t.Fatal("canvas dispatch did not swap buffers")
	}
	if got := d.front.texel(3, 3)[3]; got != 0.5 {
		t.Errorf("trail value after full-persistence blend = %v, want 0.5", got)
	}

	// The buffer written this tick is read next tick: a second dispatch
	// must still see the value.
	d.DispatchCanvas()
	if got := d.front.texel(3, 3)[3]; got != 0.5 {
		t.Errorf("trail value after second blend = %v, want 0.5", got)
	}
}

func TestCanvasPersistenceDecay(t *testing.T) {
	d := newTestDevice(t, 0, 8)
	d.canvas.Set("TRAIL_PERSISTENCE_SETTING.value", float32(0.5))
	d.canvas.Set("TRAIL_DIFFUSION_SETTING.value", float32(0))

	d.front.texel(4, 4)[3] = 1.0
	d.DispatchCanvas()
	if got := d.front.texel(4, 4)[3]; got != 0.5 {
		t.Errorf("decayed trail = %v, want 0.5", got)
	}
}

func TestBrushDepositAdditive(t *testing.T) {
	d := newTestDevice(t, 2, 16)
	for i := 0; i < 2; i++ {
		e := d.entityAt(i)
		e[EntityPosX], e[EntityPosY] = 0, 0
		e[EntitySize] = 1
		e[EntityColorR] = 1
	}
	d.brushPrg.Set("draw_size", float32(1))

	d.DispatchBrush()
	two := d.brush.texel(7, 7)[3] + d.brush.texel(8, 8)[3]

	// Same spot, one entity: deposit must halve.
	d.entities = d.entities[:EntityStride]
	d.entityCount = 1
	d.DispatchBrush()
	one := d.brush.texel(7, 7)[3] + d.brush.texel(8, 8)[3]

	if two <= one {
		t.Errorf("two entities deposited %v, one deposited %v; deposits must add", two, one)
	}
}

func TestEntityStepDeterministic(t *testing.T) {
	run := func() []float32 {
		d := newTestDevice(t, 16, 16)
		applyPreset(t, d, preset.New())
		d.front.texel(8, 8)[3] = 1 // something to sense
		for tick := int32(0); tick < 5; tick++ {
			d.entity.Set("frame_count", tick)
			d.DispatchEntities()
		}
		return d.ReadEntities()
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("entity buffer diverged at float %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHazardRespawnsEverything(t *testing.T) {
	d := newTestDevice(t, 8, 8)
	p := preset.New()
	p.Values[preset.HazardRate] = 1.0
	p.Ranges[preset.HazardRate] = preset.Range{CurMin: 0, CurMax: 1, DefMin: 0, DefMax: 1}
	p.Initial = preset.InitialRandom
	applyPreset(t, d, p)

	for i := 0; i < 8; i++ {
		e := d.entityAt(i)
		e[EntityVelX], e[EntityVelY] = 9, 9
	}
	d.entity.Set("frame_count", int32(7))
	d.DispatchEntities()

	for i := 0; i < 8; i++ {
		e := d.entityAt(i)
		if e[EntityVelX] != 0 || e[EntityVelY] != 0 {
			t.Errorf("entity %d not respawned: vel=(%v,%v)", i, e[EntityVelX], e[EntityVelY])
		}
		if e[EntityPosX] < -1 || e[EntityPosX] > 1 || e[EntityPosY] < -1 || e[EntityPosY] > 1 {
			t.Errorf("entity %d respawned out of bounds: (%v,%v)", i, e[EntityPosX], e[EntityPosY])
		}
	}
}

func TestResetEntitiesIsOneShot(t *testing.T) {
	d := newTestDevice(t, 4, 8)
	applyPreset(t, d, preset.New())

	e := d.entityAt(0)
	e[EntityPosX], e[EntityPosY] = 0.123, 0.456

	d.entity.Set("reset_entities", true)
	d.DispatchEntities()
	seeded := d.entityAt(0)
	if seeded[EntityPosX] == 0.123 && seeded[EntityPosY] == 0.456 {
		t.Error("reset did not reposition entity")
	}

	// Flag must clear itself; the next dispatch steps normally.
	if d.entity.getB("reset_entities") {
		t.Error("reset_entities flag still set after dispatch")
	}
}

func TestSelectConfigFullWindowReachesAll(t *testing.T) {
	const count = 4
	seen := make(map[int]bool)
	for i := 0; i < 64; i++ {
		u := (float32(i) + 0.5) / 64
		seen[selectConfig(u, count, count, 0.5)] = true
	}
	for i := 0; i < count; i++ {
		if !seen[i] {
			t.Errorf("config %d unreachable with a full-ring window", i)
		}
	}
}

func TestSelectConfigNarrowWindow(t *testing.T) {
	// With one simultaneous config starting at index 2, draws away from
	// the epsilon-padded end land on config 2.
	for _, u := range []float32{0.1, 0.25, 0.5, 0.9} {
		if got := selectConfig(u, 8, 1, 2.0); got != 2 {
			t.Errorf("selectConfig(u=%v) = %d, want 2", u, got)
		}
	}
}

func TestSelectConfigFractionalWindowMatchesBlend(t *testing.T) {
	r := multiload.NewRegistry()
	for i := 0; i < 5; i++ {
		r.Add(preset.New(), "p")
	}
	r.SimultaneousConfigs = 2.5
	r.CurrentProgress = 0

	weights := r.Weights()
	reachable := make(map[int]bool)
	for i := 0; i < 512; i++ {
		u := (float32(i) + 0.5) / 512
		reachable[selectConfig(u, 5, 2.5, 0)] = true
	}

	// Every config the trail blend weights must also receive entities,
	// and configs outside the window must receive none.
	for i, w := range weights {
		if (w > 1e-6) != reachable[i] {
			t.Errorf("config %d: blend weight %v but entity-reachable %v",
				i, w, reachable[i])
		}
	}
}

func TestMultiLoadSharedValuesGateOverrides(t *testing.T) {
	loaded := preset.New()
	loaded.Values[preset.HazardRate] = 1.0
	loaded.Ranges[preset.HazardRate] = preset.Range{CurMin: 0, CurMax: 1, DefMin: 0, DefMax: 1}

	r := multiload.NewRegistry()
	r.Add(loaded, "hazardous")

	setup := func(t *testing.T) *Compute {
		d := newTestDevice(t, 4, 8)
		applyPreset(t, d, preset.New()) // shared hazard stays zero
		d.UploadMirror(r.PackMirror(), r.PackRules())
		d.entity.Set("multiload_count", int32(1))
		d.entity.Set("multiload_simultaneous", float32(1))
		d.entity.Set("frame_count", int32(3))
		for i := 0; i < 4; i++ {
			e := d.entityAt(i)
			e[EntityVelX] = 9
		}
		return d
	}

	d := setup(t)
	d.DispatchEntities()
	for i := 0; i < 4; i++ {
		if d.entityAt(i)[EntityVelX] == 0 {
			t.Fatalf("entity %d respawned though the shared hazard is zero", i)
		}
	}

	d = setup(t)
	d.entity.Set("multiload_per_hazard", true)
	d.DispatchEntities()
	for i := 0; i < 4; i++ {
		if d.entityAt(i)[EntityVelX] != 0 {
			t.Errorf("entity %d kept velocity though the loaded config's hazard is 1", i)
		}
	}
}

func TestMirrorRoundTrip(t *testing.T) {
	if ConfigByteStride != multiload.ConfigStride {
		t.Fatalf("ConfigByteStride = %d, registry packs %d", ConfigByteStride, multiload.ConfigStride)
	}

	p := preset.New()
	p.Values[preset.AxialForce] = 0.25
	p.SweepsEnabled = true
	preset.SetSweep(p.XSweeps, preset.Drag, preset.SweepNormal)
	p.Rule = rule.Generate(0.42)
	p.DisableSymmetry = true
	p.NumCohorts = 12

	r := multiload.NewRegistry()
	r.Add(p, "a")

	d := newTestDevice(t, 0, 4)
	d.UploadMirror(r.PackMirror(), r.PackRules())

	if len(d.mirror) != 1 {
		t.Fatalf("decoded %d configs, want 1", len(d.mirror))
	}
	cfg := d.mirror[0]
	if got := cfg.settings[kAxial].Value; got != 0.25 {
		t.Errorf("axial value = %v, want 0.25", got)
	}
	if cfg.settings[kDrag].XSweep != preset.SweepNormal {
		t.Errorf("drag x-sweep not preserved")
	}
	if !cfg.disableSymmetry {
		t.Error("disable_symmetry flag lost")
	}
	if cfg.numCohorts != 12 {
		t.Errorf("numCohorts = %d, want 12", cfg.numCohorts)
	}
	if d.mirrorRules[0].IsZero() {
		t.Error("rule mirror decoded as zero")
	}
}

func TestEnsureAccumRecreate(t *testing.T) {
	d := newTestDevice(t, 0, 4)
	if !d.EnsureAccum(32, 32, 4) {
		t.Error("first EnsureAccum must allocate")
	}
	if d.EnsureAccum(32, 32, 4) {
		t.Error("unchanged EnsureAccum must not recreate")
	}
	d.DispatchAssembly()
	if d.accumCount != 1 {
		t.Fatalf("accumCount = %d, want 1", d.accumCount)
	}
	if !d.EnsureAccum(32, 32, 8) {
		t.Error("sample-count change must recreate")
	}
	if d.accumCount != 0 {
		t.Error("recreate must discard in-flight accumulation")
	}
}

func TestAssemblyResolvesAfterConfiguredSamples(t *testing.T) {
	d := newTestDevice(t, 0, 4)
	d.front.texel(0, 0)[0] = 0.8
	d.assembly.Set("brightness", float32(1))
	d.assembly.Set("gamma", float32(1))
	d.EnsureAccum(4, 4, 3)

	for i := 0; i < 2; i++ {
		d.DispatchAssembly()
		if d.accumCount != i+1 {
			t.Fatalf("after %d samples accumCount = %d", i+1, d.accumCount)
		}
	}
	d.DispatchAssembly()
	if d.accumCount != 0 {
		t.Errorf("resolve must reset the sample counter, got %d", d.accumCount)
	}

	f := d.AccumFrame().(cpuFrame)
	if got := f.Pixels()[0]; got < 0.79 || got > 0.81 {
		t.Errorf("resolved pixel = %v, want ~0.8 (average of 3 equal samples)", got)
	}
}
