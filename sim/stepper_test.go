package sim

import (
	"os"
	"testing"

	"github.com/aphid91/Fluoddity-Core/config"
	"github.com/aphid91/Fluoddity-Core/gpu"
	"github.com/aphid91/Fluoddity-Core/multiload"
	"github.com/aphid91/Fluoddity-Core/preset"
)

func TestMain(m *testing.M) {
	config.MustInit("")
	os.Exit(m.Run())
}

// recordProgram captures uniform sets for assertions.
type recordProgram struct {
	name string
	vals map[string]any
}

func newRecordProgram(name string) *recordProgram {
	return &recordProgram{name: name, vals: make(map[string]any)}
}

func (p *recordProgram) Name() string           { return p.name }
func (p *recordProgram) HasUniform(string) bool { return true }
func (p *recordProgram) Set(n string, v any) bool {
	p.vals[n] = v
	return true
}

// recordDevice logs dispatch/barrier ordering and mirror uploads.
type recordDevice struct {
	calls         []string
	mirrorUploads int
	entities      []float32

	entity   *recordProgram
	brush    *recordProgram
	canvas   *recordProgram
	assembly *recordProgram
	noCanvas bool
}

func newRecordDevice() *recordDevice {
	return &recordDevice{
		entity:   newRecordProgram("entity"),
		brush:    newRecordProgram("brush"),
		canvas:   newRecordProgram("canvas"),
		assembly: newRecordProgram("assembly"),
	}
}

func (d *recordDevice) Init(int, int) error   { return nil }
func (d *recordDevice) Resize(int, int) error { d.calls = append(d.calls, "resize"); return nil }
func (d *recordDevice) Close()                {}
func (d *recordDevice) Entity() gpu.Program   { return d.entity }
func (d *recordDevice) Brush() gpu.Program    { return d.brush }
func (d *recordDevice) Assembly() gpu.Program { return d.assembly }
func (d *recordDevice) Canvas() gpu.Program {
	if d.noCanvas {
		return nil
	}
	return d.canvas
}
func (d *recordDevice) Reload() error                  { return nil }
func (d *recordDevice) MemoryBarrier()                 { d.calls = append(d.calls, "barrier") }
func (d *recordDevice) DispatchBrush()                 { d.calls = append(d.calls, "brush") }
func (d *recordDevice) DispatchEntities()              { d.calls = append(d.calls, "entities") }
func (d *recordDevice) DispatchCanvas()                { d.calls = append(d.calls, "canvas") }
func (d *recordDevice) EnsureAccum(int, int, int) bool { return false }
func (d *recordDevice) DispatchAssembly()              {}
func (d *recordDevice) AccumFrame() gpu.Frame          { return nil }
func (d *recordDevice) UploadRule([]float32)           {}
func (d *recordDevice) UploadMirror([]byte, []byte)    { d.mirrorUploads++ }
func (d *recordDevice) ReadEntities() []float32        { return d.entities }
func (d *recordDevice) ClearTrails()                   { d.calls = append(d.calls, "clear") }

func TestStepStageOrder(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()

	s.Step(st)

	want := []string{"brush", "barrier", "entities", "barrier", "canvas"}
	if len(dev.calls) != len(want) {
		t.Fatalf("stage calls = %v, want %v", dev.calls, want)
	}
	for i := range want {
		if dev.calls[i] != want[i] {
			t.Fatalf("stage %d = %q, want %q (full order %v)", i, dev.calls[i], want[i], dev.calls)
		}
	}
	if s.Tick() != 1 {
		t.Errorf("tick = %d after one step, want 1", s.Tick())
	}
}

func TestStepNoopWithoutProgram(t *testing.T) {
	dev := newRecordDevice()
	dev.noCanvas = true
	s := NewStepper(dev, nil)

	s.Step(NewState())

	if len(dev.calls) != 0 {
		t.Errorf("step without a compiled canvas program dispatched %v", dev.calls)
	}
	if s.Tick() != 0 {
		t.Errorf("no-op step advanced tick to %d", s.Tick())
	}
}

func TestMirrorUploadGatedOnDirty(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()
	st.MultiLoad = true

	s.Registry.Add(preset.New(), "a")
	s.Registry.Add(preset.New(), "b")

	s.Step(st)
	if dev.mirrorUploads != 1 {
		t.Fatalf("first step uploaded mirror %d times, want 1", dev.mirrorUploads)
	}

	// Progress advances every tick but must not trigger re-upload.
	s.Step(st)
	s.Step(st)
	if dev.mirrorUploads != 1 {
		t.Errorf("clean registry re-uploaded mirror (%d uploads)", dev.mirrorUploads)
	}

	s.Registry.Add(preset.New(), "c")
	s.Step(st)
	if dev.mirrorUploads != 2 {
		t.Errorf("edit did not trigger re-upload (%d uploads)", dev.mirrorUploads)
	}
}

func TestMultiLoadWindowStaysFractional(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()
	st.MultiLoad = true

	for i := 0; i < 5; i++ {
		s.Registry.Add(preset.New(), "p")
	}
	s.Registry.SimultaneousConfigs = 2.5

	s.Step(st)

	// A truncated width would shrink the entity selection window below
	// the trail blend window and starve its edge configs of entities.
	got, ok := dev.entity.vals["multiload_simultaneous"].(float32)
	if !ok {
		t.Fatalf("multiload_simultaneous uploaded as %T, want float32",
			dev.entity.vals["multiload_simultaneous"])
	}
	if got != 2.5 {
		t.Errorf("multiload_simultaneous = %v, want 2.5", got)
	}
}

func TestMultiLoadOverrideFlagsUploaded(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()
	st.MultiLoad = true
	s.Registry.Add(preset.New(), "a")

	s.Step(st)
	for _, name := range []string{
		"multiload_per_initial", "multiload_per_cohorts", "multiload_per_hazard",
	} {
		if on, _ := dev.entity.vals[name].(bool); on {
			t.Errorf("%s defaults on; shared values must win", name)
		}
	}

	s.Registry.Assignment = multiload.AssignRandom
	s.Registry.PerConfigHazardRate = true
	s.Step(st)
	if on, _ := dev.entity.vals["multiload_per_hazard"].(bool); !on {
		t.Error("per-config hazard flag not uploaded")
	}
	if mode, _ := dev.entity.vals["multiload_assign"].(int32); mode != int32(multiload.AssignRandom) {
		t.Errorf("multiload_assign = %v, want %v", mode, int32(multiload.AssignRandom))
	}
}

func TestTrailUniformsSingleMode(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()
	st.Preset.Values[preset.TrailPersistence] = 0.9

	s.Step(st)

	got, ok := dev.canvas.vals["TRAIL_PERSISTENCE_SETTING.value"].(float32)
	if !ok || got != 0.9 {
		t.Errorf("canvas persistence uniform = %v, want 0.9", dev.canvas.vals["TRAIL_PERSISTENCE_SETTING.value"])
	}
}

func TestDrawModeGatedBySweeps(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()
	st.DrawMode = true
	st.DrawHeld = true

	s.Step(st)
	if active, _ := dev.canvas.vals["draw_active"].(bool); !active {
		t.Error("draw mode inactive with no sweeps and no multi-load")
	}

	st.Preset.SweepsEnabled = true
	preset.SetSweep(st.Preset.XSweeps, preset.AxialForce, preset.SweepNormal)
	s.Step(st)
	if active, _ := dev.canvas.vals["draw_active"].(bool); active {
		t.Error("draw mode active while sweeps are active")
	}

	st.Preset.SweepsEnabled = false
	st.MultiLoad = true
	s.Registry.Add(preset.New(), "a")
	s.Step(st)
	if active, _ := dev.canvas.vals["draw_active"].(bool); active {
		t.Error("draw mode active while multi-load is active")
	}
}

func TestResizeDensityMath(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	cfg := config.Cfg()

	if err := s.Resize(4.0); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if want := cfg.World.BaseEntityCount * 4; s.EntityCount() != want {
		t.Errorf("entity count at size 4 = %d, want %d", s.EntityCount(), want)
	}
	if want := cfg.World.BaseCanvasDim * 2; s.CanvasDim() != want {
		t.Errorf("canvas dim at size 4 = %d, want %d (sqrt scaling)", s.CanvasDim(), want)
	}
	if s.Tick() != 0 {
		t.Errorf("resize did not reset tick (= %d)", s.Tick())
	}
}

func TestPickNearest(t *testing.T) {
	dev := newRecordDevice()
	dev.entities = make([]float32, 3*gpu.EntityStride)
	// World positions: (-1,-1) -> uv (0,0); (0,0) -> (0.5,0.5); (1,1) -> (1,1).
	dev.entities[0*gpu.EntityStride+gpu.EntityPosX] = -1
	dev.entities[0*gpu.EntityStride+gpu.EntityPosY] = -1
	dev.entities[2*gpu.EntityStride+gpu.EntityPosX] = 1
	dev.entities[2*gpu.EntityStride+gpu.EntityPosY] = 1
	dev.entities[1*gpu.EntityStride+gpu.EntityCohort] = 0.75

	s := NewStepper(dev, nil)
	p, ok := s.PickNearest(0.55, 0.45)
	if !ok {
		t.Fatal("pick found nothing")
	}
	if p.Index != 1 {
		t.Errorf("picked entity %d, want 1", p.Index)
	}
	if p.Cohort != 0.75 {
		t.Errorf("picked cohort = %v, want 0.75", p.Cohort)
	}
	if p.PosX != 0 || p.PosY != 0 {
		t.Errorf("picked pos = (%v,%v), want (0,0)", p.PosX, p.PosY)
	}
}

func TestPickNearestEmptyBuffer(t *testing.T) {
	s := NewStepper(newRecordDevice(), nil)
	if _, ok := s.PickNearest(0.5, 0.5); ok {
		t.Error("pick on an empty buffer reported success")
	}
}

func TestSettingsAtReturnsOnlySwept(t *testing.T) {
	dev := newRecordDevice()
	s := NewStepper(dev, nil)
	st := NewState()
	st.Preset.SweepsEnabled = true
	preset.SetSweep(st.Preset.XSweeps, preset.Drag, preset.SweepNormal)

	vals := s.SettingsAt(st, 1, 0, 0)
	if len(vals) != 1 {
		t.Fatalf("got %d swept values, want 1: %v", len(vals), vals)
	}
	min, max := st.Preset.RangeFor(preset.Drag)
	if got, want := vals[preset.Drag], float32(max); got != want {
		t.Errorf("drag at x=1 = %v, want max %v (range [%v,%v])", got, want, min, max)
	}
}

func TestAdoptEffective(t *testing.T) {
	st := NewState()
	st.AdoptEffective(map[preset.Param]float32{preset.Drag: 0.25})
	if st.Preset.Values[preset.Drag] != 0.25 {
		t.Errorf("adopted drag = %v, want 0.25", st.Preset.Values[preset.Drag])
	}
}
