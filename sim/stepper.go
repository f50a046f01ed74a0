package sim

import (
	"fmt"

	"github.com/aphid91/Fluoddity-Core/config"
	"github.com/aphid91/Fluoddity-Core/gpu"
	"github.com/aphid91/Fluoddity-Core/multiload"
	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/rule"
	"github.com/aphid91/Fluoddity-Core/telemetry"
)

// Stepper owns the per-tick pipeline. The entity buffer and trail buffers
// belong to it exclusively; everything else reads them through its
// accessors.
type Stepper struct {
	dev  gpu.Device
	diag telemetry.Diag

	// Registry is the loaded multi-load ring. The stepper advances its
	// progress and mirrors it to the device when dirty.
	Registry *multiload.Registry

	activeRule rule.Rule

	tick        uint64
	worldSize   float64
	entityCount int
	canvasDim   int
}

// NewStepper wires a stepper over a device. Call Init before ticking.
func NewStepper(dev gpu.Device, diag telemetry.Diag) *Stepper {
	if diag == nil {
		diag = telemetry.Discard{}
	}
	return &Stepper{
		dev:      dev,
		diag:     diag,
		Registry: multiload.NewRegistry(),
	}
}

// Init allocates device storage for a world size.
func (s *Stepper) Init(worldSize float64) error {
	cfg := config.Cfg()
	s.worldSize = worldSize
	s.entityCount = cfg.EntityCountFor(worldSize)
	s.canvasDim = cfg.CanvasDimFor(worldSize)
	if err := s.dev.Init(s.entityCount, s.canvasDim); err != nil {
		return fmt.Errorf("device init: %w", err)
	}
	return nil
}

func (s *Stepper) Tick() uint64       { return s.tick }
func (s *Stepper) EntityCount() int   { return s.entityCount }
func (s *Stepper) CanvasDim() int     { return s.canvasDim }
func (s *Stepper) WorldSize() float64 { return s.worldSize }
func (s *Stepper) Device() gpu.Device { return s.dev }

// ActiveRule returns the rule currently uploaded to the device.
func (s *Stepper) ActiveRule() rule.Rule { return s.activeRule }

// ApplyRule uploads a rule and records it as active. The zero rule is
// legal: it means no directed behavior.
func (s *Stepper) ApplyRule(r rule.Rule) {
	s.activeRule = r
	s.dev.UploadRule(r.Flatten())
}

// Step runs one tick of the fixed pipeline. Each stage reads memory the
// previous stage wrote, so a barrier sits between every pair. A step with
// no compiled canvas or entity program is a no-op.
func (s *Stepper) Step(st *State) {
	if s.dev.Canvas() == nil || s.dev.Entity() == nil {
		s.diag.Warnf("tick skipped: no compiled program")
		return
	}

	s.uploadState(st)

	// Stage 1: deposit current positions, before this tick's movement.
	s.dev.DispatchBrush()
	s.dev.MemoryBarrier()

	// Stage 2: entity update against the previous tick's trail field.
	s.dev.DispatchEntities()
	s.dev.MemoryBarrier()

	// Stage 3: blend deposit into the trail and swap buffers.
	s.dev.DispatchCanvas()

	s.tick++

	if st.MultiLoad {
		s.Registry.Advance()
	}
}

// uploadState pushes the tick's desired state to the stage programs.
func (s *Stepper) uploadState(st *State) {
	p := st.Preset
	ent := s.dev.Entity()

	gpu.TrySet(ent, s.diag, "frame_count", int32(s.tick))
	gpu.TrySet(ent, s.diag, "entity_count", int32(s.entityCount))
	gpu.TrySet(ent, s.diag, "disable_symmetry", p.DisableSymmetry)
	gpu.TrySet(ent, s.diag, "orientation_mode", int32(p.Orientation))
	gpu.TrySet(ent, s.diag, "orientation_mix", float32(p.OrientationMix))
	gpu.TrySet(ent, s.diag, "boundary_mode", int32(p.Boundary))
	gpu.TrySet(ent, s.diag, "initial_mode", int32(p.Initial))
	gpu.TrySet(ent, s.diag, "num_cohorts", int32(p.NumCohorts))
	gpu.TrySet(ent, s.diag, "color_by_cohort", p.ColorByCohort)
	gpu.TrySet(ent, s.diag, "hue_sensitivity", float32(p.HueSensitivity))

	for _, q := range perEntityParams {
		uploadSetting(ent, s.diag, q.String()+"_SETTING", p.Setting(q))
	}

	gpu.TrySet(s.dev.Brush(), s.diag, "draw_size", st.DrawSize)

	canvas := s.dev.Canvas()
	multi := st.MultiLoad && s.Registry.Count() > 0
	if multi {
		s.uploadMultiLoad()
		// Trail parameters are blended host-side across the window; the
		// canvas pass gets plain scalars.
		persistence, diffusion := s.Registry.TrailBlend()
		uploadSetting(canvas, s.diag, "TRAIL_PERSISTENCE_SETTING", preset.Setting{Value: float32(persistence)})
		uploadSetting(canvas, s.diag, "TRAIL_DIFFUSION_SETTING", preset.Setting{Value: float32(diffusion)})
	} else {
		gpu.TrySet(ent, s.diag, "multiload_count", int32(0))
		uploadSetting(canvas, s.diag, "TRAIL_PERSISTENCE_SETTING", p.Setting(preset.TrailPersistence))
		uploadSetting(canvas, s.diag, "TRAIL_DIFFUSION_SETTING", p.Setting(preset.TrailDiffusion))
	}

	gpu.TrySet(canvas, s.diag, "draw_active", st.DrawAllowed())
	gpu.TrySet(canvas, s.diag, "draw_pos", st.DrawPos)
	gpu.TrySet(canvas, s.diag, "draw_size", st.DrawBrush)
	gpu.TrySet(canvas, s.diag, "draw_power", st.DrawPower)
}

func (s *Stepper) uploadMultiLoad() {
	if s.Registry.Dirty() {
		s.dev.UploadMirror(s.Registry.PackMirror(), s.Registry.PackRules())
		s.Registry.ClearDirty()
	}
	ent := s.dev.Entity()
	gpu.TrySet(ent, s.diag, "multiload_count", int32(s.Registry.Count()))
	// The window width stays a float: fractional widths must agree with
	// the trail blend window or edge configs render without entities.
	gpu.TrySet(ent, s.diag, "multiload_simultaneous", float32(s.Registry.SimultaneousConfigs))
	// Window start in preset-index units, matching the trail blend window.
	start := s.Registry.CurrentProgress * float64(s.Registry.Count())
	gpu.TrySet(ent, s.diag, "multiload_progress", float32(start))
	gpu.TrySet(ent, s.diag, "multiload_assign", int32(s.Registry.Assignment))
	gpu.TrySet(ent, s.diag, "multiload_per_initial", s.Registry.PerConfigInitial)
	gpu.TrySet(ent, s.diag, "multiload_per_cohorts", s.Registry.PerConfigCohorts)
	gpu.TrySet(ent, s.diag, "multiload_per_hazard", s.Registry.PerConfigHazardRate)
}

// perEntityParams are the parameters uploaded to the entity program; the
// two trail parameters go to the canvas program instead.
var perEntityParams = []preset.Param{
	preset.AxialForce,
	preset.LateralForce,
	preset.SensorGain,
	preset.MutationScale,
	preset.Drag,
	preset.StrafePower,
	preset.SensorAngle,
	preset.GlobalForceMult,
	preset.SensorDistance,
	preset.HazardRate,
}

// uploadSetting pushes one setting's members as dotted struct uniforms.
func uploadSetting(p gpu.Program, diag telemetry.Diag, base string, s preset.Setting) {
	gpu.TrySet(p, diag, base+".value", s.Value)
	gpu.TrySet(p, diag, base+".min_value", s.Min)
	gpu.TrySet(p, diag, base+".max_value", s.Max)
	gpu.TrySet(p, diag, base+".x_sweep", float32(s.XSweep))
	gpu.TrySet(p, diag, base+".y_sweep", float32(s.YSweep))
	gpu.TrySet(p, diag, base+".cohort_sweep", float32(s.CohortSweep))
}

// Reset clears both trail buffers and zeroes the tick counter without
// reallocating device memory.
func (s *Stepper) Reset() {
	s.dev.ClearTrails()
	s.tick = 0
}

// ResetEntities schedules a one-shot entity reseed on the next tick.
func (s *Stepper) ResetEntities() {
	gpu.TrySet(s.dev.Entity(), s.diag, "reset_entities", true)
}

// Resize reallocates for a new world size, keeping spatial density
// approximately constant, then re-applies the active rule and resets.
func (s *Stepper) Resize(worldSize float64) error {
	cfg := config.Cfg()
	s.worldSize = worldSize
	s.entityCount = cfg.EntityCountFor(worldSize)
	s.canvasDim = cfg.CanvasDimFor(worldSize)
	if err := s.dev.Resize(s.entityCount, s.canvasDim); err != nil {
		return fmt.Errorf("device resize: %w", err)
	}
	s.dev.UploadRule(s.activeRule.Flatten())
	s.Reset()
	return nil
}

// Reload asks the device to recompile its programs. On failure the device
// keeps each stage's last working program; the simulation continues in
// its last-good state.
func (s *Stepper) Reload() {
	if err := s.dev.Reload(); err != nil {
		s.diag.Warnf("shader reload failed: %v", err)
	}
}
