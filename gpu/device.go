// Package gpu abstracts the compute/render device behind the simulation.
// Two implementations exist: Compute, a pure-Go reference device used by
// tests and headless runs, and Raylib, which runs the trail and assembly
// passes as fragment shaders over render textures.
package gpu

import (
	"github.com/aphid91/Fluoddity-Core/telemetry"
)

// Entity buffer layout: 12 floats per entity.
// pos(2) vel(2) size(1) cohort(1) pad(2) color(4); cohort is normalized [0,1].
const (
	EntityStride = 12

	EntityPosX   = 0
	EntityPosY   = 1
	EntityVelX   = 2
	EntityVelY   = 3
	EntitySize   = 4
	EntityCohort = 5
	EntityColorR = 8
)

// Program is one compiled pipeline stage. Uniforms are set by name; a
// compiled program may have dropped unused uniforms, so callers probe
// with HasUniform (or use TrySet) before setting.
type Program interface {
	// Name identifies the stage for diagnostics.
	Name() string
	// HasUniform reports whether the compiled program exposes the uniform.
	HasUniform(name string) bool
	// Set assigns a uniform value. Accepted types: bool, int32, float32,
	// [2]float32, []float32. Returns false when the uniform is absent.
	Set(name string, value any) bool
}

// TrySet sets a uniform if the program exposes it, reporting a dropped
// set through the diagnostics sink. This is how every optional uniform is
// assigned: optimizing compilers strip unused uniforms and that must not
// be an error.
func TrySet(p Program, diag telemetry.Diag, name string, value any) {
	if p == nil {
		return
	}
	if !p.Set(name, value) {
		diag.Warnf("uniform %s not found in program %s", name, p.Name())
	}
}

// Frame is an assembled output frame reference. The sink that consumes it
// is responsible for any pixel readback.
type Frame interface {
	Bounds() (w, h int)
}

// Device owns the entity buffer, the trail double-buffer, the brush
// scratch buffer, and the compiled stage programs. All dispatches execute
// in call order; MemoryBarrier forces writes from prior dispatches to be
// visible to subsequent ones. Omitting a barrier between dependent stages
// is a correctness bug, not a performance choice.
type Device interface {
	// Init allocates entity and trail storage and compiles all programs.
	Init(entityCount, canvasDim int) error
	// Resize reallocates storage for new dimensions and recompiles
	// programs whose source depends on them.
	Resize(entityCount, canvasDim int) error
	Close()

	// Stage programs. A program is nil until its first successful
	// compile; dispatching a nil program is a no-op.
	Entity() Program
	Brush() Program
	Canvas() Program
	Assembly() Program

	// Reload attempts to recompile every program. A stage whose compile
	// fails keeps its previous working program.
	Reload() error

	MemoryBarrier()

	// DispatchBrush clears the brush buffer and additively deposits every
	// entity's footprint at its current position.
	DispatchBrush()
	// DispatchEntities advances every entity one tick.
	DispatchEntities()
	// DispatchCanvas blends the brush deposit into the persistent trail
	// field (persistence decay + diffusion), writing the back buffer from
	// the front buffer, then swaps them.
	DispatchCanvas()

	// EnsureAccum (re)creates the accumulation buffer for the given
	// output size and sample count. Reports whether it was recreated,
	// which discards any in-flight accumulation.
	EnsureAccum(w, h, samples int) bool
	// DispatchAssembly accumulates the current view into the accumulation
	// buffer; on the final sample it applies stylization and gamma over
	// the accumulated result.
	DispatchAssembly()
	// AccumFrame returns the accumulation buffer as a frame reference.
	AccumFrame() Frame

	// UploadRule replaces the active rule coefficients (flat, 80 floats).
	UploadRule(flat []float32)
	// UploadMirror replaces the packed multi-load config and rule
	// mirrors. Callers gate this on the registry dirty flag.
	UploadMirror(configs, rules []byte)

	// ReadEntities blocks until prior writes complete and returns the
	// full entity buffer (EntityStride floats per entity). Interaction-
	// gated only; this is the one genuinely blocking host-side call.
	ReadEntities() []float32

	// ClearTrails zeroes both trail buffers and the brush buffer without
	// reallocating.
	ClearTrails()
}
