// Package multiload manages an ordered set of loaded presets arranged on a
// virtual ring, blends their continuous parameters through a sliding
// circular window, and maintains the packed GPU mirror of their settings.
package multiload

import (
	"github.com/aphid91/Fluoddity-Core/preset"
)

// MaxConfigs bounds the number of simultaneously loaded presets; the GPU
// mirror buffer is sized for exactly this many.
const MaxConfigs = 64

// DefaultProgressScale is the tick count for one full ring traversal at
// pace 1.0 when the registry is not configured otherwise.
const DefaultProgressScale = 1000.0

// AssignmentMode selects how entities are distributed across loaded presets.
type AssignmentMode int

const (
	AssignByCohort AssignmentMode = iota
	AssignRandom
)

// Slot is one loaded preset with its display name.
type Slot struct {
	Preset *preset.Preset
	Name   string
}

// Registry is the ordered list of loaded presets plus blend-window state.
type Registry struct {
	slots []Slot

	// SimultaneousConfigs is the window width in preset-index units,
	// clamped to [0, len(slots)].
	SimultaneousConfigs float64
	// ProgressionPace advances CurrentProgress each tick; pace 1.0
	// completes the ring in ProgressScale ticks.
	ProgressionPace float64
	// ProgressScale is the tick count for a full traversal at pace 1.0.
	ProgressScale float64
	// CurrentProgress is the window position around the ring, in [0,1).
	CurrentProgress float64

	// Assignment selects how entities map onto the window, and the
	// per-config flags let each loaded preset keep its own initial
	// conditions, cohort count, or hazard rate instead of the shared
	// values.
	Assignment          AssignmentMode
	PerConfigInitial    bool
	PerConfigCohorts    bool
	PerConfigHazardRate bool

	// dirty marks the GPU mirror stale; set on any change to the slot set.
	dirty bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{SimultaneousConfigs: 1.0, ProgressScale: DefaultProgressScale}
}

// Add appends a preset. Returns false without mutating when the registry
// is full.
func (r *Registry) Add(p *preset.Preset, name string) bool {
	if len(r.slots) >= MaxConfigs {
		return false
	}
	r.slots = append(r.slots, Slot{Preset: p.Clone(), Name: name})
	if r.SimultaneousConfigs > float64(len(r.slots)) {
		r.SimultaneousConfigs = float64(len(r.slots))
	}
	r.dirty = true
	return true
}

// Remove deletes the preset at index. Returns false on an out-of-range
// index with no mutation.
func (r *Registry) Remove(index int) bool {
	if index < 0 || index >= len(r.slots) {
		return false
	}
	r.slots = append(r.slots[:index], r.slots[index+1:]...)
	if len(r.slots) > 0 {
		if r.SimultaneousConfigs > float64(len(r.slots)) {
			r.SimultaneousConfigs = float64(len(r.slots))
		}
	} else {
		r.SimultaneousConfigs = 1.0
	}
	r.dirty = true
	return true
}

// Clear removes every loaded preset and resets window state.
func (r *Registry) Clear() {
	r.slots = nil
	r.SimultaneousConfigs = 1.0
	r.CurrentProgress = 0.0
	r.dirty = true
}

// Count returns the number of loaded presets.
func (r *Registry) Count() int { return len(r.slots) }

// Active reports whether multi-load mode is in effect.
func (r *Registry) Active() bool { return len(r.slots) >= 1 }

// At returns the preset at index, or nil when out of range.
func (r *Registry) At(index int) *preset.Preset {
	if index < 0 || index >= len(r.slots) {
		return nil
	}
	return r.slots[index].Preset
}

// NameAt returns the display name at index, or "" when out of range.
func (r *Registry) NameAt(index int) string {
	if index < 0 || index >= len(r.slots) {
		return ""
	}
	return r.slots[index].Name
}

// Advance moves the window by one tick's worth of progression. The
// per-tick advance is always well under 1.0, so a single subtraction
// suffices for the wrap.
func (r *Registry) Advance() {
	if r.ProgressionPace <= 0 {
		return
	}
	scale := r.ProgressScale
	if scale <= 0 {
		scale = DefaultProgressScale
	}
	r.CurrentProgress += r.ProgressionPace / scale
	if r.CurrentProgress >= 1.0 {
		r.CurrentProgress -= 1.0
	}
}

// SetProgress positions the window directly (UI slider).
func (r *Registry) SetProgress(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	r.CurrentProgress = v
}

// Dirty reports whether the GPU mirror needs re-packing.
func (r *Registry) Dirty() bool { return r.dirty }

// MarkDirty forces a mirror re-pack, used when a loaded preset is edited
// in place.
func (r *Registry) MarkDirty() { r.dirty = true }

// ClearDirty is called after the mirror upload completes.
func (r *Registry) ClearDirty() { r.dirty = false }
