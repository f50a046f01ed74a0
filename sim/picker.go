package sim

import (
	"github.com/aphid91/Fluoddity-Core/gpu"
	"github.com/aphid91/Fluoddity-Core/preset"
)

// Pick is the result of a nearest-entity lookup.
type Pick struct {
	Index  int
	PosX   float32 // world coords in [-1,1]
	PosY   float32
	Cohort float32
}

// PickNearest finds the entity closest to a UV coordinate in [0,1]^2.
// It reads back the entire entity buffer, so it is interaction-gated:
// call it on click events, never per frame.
func (s *Stepper) PickNearest(u, v float32) (Pick, bool) {
	buf := s.dev.ReadEntities()
	n := len(buf) / gpu.EntityStride
	if n == 0 {
		return Pick{}, false
	}

	best := -1
	var bestD float32
	for i := 0; i < n; i++ {
		e := buf[i*gpu.EntityStride:]
		// Entity positions are world coords; compare in UV space.
		eu := (e[gpu.EntityPosX] + 1) / 2
		ev := (e[gpu.EntityPosY] + 1) / 2
		du := eu - u
		dv := ev - v
		d := du*du + dv*dv
		if best < 0 || d < bestD {
			best = i
			bestD = d
		}
	}

	e := buf[best*gpu.EntityStride:]
	return Pick{
		Index:  best,
		PosX:   e[gpu.EntityPosX],
		PosY:   e[gpu.EntityPosY],
		Cohort: e[gpu.EntityCohort],
	}, true
}

// SettingsAt returns the effective value of every swept parameter at a
// world position and cohort, the pick-to-sliders readout. Parameters with
// no active sweep are omitted: their slider already shows their value.
func (s *Stepper) SettingsAt(st *State, posX, posY, cohort float32) map[preset.Param]float32 {
	out := make(map[preset.Param]float32)
	for q := preset.Param(0); q < preset.NumParams; q++ {
		setting := st.Preset.Setting(q)
		if !setting.Swept() {
			continue
		}
		out[q] = setting.Effective(posX, posY, cohort)
	}
	return out
}
