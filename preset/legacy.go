package preset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/aphid91/Fluoddity-Core/rule"
)

// Legacy binary layout (versions 1-6), little-endian, fixed offsets with a
// version-dependent trailer:
//
//	[0:40)    10 physics floats (no trail diffusion)
//	[40:360)  80 rule floats
//	[360:362) v2+: disable_symmetry, absolute_orientation bools
//	[362:374) v3+: boundary, initial, num_cohorts int32s
//	[374:378) v4+: rule_seed float
//	[378:...) v5/v6: appearance block, sweeps_enabled, three sweep records
//
// Fields past the end of a short payload keep their defaults; nothing here
// is an error except a truncated mandatory header.

type legacyReader struct {
	data []byte
	off  int
}

func (r *legacyReader) remaining() int { return len(r.data) - r.off }

func (r *legacyReader) f32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *legacyReader) i32() int32 {
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *legacyReader) bool8() bool {
	v := r.data[r.off] != 0
	r.off++
	return v
}

// legacySweep is one serialized sweep record: parameter name, direction,
// and the slider range in effect when it was saved.
type legacySweep struct {
	param Param
	mode  SweepMode
}

func (r *legacyReader) sweep() (legacySweep, bool) {
	if r.remaining() < 1 {
		return legacySweep{}, false
	}
	nameLen := int(r.data[r.off])
	r.off++
	if nameLen == 0 {
		return legacySweep{}, false
	}
	if r.remaining() < nameLen+12 {
		return legacySweep{}, false
	}
	name := string(r.data[r.off : r.off+nameLen])
	r.off += nameLen
	direction := r.f32()
	r.f32() // stored cur_min, superseded by defaults on load
	r.f32() // stored cur_max
	q, ok := ParamByName(name)
	if !ok {
		return legacySweep{}, false
	}
	return legacySweep{param: q, mode: SweepMode(direction)}, true
}

// decodeLegacy converts a decompressed legacy payload to a Preset.
func decodeLegacy(data []byte, version int) (*Preset, error) {
	if len(data) < 360 {
		return nil, fmt.Errorf("decoding legacy preset v%d: payload too short (%d bytes)", version, len(data))
	}

	p := New()
	r := &legacyReader{data: data}

	legacyOrder := []Param{
		AxialForce, LateralForce, SensorGain, MutationScale, Drag,
		StrafePower, SensorAngle, GlobalForceMult, SensorDistance,
		TrailPersistence,
	}
	for _, q := range legacyOrder {
		p.Values[q] = float64(r.f32())
	}
	// Legacy had no trail diffusion parameter; New() already set 1.0.

	flat := make([]float32, rule.Floats)
	for i := range flat {
		flat[i] = r.f32()
	}
	p.Rule = rule.FromFlat(flat)

	if len(data) >= 362 {
		p.DisableSymmetry = r.bool8()
		if r.bool8() {
			p.Orientation = OrientationYAxis
		}
	}
	if len(data) >= 374 {
		p.Boundary = BoundaryMode(r.i32())
		p.Initial = InitialMode(r.i32())
		p.NumCohorts = int(r.i32())
	}
	if len(data) >= 378 {
		p.RuleSeed = float64(r.f32())
	}

	switch {
	case version >= 6 && len(data) >= 405:
		r.f32() // reserved
		p.InkWeight = float64(r.f32())
		p.HueSensitivity = float64(r.f32())
		p.ColorByCohort = r.bool8()
		p.Watercolor = r.bool8()
		p.EmbossIntensity = float64(r.f32())
		p.EmbossSmoothness = float64(r.f32())
		p.Emboss = EmbossMode(r.i32())
		p.SweepsEnabled = r.bool8()
		readLegacySweeps(r, p)
	case len(data) >= 401:
		r.f32() // reserved
		p.InkWeight = float64(r.f32())
		p.HueSensitivity = float64(r.f32())
		p.ColorByCohort = r.bool8()
		p.Watercolor = r.bool8()
		p.EmbossIntensity = float64(r.f32())
		p.EmbossSmoothness = float64(r.f32())
		p.SweepsEnabled = r.bool8()
		readLegacySweeps(r, p)
	}

	return p, nil
}

func readLegacySweeps(r *legacyReader, p *Preset) {
	if s, ok := r.sweep(); ok {
		p.XSweeps[s.param] = s.mode
	}
	if s, ok := r.sweep(); ok {
		p.YSweeps[s.param] = s.mode
	}
	if s, ok := r.sweep(); ok {
		p.CohortSweeps[s.param] = s.mode
	}
}
