package multiload

import (
	"encoding/binary"
	"math"

	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/rule"
)

// Packed per-config layout, mirroring the GPU-side MultiLoadConfig block:
// 10 settings of 6 floats each, 6 int32 flags, 3 trailing floats.
// Trail persistence/diffusion are absent: those two are blended host-side.
const (
	settingFloats   = 6
	packedSettings  = 10
	packedFlagInts  = 6
	packedTailFloat = 3
	ConfigStride    = packedSettings*settingFloats*4 + packedFlagInts*4 + packedTailFloat*4
	RuleStride      = rule.Floats * 4
)

// packedParams lists the per-entity parameters carried in the mirror, in
// buffer order.
var packedParams = [packedSettings]preset.Param{
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

// PackMirror serializes every loaded preset into the GPU mirror layout.
// The caller gates this on Dirty(); the result is ConfigStride bytes per
// loaded preset.
func (r *Registry) PackMirror() []byte {
	out := make([]byte, 0, len(r.slots)*ConfigStride)
	for _, slot := range r.slots {
		out = appendConfig(out, slot.Preset)
	}
	return out
}

// PackRules serializes every loaded preset's rule, RuleStride bytes each.
func (r *Registry) PackRules() []byte {
	out := make([]byte, 0, len(r.slots)*RuleStride)
	for _, slot := range r.slots {
		for _, v := range slot.Preset.Rule.Flatten() {
			out = appendF32(out, v)
		}
	}
	return out
}

func appendConfig(out []byte, p *preset.Preset) []byte {
	for _, q := range packedParams {
		s := packedSetting(p, q)
		out = appendF32(out, s.Value)
		out = appendF32(out, s.Min)
		out = appendF32(out, s.Max)
		out = appendF32(out, float32(s.XSweep))
		out = appendF32(out, float32(s.YSweep))
		out = appendF32(out, float32(s.CohortSweep))
	}

	out = appendI32(out, boolInt(p.DisableSymmetry))
	out = appendI32(out, int32(p.Orientation))
	out = appendI32(out, int32(p.Boundary))
	out = appendI32(out, int32(p.Initial))
	out = appendI32(out, int32(p.NumCohorts))
	out = appendI32(out, boolInt(p.ColorByCohort))

	out = appendF32(out, float32(p.HueSensitivity))
	out = appendF32(out, float32(p.OrientationMix))
	out = appendF32(out, float32(p.RuleSeed))
	return out
}

// packedSetting builds the mirror Setting for one parameter. Spatial
// sweeps are honored only when the preset has sweeps enabled; cohort
// sweeps always apply, matching the entity program's blend path.
func packedSetting(p *preset.Preset, q preset.Param) preset.Setting {
	min, max := p.RangeFor(q)
	s := preset.Setting{
		Value:       float32(p.Values[q]),
		Min:         float32(min),
		Max:         float32(max),
		CohortSweep: p.CohortSweeps[q],
	}
	if p.SweepsEnabled {
		s.XSweep = p.XSweeps[q]
		s.YSweep = p.YSweeps[q]
	}
	return s
}

func appendF32(out []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
}

func appendI32(out []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(out, uint32(v))
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
