package preset

import (
	"github.com/aphid91/Fluoddity-Core/rule"
)

// BoundaryMode selects what happens to an entity at the world edge.
type BoundaryMode int

const (
	BoundaryBounce BoundaryMode = iota // reflect the velocity component at the edge
	BoundaryReset                      // respawn at the initial-condition distribution
	BoundaryWrap                       // alias position modulo world extent
)

// InitialMode selects the entity respawn/seed distribution.
type InitialMode int

const (
	InitialGrid InitialMode = iota
	InitialRandom
	InitialRing
)

// OrientationMode selects the absolute-orientation reference frame.
type OrientationMode int

const (
	OrientationOff OrientationMode = iota
	OrientationYAxis
	OrientationRadial
)

// EmbossMode selects which texture the emboss stylization samples.
type EmbossMode int

const (
	EmbossOff EmbossMode = iota
	EmbossCanvas
	EmbossBrush
)

// Cohort count bounds.
const (
	MinCohorts = 1
	MaxCohorts = 144
)

// DefaultRuleSeed is the fixed seed used when none is stored, chosen for
// reproducibility of old presets.
const DefaultRuleSeed = 0.42

// Range holds a slider range customization:
// current min/max plus the defaults to restore to.
type Range struct {
	CurMin, CurMax float64
	DefMin, DefMax float64
}

// Sweeps maps each parameter to its sweep mode along one axis.
type Sweeps map[Param]SweepMode

// Preset is a complete physics configuration: everything needed to
// reproduce a simulation's behavior. Constructed from live state on save
// and fully replacing live state on apply.
type Preset struct {
	// Slider values for the 12 physics parameters, indexed by Param.
	Values [NumParams]float64

	// Slider range customizations, keyed by parameter.
	Ranges map[Param]Range

	// Sweep directives per axis. Only consulted when SweepsEnabled.
	XSweeps       Sweeps
	YSweeps       Sweeps
	CohortSweeps  Sweeps
	SweepsEnabled bool

	// Simulation settings.
	DisableSymmetry bool
	Orientation     OrientationMode
	OrientationMix  float64
	Boundary        BoundaryMode
	Initial         InitialMode
	NumCohorts      int
	RuleSeed        float64

	// Appearance settings.
	InkWeight        float64
	HueSensitivity   float64
	ColorByCohort    bool
	Watercolor       bool
	Emboss           EmbossMode
	EmbossIntensity  float64
	EmbossSmoothness float64

	Rule rule.Rule
}

// New returns a preset with the reference default values.
func New() *Preset {
	p := &Preset{
		Ranges:       defaultRanges(),
		XSweeps:      Sweeps{},
		YSweeps:      Sweeps{},
		CohortSweeps: Sweeps{},

		OrientationMix:   1.0,
		NumCohorts:       64,
		RuleSeed:         DefaultRuleSeed,
		InkWeight:        1.0,
		HueSensitivity:   0.5,
		ColorByCohort:    true,
		EmbossIntensity:  0.5,
		EmbossSmoothness: 0.1,
	}
	p.Values = [NumParams]float64{
		AxialForce:       0.371,
		LateralForce:     -0.707,
		SensorGain:       0.116,
		MutationScale:    0.0,
		Drag:             0.504,
		StrafePower:      0.224,
		SensorAngle:      0.45,
		GlobalForceMult:  1.0,
		SensorDistance:   1.0,
		TrailPersistence: 0.938,
		TrailDiffusion:   1.0,
		HazardRate:       0.0,
	}
	return p
}

func defaultRanges() map[Param]Range {
	m := make(map[Param]Range, NumParams)
	for q := Param(0); q < NumParams; q++ {
		min, max := q.DefaultRange()
		m[q] = Range{CurMin: min, CurMax: max, DefMin: min, DefMax: max}
	}
	return m
}

// RangeFor returns the current slider range for a parameter, falling back
// to the built-in defaults when no customization is stored.
func (p *Preset) RangeFor(q Param) (min, max float64) {
	if r, ok := p.Ranges[q]; ok {
		return r.CurMin, r.CurMax
	}
	return q.DefaultRange()
}

// Setting assembles the uploadable Setting for a parameter: slider value,
// current range, and sweep modes (zeroed when sweeps are disabled).
func (p *Preset) Setting(q Param) Setting {
	min, max := p.RangeFor(q)
	s := Setting{
		Value: float32(p.Values[q]),
		Min:   float32(min),
		Max:   float32(max),
	}
	if p.SweepsEnabled {
		s.XSweep = p.XSweeps[q]
		s.YSweep = p.YSweeps[q]
		s.CohortSweep = p.CohortSweeps[q]
	}
	return s
}

// SetSweep sets the sweep mode for a parameter on one axis map, clearing
// the axis for every other parameter: only one parameter may sweep a given
// axis at a time.
func SetSweep(axis Sweeps, q Param, mode SweepMode) {
	for k := range axis {
		delete(axis, k)
	}
	if mode != SweepOff {
		axis[q] = mode
	}
}

// ActiveSweep returns the parameter sweeping an axis, if any.
func ActiveSweep(axis Sweeps) (Param, SweepMode, bool) {
	for q, m := range axis {
		if m != SweepOff {
			return q, m, true
		}
	}
	return 0, SweepOff, false
}

// Clone returns a deep copy, used to cache immutable snapshots for preview
// and multi-load.
func (p *Preset) Clone() *Preset {
	c := *p
	c.Ranges = make(map[Param]Range, len(p.Ranges))
	for k, v := range p.Ranges {
		c.Ranges[k] = v
	}
	c.XSweeps = cloneSweeps(p.XSweeps)
	c.YSweeps = cloneSweeps(p.YSweeps)
	c.CohortSweeps = cloneSweeps(p.CohortSweeps)
	return &c
}

func cloneSweeps(s Sweeps) Sweeps {
	c := make(Sweeps, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}
