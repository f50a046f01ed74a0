// Package preset defines the physics parameter model: individual tunable
// settings with spatial/cohort sweeps, the full preset aggregate, its
// serialized forms, and the preset library store.
package preset

// Param identifies one of the tunable physics parameters.
type Param int

const (
	AxialForce Param = iota
	LateralForce
	SensorGain
	MutationScale
	Drag
	StrafePower
	SensorAngle
	GlobalForceMult
	SensorDistance
	TrailPersistence
	TrailDiffusion
	HazardRate

	NumParams
)

// paramInfo holds the canonical name, UI label and default slider range
// for one parameter.
type paramInfo struct {
	name     string
	label    string
	min, max float64
}

var params = [NumParams]paramInfo{
	AxialForce:       {"AXIAL_FORCE", "Axial Force", -1.0, 1.0},
	LateralForce:     {"LATERAL_FORCE", "Lateral Force", -1.0, 1.0},
	SensorGain:       {"SENSOR_GAIN", "Sensor Gain", 0.0, 5.0},
	MutationScale:    {"MUTATION_SCALE", "Mutation Scale", -0.5, 0.5},
	Drag:             {"DRAG", "Drag", -1.0, 1.0},
	StrafePower:      {"STRAFE_POWER", "Strafe Power", 0.0, 0.5},
	SensorAngle:      {"SENSOR_ANGLE", "Sensor Angle", -1.0, 1.0},
	GlobalForceMult:  {"GLOBAL_FORCE_MULT", "Global Force Mult", 0.0, 2.0},
	SensorDistance:   {"SENSOR_DISTANCE", "Sensor Distance", 0.0, 4.0},
	TrailPersistence: {"TRAIL_PERSISTENCE", "Trail Persistence", 0.0, 1.0},
	TrailDiffusion:   {"TRAIL_DIFFUSION", "Trail Diffusion", 0.0, 1.0},
	HazardRate:       {"HAZARD_RATE", "Hazard Rate", 0.0, 0.05},
}

// String returns the canonical parameter name (e.g. "AXIAL_FORCE").
func (p Param) String() string { return params[p].name }

// Label returns the human-readable slider label (e.g. "Axial Force").
func (p Param) Label() string { return params[p].label }

// DefaultRange returns the default slider range for the parameter.
func (p Param) DefaultRange() (min, max float64) {
	return params[p].min, params[p].max
}

// ParamByName returns the parameter with the given canonical name.
func ParamByName(name string) (Param, bool) {
	for p := Param(0); p < NumParams; p++ {
		if params[p].name == name {
			return p, true
		}
	}
	return 0, false
}

// AllParams returns every parameter in canonical order.
func AllParams() []Param {
	out := make([]Param, NumParams)
	for p := Param(0); p < NumParams; p++ {
		out[p] = p
	}
	return out
}
