package preset

// SweepMode selects how a parameter varies along one axis.
// Zero means the slider value is used unchanged on that axis.
type SweepMode float32

const (
	SweepOff     SweepMode = 0
	SweepNormal  SweepMode = 1  // min at axis start, max at axis end
	SweepInverse SweepMode = -1 // max at axis start, min at axis end
)

// Setting is one tunable physics scalar together with its slider range and
// sweep directives. It is the unit uploaded per parameter to the entity and
// canvas programs, and the unit evaluated host-side when reading effective
// values back off a picked particle.
type Setting struct {
	Value       float32
	Min         float32
	Max         float32
	XSweep      SweepMode
	YSweep      SweepMode
	CohortSweep SweepMode
}

// Swept reports whether any sweep axis is active.
func (s Setting) Swept() bool {
	return s.XSweep != SweepOff || s.YSweep != SweepOff || s.CohortSweep != SweepOff
}

// Effective computes the parameter value in force at a world position and
// cohort. pos components are in [-1,1], cohort in [0,1].
//
// When several axes are active the result is the arithmetic mean of each
// axis's independently interpolated value. An inverse sweep swaps the
// interpolation endpoints. Min == Max is legal and yields Min.
//
// The GLSL calculate_setting in gpu/shaders.go must keep the exact
// operation order used here; the picker and the rendered field read the
// same formula. See TestSweepShaderParity.
func (s Setting) Effective(posX, posY, cohort float32) float32 {
	if !s.Swept() {
		return s.Value
	}

	// Map position from [-1,1] to [0,1]; cohort is already normalized.
	nx := (posX + 1) / 2
	ny := (posY + 1) / 2

	var sum float32
	var active int

	if s.XSweep != SweepOff {
		if s.XSweep > 0 {
			sum += s.Min + (s.Max-s.Min)*nx
		} else {
			sum += s.Max + (s.Min-s.Max)*nx
		}
		active++
	}
	if s.YSweep != SweepOff {
		if s.YSweep > 0 {
			sum += s.Min + (s.Max-s.Min)*ny
		} else {
			sum += s.Max + (s.Min-s.Max)*ny
		}
		active++
	}
	if s.CohortSweep != SweepOff {
		if s.CohortSweep > 0 {
			sum += s.Min + (s.Max-s.Min)*cohort
		} else {
			sum += s.Max + (s.Min-s.Max)*cohort
		}
		active++
	}

	return sum / float32(active)
}
