package gpu

import (
	"math"
	"runtime"
	"sync"

	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/rule"
)

// Kernel tuning constants. These are the fixed scales the shaders bake in;
// everything user-tunable goes through Settings instead.
const (
	timeStep       = 1.0 / 60.0
	sensorBaseDist = 0.05 // world units per unit of SENSOR_DISTANCE
	turnRate       = 4.0  // radians/sec per unit of lateral steer
	thrustScale    = 0.6  // world units/sec^2 per unit of axial force
	dragScale      = 4.0  // fraction of velocity shed per sec per unit of drag
	depositBase    = 0.15 // brush alpha deposited per entity per tick
	entityBaseSize = 1.5  // footprint radius in texels per unit of size

	// Half-width padding of the multi-load selection window. Must match
	// the window used by multiload.TrailBlend so the trail parameters and
	// the per-entity parameters agree on which configs are live.
	windowEpsilon = 1e-3
)

// Indices into kernelConfig.settings, in mirror buffer order.
const (
	kAxial = iota
	kLateral
	kGain
	kMutation
	kDrag
	kStrafe
	kSensorAngle
	kGlobalMult
	kSensorDist
	kHazard
	kernelSettingCount
)

// kernelConfig is one fully-resolved physics configuration as the entity
// stage sees it: the ten per-entity settings plus the discrete flags and
// the rule. In single mode it is built from program uniforms; in
// multi-load mode one is decoded per mirror slot.
type kernelConfig struct {
	settings [kernelSettingCount]preset.Setting

	disableSymmetry bool
	orientation     preset.OrientationMode
	orientationMix  float32
	boundary        preset.BoundaryMode
	initial         preset.InitialMode
	numCohorts      int32
	colorByCohort   bool
	hueSensitivity  float32

	rule rule.Rule
}

// forEachEntity runs fn for every entity index, fanned across worker
// goroutines in workgroup-aligned chunks. Entity records are disjoint
// slices and the trail is read-only during the entity stage, so the only
// synchronization is the final join. workgroup <= 0 runs serially.
func forEachEntity(count, workgroup int, fn func(i int)) {
	if workgroup <= 0 || count <= workgroup {
		for i := 0; i < count; i++ {
			fn(i)
		}
		return
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (count + workers - 1) / workers
	chunk = (chunk + workgroup - 1) / workgroup * workgroup

	var wg sync.WaitGroup
	for start := 0; start < count; start += chunk {
		end := start + chunk
		if end > count {
			end = count
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// effective evaluates every per-entity setting at one position and cohort.
func (c *kernelConfig) effective(posX, posY, cohort float32) (out [kernelSettingCount]float32) {
	for i := range c.settings {
		out[i] = c.settings[i].Effective(posX, posY, cohort)
	}
	return out
}

// trailField is a square RGBA float texture. RGB carries deposited color,
// alpha carries deposit density; sensing reads alpha only.
type trailField struct {
	dim int
	px  []float32 // dim*dim*4, row-major
}

func newTrailField(dim int) *trailField {
	return &trailField{dim: dim, px: make([]float32, dim*dim*4)}
}

func (t *trailField) clear() {
	for i := range t.px {
		t.px[i] = 0
	}
}

// texel returns the RGBA slice at integer coordinates, clamped to edges.
func (t *trailField) texel(x, y int) []float32 {
	if x < 0 {
		x = 0
	} else if x >= t.dim {
		x = t.dim - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.dim {
		y = t.dim - 1
	}
	i := (y*t.dim + x) * 4
	return t.px[i : i+4]
}

// sample bilinearly samples the alpha channel at a world position in
// [-1,1]^2.
func (t *trailField) sample(wx, wy float32) float32 {
	fx := (wx + 1) / 2 * float32(t.dim-1)
	fy := (wy + 1) / 2 * float32(t.dim-1)
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	a00 := t.texel(x0, y0)[3]
	a10 := t.texel(x0+1, y0)[3]
	a01 := t.texel(x0, y0+1)[3]
	a11 := t.texel(x0+1, y0+1)[3]

	top := a00 + (a10-a00)*tx
	bot := a01 + (a11-a01)*tx
	return top + (bot-top)*ty
}

// stepEntity advances one entity in place. e is the EntityStride-float
// record; trail is the front trail buffer, read-only during the entity
// stage.
func stepEntity(e []float32, cfg *kernelConfig, trail *trailField, tick uint32, index, entityCount int) {
	px, py := e[EntityPosX], e[EntityPosY]
	vx, vy := e[EntityVelX], e[EntityVelY]
	cohort := e[EntityCohort]

	s := cfg.effective(px, py, cohort)

	// Hazard respawn: a per-tick, per-entity deterministic draw.
	if s[kHazard] > 0 && hashRand(tick, uint32(index), 0x9e37) < s[kHazard] {
		respawnEntity(e, cfg, tick, index, entityCount)
		return
	}

	// Heading frame. With no velocity the entity faces +Y so the first
	// tick's thrust is well-defined.
	hx, hy := normalize(vx, vy, 0, 1)
	switch cfg.orientation {
	case preset.OrientationYAxis:
		hx, hy = mix2(hx, hy, 0, 1, cfg.orientationMix)
	case preset.OrientationRadial:
		rx, ry := normalize(px, py, 0, 1)
		hx, hy = mix2(hx, hy, rx, ry, cfg.orientationMix)
	}
	hx, hy = normalize(hx, hy, 0, 1)
	perpX, perpY := -hy, hx

	// Trail sensing: three probes fanned around the heading.
	angle := s[kSensorAngle] * math.Pi / 2
	dist := s[kSensorDist] * sensorBaseDist
	lx, ly := rotate(hx, hy, angle)
	rx, ry := rotate(hx, hy, -angle)
	senseL := trail.sample(px+lx*dist, py+ly*dist) * s[kGain]
	senseC := trail.sample(px+hx*dist, py+hy*dist) * s[kGain]
	senseR := trail.sample(px+rx*dist, py+ry*dist) * s[kGain]

	// Mirror-symmetric halves steer in opposite senses unless disabled.
	side := float32(1)
	if !cfg.disableSymmetry && index%2 == 1 {
		side = -1
	}

	steer := (senseR - senseL) * s[kLateral] * side
	strafe := (senseR + senseL - 2*senseC) * s[kStrafe] * side

	// Rule force: a fourier basis over (cohort, sensed triple). Mutation
	// scale amplifies or inverts its contribution.
	fx, fy := ruleForce(&cfg.rule, cohort, senseL, senseC, senseR)
	fx *= s[kMutation]
	fy *= s[kMutation]

	// Steering rotates the heading; thrust and the rule force accelerate.
	hx, hy = rotate(hx, hy, steer*turnRate*timeStep)
	ax := hx*s[kAxial]*thrustScale + perpX*strafe + fx
	ay := hy*s[kAxial]*thrustScale + perpY*strafe + fy
	ax *= s[kGlobalMult]
	ay *= s[kGlobalMult]

	vx += ax * timeStep
	vy += ay * timeStep

	damp := 1 - clampF(s[kDrag]*dragScale*timeStep, -1, 1)
	vx *= damp
	vy *= damp

	px += vx * timeStep
	py += vy * timeStep

	// Boundary policy on each axis independently.
	switch cfg.boundary {
	case preset.BoundaryBounce:
		if px > 1 {
			px = 2 - px
			vx = -vx
		} else if px < -1 {
			px = -2 - px
			vx = -vx
		}
		if py > 1 {
			py = 2 - py
			vy = -vy
		} else if py < -1 {
			py = -2 - py
			vy = -vy
		}
	case preset.BoundaryWrap:
		px = wrapCoord(px)
		py = wrapCoord(py)
	case preset.BoundaryReset:
		if px > 1 || px < -1 || py > 1 || py < -1 {
			e[EntityVelX], e[EntityVelY] = 0, 0
			respawnEntity(e, cfg, tick, index, entityCount)
			return
		}
	}

	e[EntityPosX], e[EntityPosY] = px, py
	e[EntityVelX], e[EntityVelY] = vx, vy
	e[EntitySize] = 1

	speed := float32(math.Hypot(float64(vx), float64(vy)))
	writeColor(e, cfg, cohort, speed)
}

// respawnEntity repositions an entity per the initial-condition
// distribution, preserving its cohort.
func respawnEntity(e []float32, cfg *kernelConfig, tick uint32, index, entityCount int) {
	r0 := hashRand(tick, uint32(index), 0x85eb)
	r1 := hashRand(tick, uint32(index), 0xc2b2)

	var px, py float32
	switch cfg.initial {
	case preset.InitialRandom:
		px = r0*2 - 1
		py = r1*2 - 1
	case preset.InitialRing:
		theta := 2 * math.Pi * (float32(index)/float32(entityCount) + r0*0.01)
		px = 0.7 * float32(math.Cos(float64(theta)))
		py = 0.7 * float32(math.Sin(float64(theta)))
	default: // grid
		cols := int(math.Ceil(math.Sqrt(float64(entityCount))))
		col := index % cols
		row := index / cols
		px = (float32(col)+0.5)/float32(cols)*2 - 1
		py = (float32(row)+0.5)/float32(cols)*2 - 1
	}

	e[EntityPosX], e[EntityPosY] = px, py
	e[EntityVelX], e[EntityVelY] = 0, 0
	e[EntitySize] = 1
	writeColor(e, cfg, e[EntityCohort], 0)
}

// seedEntity initializes a fresh entity record, assigning its cohort from
// its index so cohorts are evenly populated.
func seedEntity(e []float32, cfg *kernelConfig, index, entityCount int) {
	n := cfg.numCohorts
	if n < preset.MinCohorts {
		n = preset.MinCohorts
	}
	cohortIdx := index % int(n)
	e[EntityCohort] = (float32(cohortIdx) + 0.5) / float32(n)
	respawnEntity(e, cfg, 0, index, entityCount)
}

// ruleForce evaluates the basis-center matrix at a 4-vector of
// (cohort, left, center, right) sensed state.
func ruleForce(r *rule.Rule, q0, q1, q2, q3 float32) (fx, fy float32) {
	for i := 0; i < rule.Centers; i++ {
		f := r.Freq(i)
		a := r.Amp(i)
		phase := float64(f[0]*q0+f[1]*q1+f[2]*q2+f[3]*q3) * 2 * math.Pi
		sin, cos := math.Sincos(phase)
		s, c := float32(sin), float32(cos)
		fx += a[0]*s + a[1]*c
		fy += a[2]*s + a[3]*c
	}
	return fx, fy
}

func writeColor(e []float32, cfg *kernelConfig, cohort, speed float32) {
	var hue float32
	if cfg.colorByCohort {
		hue = cohort
	} else {
		hue = clampF(speed*cfg.hueSensitivity, 0, 1)
	}
	r, g, b := hueRGB(hue)
	e[EntityColorR+0] = r
	e[EntityColorR+1] = g
	e[EntityColorR+2] = b
	e[EntityColorR+3] = 1
}

// hueRGB converts a hue in [0,1] to fully-saturated RGB.
func hueRGB(h float32) (r, g, b float32) {
	h = h - float32(math.Floor(float64(h)))
	x := h * 6
	r = clampF(absF(x-3)-1, 0, 1)
	g = clampF(2-absF(x-2), 0, 1)
	b = clampF(2-absF(x-4), 0, 1)
	return r, g, b
}

// hashRand is a deterministic per-(tick, index) draw in [0,1). The tick
// counter is the only seed, so identical inputs replay identically.
func hashRand(tick, index, salt uint32) float32 {
	h := tick*0x9e3779b9 ^ index*0x85ebca6b ^ salt*0xc2b2ae35
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return float32(h>>8) / float32(1<<24)
}

func rotate(x, y, angle float32) (float32, float32) {
	s, c := math.Sincos(float64(angle))
	return x*float32(c) - y*float32(s), x*float32(s) + y*float32(c)
}

// normalize returns the unit vector of (x,y), or the fallback when the
// length is degenerate.
func normalize(x, y, fbx, fby float32) (float32, float32) {
	l := float32(math.Hypot(float64(x), float64(y)))
	if l < 1e-9 {
		return fbx, fby
	}
	return x / l, y / l
}

func mix2(ax, ay, bx, by, t float32) (float32, float32) {
	return ax + (bx-ax)*t, ay + (by-ay)*t
}

func wrapCoord(v float32) float32 {
	for v > 1 {
		v -= 2
	}
	for v < -1 {
		v += 2
	}
	return v
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
