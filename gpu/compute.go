package gpu

import (
	"encoding/binary"
	"math"

	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/rule"
	"github.com/aphid91/Fluoddity-Core/telemetry"
)

// Compute is the pure-Go device. It implements every stage with the same
// math the shaders run, which makes it both the headless backend and the
// reference the GPU path is validated against.
type Compute struct {
	diag telemetry.Diag

	// Workgroup aligns the entity-stage goroutine chunks; <= 0 steps
	// every entity on the calling goroutine.
	Workgroup int

	entityCount int
	canvasDim   int

	entities []float32
	front    *trailField
	back     *trailField
	brush    *trailField

	entity   *uniformProgram
	brushPrg *uniformProgram
	canvas   *uniformProgram
	assembly *uniformProgram

	rule rule.Rule

	mirror      []kernelConfig
	mirrorRules []rule.Rule

	accum      []float32
	resolved   []float32
	accumW     int
	accumH     int
	accumN     int
	accumCount int
}

// NewCompute returns an unallocated CPU device. Call Init before use.
func NewCompute(diag telemetry.Diag) *Compute {
	if diag == nil {
		diag = telemetry.Discard{}
	}
	return &Compute{diag: diag}
}

func (d *Compute) Init(entityCount, canvasDim int) error {
	d.entity = newUniformProgram("entity")
	d.brushPrg = newUniformProgram("brush")
	d.canvas = newUniformProgram("canvas")
	d.assembly = newUniformProgram("assembly")
	return d.Resize(entityCount, canvasDim)
}

func (d *Compute) Resize(entityCount, canvasDim int) error {
	d.entityCount = entityCount
	d.canvasDim = canvasDim
	d.entities = make([]float32, entityCount*EntityStride)
	d.front = newTrailField(canvasDim)
	d.back = newTrailField(canvasDim)
	d.brush = newTrailField(canvasDim)

	cfg := d.buildConfig()
	for i := 0; i < entityCount; i++ {
		seedEntity(d.entityAt(i), cfg, i, entityCount)
	}
	return nil
}

func (d *Compute) Close() {}

func (d *Compute) Entity() Program   { return d.entity }
func (d *Compute) Brush() Program    { return d.brushPrg }
func (d *Compute) Canvas() Program   { return d.canvas }
func (d *Compute) Assembly() Program { return d.assembly }

// Reload is a no-op: there is no compiled artifact to refresh.
func (d *Compute) Reload() error { return nil }

// MemoryBarrier is a no-op: dispatches execute synchronously in call
// order, so ordering is already total.
func (d *Compute) MemoryBarrier() {}

func (d *Compute) entityAt(i int) []float32 {
	return d.entities[i*EntityStride : (i+1)*EntityStride]
}

// DispatchBrush clears the brush buffer and splats every entity's
// footprint additively.
func (d *Compute) DispatchBrush() {
	d.brush.clear()

	size := d.brushPrg.getF("draw_size", 1)
	deposit := d.brushPrg.getF("deposit_amount", depositBase)

	dim := d.brush.dim
	for i := 0; i < d.entityCount; i++ {
		e := d.entityAt(i)
		radius := float64(size * e[EntitySize] * entityBaseSize)
		if radius < 0.5 {
			radius = 0.5
		}
		cx := float64(e[EntityPosX]+1) / 2 * float64(dim-1)
		cy := float64(e[EntityPosY]+1) / 2 * float64(dim-1)
		r := int(math.Ceil(radius))
		sigma2 := radius * radius / 2

		for y := int(cy) - r; y <= int(cy)+r; y++ {
			if y < 0 || y >= dim {
				continue
			}
			for x := int(cx) - r; x <= int(cx)+r; x++ {
				if x < 0 || x >= dim {
					continue
				}
				dx := float64(x) - cx
				dy := float64(y) - cy
				w := float32(math.Exp(-(dx*dx + dy*dy) / (2 * sigma2)))
				px := d.brush.texel(x, y)
				px[0] += e[EntityColorR+0] * w * deposit
				px[1] += e[EntityColorR+1] * w * deposit
				px[2] += e[EntityColorR+2] * w * deposit
				px[3] += w * deposit
			}
		}
	}
}

// DispatchEntities advances every entity one tick against the front trail
// buffer.
func (d *Compute) DispatchEntities() {
	tick := uint32(d.entity.getI("frame_count", 0))

	if d.entity.getB("reset_entities") {
		cfg := d.buildConfig()
		for i := 0; i < d.entityCount; i++ {
			seedEntity(d.entityAt(i), cfg, i, d.entityCount)
		}
		d.entity.vals["reset_entities"] = false
		return
	}

	count := int(d.entity.getI("multiload_count", 0))
	if count > 0 && len(d.mirror) >= count {
		d.stepMultiLoad(tick, count)
		return
	}

	cfg := d.buildConfig()
	forEachEntity(d.entityCount, d.Workgroup, func(i int) {
		stepEntity(d.entityAt(i), cfg, d.front, tick, i, d.entityCount)
	})
}

func (d *Compute) stepMultiLoad(tick uint32, count int) {
	simultaneous := d.entity.getF("multiload_simultaneous", 1)
	progress := d.entity.getF("multiload_progress", 0)
	byCohort := d.entity.getI("multiload_assign", 0) == 0

	// Per-config overrides default off: the shared uniforms win unless
	// the corresponding flag was uploaded.
	shared := d.buildConfig()
	perInitial := d.entity.getB("multiload_per_initial")
	perCohorts := d.entity.getB("multiload_per_cohorts")
	perHazard := d.entity.getB("multiload_per_hazard")

	forEachEntity(d.entityCount, d.Workgroup, func(i int) {
		e := d.entityAt(i)
		var u float32
		if byCohort {
			u = e[EntityCohort]
		} else {
			// Stable per-entity draw so assignment does not churn
			// between ticks.
			u = hashRand(0, uint32(i), 0x517c)
		}
		ci := selectConfig(u, count, simultaneous, progress)
		cfg := d.mirror[ci]
		cfg.rule = d.mirrorRules[ci]
		if !perInitial {
			cfg.initial = shared.initial
		}
		if !perCohorts {
			cfg.numCohorts = shared.numCohorts
		}
		if !perHazard {
			cfg.settings[kHazard] = shared.settings[kHazard]
		}
		stepEntity(e, &cfg, d.front, tick, i, d.entityCount)
	})
}

// selectConfig maps a per-entity draw u in [0,1) into the active window
// on the config ring. progress is the window start in preset-index units;
// simultaneous is the window width, a float so fractional windows agree
// with multiload.TrailBlend.
func selectConfig(u float32, count int, simultaneous, progress float32) int {
	half := simultaneous/2 + windowEpsilon
	pos := progress + u*2*half
	pos = floatMod(pos, float32(count))
	idx := int(pos)
	if idx >= count {
		idx = count - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func floatMod(v, m float32) float32 {
	r := float32(math.Mod(float64(v), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// DispatchCanvas blends the brush deposit into the trail: the back buffer
// is written from the front buffer, then the buffers swap. The trail
// parameters are evaluated per texel so spatial sweeps show in the field
// itself.
func (d *Compute) DispatchCanvas() {
	persistence := d.canvas.getSetting("TRAIL_PERSISTENCE_SETTING")
	diffusion := d.canvas.getSetting("TRAIL_DIFFUSION_SETTING")

	drawActive := d.canvas.getB("draw_active")
	drawPos := d.canvas.getV2("draw_pos")
	drawSize := d.canvas.getF("draw_size", 0.05)
	drawPower := d.canvas.getF("draw_power", 1)

	dim := d.canvasDim
	for y := 0; y < dim; y++ {
		wy := float32(y)/float32(dim-1)*2 - 1
		for x := 0; x < dim; x++ {
			wx := float32(x)/float32(dim-1)*2 - 1

			p := persistence.Effective(wx, wy, 0.5)
			df := diffusion.Effective(wx, wy, 0.5)

			out := d.back.texel(x, y)
			brush := d.brush.texel(x, y)
			for c := 0; c < 4; c++ {
				center := d.front.texel(x, y)[c]
				blur := d.blur3(x, y, c)
				diffused := center + (blur-center)*df
				out[c] = diffused*p + brush[c]
			}

			if drawActive {
				dx := float64(wx - drawPos[0])
				dy := float64(wy - drawPos[1])
				w := float32(math.Exp(-(dx*dx + dy*dy) / float64(2*drawSize*drawSize)))
				stamp := w * drawPower * float32(timeStep)
				out[0] += stamp
				out[1] += stamp
				out[2] += stamp
				out[3] += stamp
			}
		}
	}

	d.front, d.back = d.back, d.front
}

// blur3 is the 3x3 box blur of one channel of the front buffer.
func (d *Compute) blur3(x, y, c int) float32 {
	var sum float32
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			sum += d.front.texel(x+dx, y+dy)[c]
		}
	}
	return sum / 9
}

func (d *Compute) EnsureAccum(w, h, samples int) bool {
	if w == d.accumW && h == d.accumH && samples == d.accumN && d.accum != nil {
		return false
	}
	d.accumW, d.accumH, d.accumN = w, h, samples
	d.accum = make([]float32, w*h*4)
	d.resolved = make([]float32, w*h*4)
	d.accumCount = 0
	return true
}

// DispatchAssembly adds the current view into the accumulation buffer.
// When the configured sample count is reached it resolves: average,
// brightness, optional watercolor, gamma.
func (d *Compute) DispatchAssembly() {
	if d.accum == nil {
		return
	}

	src := d.front
	if d.assembly.getI("view_mode", 0) == 1 {
		src = d.brush
	}

	if d.accumCount == 0 {
		for i := range d.accum {
			d.accum[i] = 0
		}
	}

	for y := 0; y < d.accumH; y++ {
		sy := y * (src.dim - 1) / max1(d.accumH-1)
		for x := 0; x < d.accumW; x++ {
			sx := x * (src.dim - 1) / max1(d.accumW-1)
			px := src.texel(sx, sy)
			o := (y*d.accumW + x) * 4
			for c := 0; c < 4; c++ {
				d.accum[o+c] += px[c]
			}
		}
	}
	d.accumCount++

	if d.accumCount >= d.accumN {
		d.resolve()
		d.accumCount = 0
	}
}

func (d *Compute) resolve() {
	brightness := d.assembly.getF("brightness", 1)
	gamma := d.assembly.getF("gamma", 2.2)
	ink := d.assembly.getF("ink_weight", 1)
	watercolor := d.assembly.getB("watercolor")
	inv := 1 / float32(d.accumN)

	var embossSrc *trailField
	switch preset.EmbossMode(d.assembly.getI("emboss_mode", 0)) {
	case preset.EmbossCanvas:
		embossSrc = d.front
	case preset.EmbossBrush:
		embossSrc = d.brush
	}
	intensity := d.assembly.getF("emboss_intensity", 0)
	off := int(d.assembly.getF("emboss_smoothness", 1))
	if off < 1 {
		off = 1
	}

	for i := 0; i < len(d.accum); i += 4 {
		var relief float32
		if embossSrc != nil {
			p := i / 4
			x := p % d.accumW
			y := p / d.accumW
			sx := x * (embossSrc.dim - 1) / max1(d.accumW-1)
			sy := y * (embossSrc.dim - 1) / max1(d.accumH-1)
			a := embossSrc.texel(sx-off, sy-off)[3]
			b := embossSrc.texel(sx+off, sy+off)[3]
			relief = (a - b) * intensity
		}
		for c := 0; c < 3; c++ {
			v := d.accum[i+c] * inv * brightness
			if watercolor {
				v = 1 - float32(math.Exp(float64(-v*ink)))
			}
			v += relief
			if v < 0 {
				v = 0
			}
			d.resolved[i+c] = float32(math.Pow(float64(v), 1/float64(gamma)))
		}
		d.resolved[i+3] = 1
	}
}

type cpuFrame struct {
	w, h int
	px   []float32
}

func (f cpuFrame) Bounds() (int, int) { return f.w, f.h }

// Pixels exposes the resolved RGBA floats, w*h*4.
func (f cpuFrame) Pixels() []float32 { return f.px }

func (d *Compute) AccumFrame() Frame {
	return cpuFrame{w: d.accumW, h: d.accumH, px: d.resolved}
}

func (d *Compute) UploadRule(flat []float32) {
	d.rule = rule.FromFlat(flat)
}

// UploadMirror decodes the packed config and rule mirrors into resolved
// kernel configs.
func (d *Compute) UploadMirror(configs, rules []byte) {
	n := len(configs) / ConfigByteStride
	d.mirror = make([]kernelConfig, 0, n)
	for i := 0; i < n; i++ {
		d.mirror = append(d.mirror, decodeConfig(configs[i*ConfigByteStride:(i+1)*ConfigByteStride]))
	}

	rn := len(rules) / (rule.Floats * 4)
	d.mirrorRules = make([]rule.Rule, 0, rn)
	for i := 0; i < rn; i++ {
		flat := make([]float32, rule.Floats)
		for j := range flat {
			flat[j] = f32le(rules[(i*rule.Floats+j)*4:])
		}
		d.mirrorRules = append(d.mirrorRules, rule.FromFlat(flat))
	}
	for len(d.mirrorRules) < len(d.mirror) {
		d.mirrorRules = append(d.mirrorRules, rule.Rule{})
	}
}

// ConfigByteStride is the packed per-config mirror size; it matches
// multiload.ConfigStride.
const ConfigByteStride = kernelSettingCount*6*4 + 6*4 + 3*4

func decodeConfig(b []byte) kernelConfig {
	var cfg kernelConfig
	off := 0
	for i := 0; i < kernelSettingCount; i++ {
		cfg.settings[i] = preset.Setting{
			Value:       f32le(b[off:]),
			Min:         f32le(b[off+4:]),
			Max:         f32le(b[off+8:]),
			XSweep:      preset.SweepMode(f32le(b[off+12:])),
			YSweep:      preset.SweepMode(f32le(b[off+16:])),
			CohortSweep: preset.SweepMode(f32le(b[off+20:])),
		}
		off += 24
	}
	cfg.disableSymmetry = i32le(b[off:]) != 0
	cfg.orientation = preset.OrientationMode(i32le(b[off+4:]))
	cfg.boundary = preset.BoundaryMode(i32le(b[off+8:]))
	cfg.initial = preset.InitialMode(i32le(b[off+12:]))
	cfg.numCohorts = i32le(b[off+16:])
	cfg.colorByCohort = i32le(b[off+20:]) != 0
	off += 24
	cfg.hueSensitivity = f32le(b[off:])
	cfg.orientationMix = f32le(b[off+4:])
	return cfg
}

func f32le(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func i32le(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// ReadEntities returns a copy of the full entity buffer.
func (d *Compute) ReadEntities() []float32 {
	out := make([]float32, len(d.entities))
	copy(out, d.entities)
	return out
}

func (d *Compute) ClearTrails() {
	d.front.clear()
	d.back.clear()
	d.brush.clear()
}

// buildConfig resolves the single-mode kernel config from the entity
// program's uniforms.
func (d *Compute) buildConfig() *kernelConfig {
	cfg := &kernelConfig{
		disableSymmetry: d.entity.getB("disable_symmetry"),
		orientation:     preset.OrientationMode(d.entity.getI("orientation_mode", 0)),
		orientationMix:  d.entity.getF("orientation_mix", 1),
		boundary:        preset.BoundaryMode(d.entity.getI("boundary_mode", 0)),
		initial:         preset.InitialMode(d.entity.getI("initial_mode", 0)),
		numCohorts:      d.entity.getI("num_cohorts", 64),
		colorByCohort:   d.entity.getB("color_by_cohort"),
		hueSensitivity:  d.entity.getF("hue_sensitivity", 0.5),
		rule:            d.rule,
	}
	for i, name := range kernelSettingNames {
		cfg.settings[i] = d.entity.getSetting(name)
	}
	return cfg
}

// kernelSettingNames lists the entity program's setting uniform block
// names in mirror order.
var kernelSettingNames = [kernelSettingCount]string{
	"AXIAL_FORCE_SETTING",
	"LATERAL_FORCE_SETTING",
	"SENSOR_GAIN_SETTING",
	"MUTATION_SCALE_SETTING",
	"DRAG_SETTING",
	"STRAFE_POWER_SETTING",
	"SENSOR_ANGLE_SETTING",
	"GLOBAL_FORCE_MULT_SETTING",
	"SENSOR_DISTANCE_SETTING",
	"HAZARD_RATE_SETTING",
}

// uniformProgram is the CPU stand-in for a compiled program: a flat map
// of uniform values keyed by name, including dotted struct members.
type uniformProgram struct {
	name string
	vals map[string]any
}

func newUniformProgram(name string) *uniformProgram {
	return &uniformProgram{name: name, vals: make(map[string]any)}
}

func (p *uniformProgram) Name() string { return p.name }

func (p *uniformProgram) HasUniform(string) bool { return true }

func (p *uniformProgram) Set(name string, value any) bool {
	p.vals[name] = value
	return true
}

func (p *uniformProgram) getF(name string, def float32) float32 {
	switch v := p.vals[name].(type) {
	case float32:
		return v
	case int32:
		return float32(v)
	}
	return def
}

func (p *uniformProgram) getI(name string, def int32) int32 {
	switch v := p.vals[name].(type) {
	case int32:
		return v
	case float32:
		return int32(v)
	}
	return def
}

func (p *uniformProgram) getB(name string) bool {
	if v, ok := p.vals[name].(bool); ok {
		return v
	}
	return false
}

func (p *uniformProgram) getV2(name string) [2]float32 {
	if v, ok := p.vals[name].([2]float32); ok {
		return v
	}
	return [2]float32{}
}

// getSetting reassembles a Setting from its dotted member uniforms.
func (p *uniformProgram) getSetting(base string) preset.Setting {
	return preset.Setting{
		Value:       p.getF(base+".value", 0),
		Min:         p.getF(base+".min_value", 0),
		Max:         p.getF(base+".max_value", 0),
		XSweep:      preset.SweepMode(p.getF(base+".x_sweep", 0)),
		YSweep:      preset.SweepMode(p.getF(base+".y_sweep", 0)),
		CohortSweep: preset.SweepMode(p.getF(base+".cohort_sweep", 0)),
	}
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
