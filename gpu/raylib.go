package gpu

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/rule"
	"github.com/aphid91/Fluoddity-Core/telemetry"
)

// Raylib is the windowed device: the canvas and assembly stages run as
// fragment shaders over render textures, the brush stage draws additive
// stamps into its target, and the entity stage runs the host kernel
// against a readback cache of the trail. Render textures are
// 8-bit, so entity positions stay host-side where they keep full float
// precision, mirroring how GPUFlowField-style passes cache their data on
// the CPU for sampling.
type Raylib struct {
	diag telemetry.Diag

	// Workgroup aligns the entity-stage goroutine chunks; <= 0 steps
	// every entity on the calling goroutine.
	Workgroup int
	// SensingInterval is the tick cadence of the trail readback that
	// feeds entity sensing; <= 1 reads back every tick. The trail decays
	// a few percent per tick, so sensing tolerates a short staleness
	// window.
	SensingInterval int

	entityCount int
	canvasDim   int
	canvasTicks uint64

	entities   []float32
	trailCache *trailField

	front rl.RenderTexture2D
	back  rl.RenderTexture2D
	brush rl.RenderTexture2D
	accum rl.RenderTexture2D

	entity    *uniformProgram
	brushPrg  *uniformProgram
	canvas    *raylibProgram
	assemble  *raylibProgram
	allocated bool

	rule rule.Rule

	mirror      []kernelConfig
	mirrorRules []rule.Rule

	accumW, accumH, accumN int
	accumCount             int
	resolved               bool
}

// NewRaylib returns a window-backed device. The raylib window must be
// open before Init is called.
func NewRaylib(diag telemetry.Diag) *Raylib {
	if diag == nil {
		diag = telemetry.Discard{}
	}
	return &Raylib{diag: diag}
}

func (d *Raylib) Init(entityCount, canvasDim int) error {
	d.entity = newUniformProgram("entity")
	d.brushPrg = newUniformProgram("brush")
	if err := d.Reload(); err != nil {
		return err
	}
	return d.Resize(entityCount, canvasDim)
}

func (d *Raylib) Resize(entityCount, canvasDim int) error {
	if d.allocated {
		rl.UnloadRenderTexture(d.front)
		rl.UnloadRenderTexture(d.back)
		rl.UnloadRenderTexture(d.brush)
	}
	d.entityCount = entityCount
	d.canvasDim = canvasDim
	d.entities = make([]float32, entityCount*EntityStride)
	d.trailCache = newTrailField(canvasDim)

	dim := int32(canvasDim)
	d.front = rl.LoadRenderTexture(dim, dim)
	d.back = rl.LoadRenderTexture(dim, dim)
	d.brush = rl.LoadRenderTexture(dim, dim)
	d.allocated = true
	d.clearTarget(d.front)
	d.clearTarget(d.back)
	d.clearTarget(d.brush)

	cfg := d.buildConfig()
	for i := 0; i < entityCount; i++ {
		seedEntity(d.entityAt(i), cfg, i, entityCount)
	}
	return nil
}

func (d *Raylib) Close() {
	if d.allocated {
		rl.UnloadRenderTexture(d.front)
		rl.UnloadRenderTexture(d.back)
		rl.UnloadRenderTexture(d.brush)
		d.allocated = false
	}
	if d.accumW > 0 {
		rl.UnloadRenderTexture(d.accum)
		d.accumW = 0
	}
	d.canvas.unload()
	d.assemble.unload()
}

func (d *Raylib) Entity() Program   { return d.entity }
func (d *Raylib) Brush() Program    { return d.brushPrg }
func (d *Raylib) Canvas() Program   { return d.canvas }
func (d *Raylib) Assembly() Program { return d.assemble }

// Reload recompiles every shader program. A stage whose new source fails
// to compile keeps its previous working program; the error names every
// failed stage.
func (d *Raylib) Reload() error {
	var firstErr error
	for _, s := range []struct {
		dst  **raylibProgram
		name string
		vert string
		frag string
	}{
		{&d.canvas, "canvas", fullscreenVert, canvasFragSource},
		{&d.assemble, "assembly", fullscreenVert, assemblyResolveFrag},
	} {
		p, err := compileProgram(s.name, s.vert, s.frag)
		if err != nil {
			d.diag.Warnf("shader %s: %v", s.name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue // keep the last good program
		}
		if *s.dst != nil {
			(*s.dst).unload()
		}
		*s.dst = p
	}
	return firstErr
}

// MemoryBarrier flushes queued draw commands so a stage's writes are
// complete before the next stage samples them.
func (d *Raylib) MemoryBarrier() {
	rl.DrawRenderBatchActive()
}

func (d *Raylib) entityAt(i int) []float32 {
	return d.entities[i*EntityStride : (i+1)*EntityStride]
}

func (d *Raylib) clearTarget(t rl.RenderTexture2D) {
	rl.BeginTextureMode(t)
	rl.ClearBackground(rl.Blank)
	rl.EndTextureMode()
}

// DispatchBrush deposits every entity's footprint into the brush target
// under additive blending.
func (d *Raylib) DispatchBrush() {
	size := d.brushPrg.getF("draw_size", 1)

	rl.BeginTextureMode(d.brush)
	rl.ClearBackground(rl.Blank)
	rl.BeginBlendMode(rl.BlendAdditive)
	half := float32(d.canvasDim) / 2
	for i := 0; i < d.entityCount; i++ {
		e := d.entityAt(i)
		x := (e[EntityPosX] + 1) * half
		y := (e[EntityPosY] + 1) * half
		r := size * e[EntitySize] * entityBaseSize
		if r < 1 {
			r = 1
		}
		c := rl.NewColor(
			uint8(clampF(e[EntityColorR+0], 0, 1)*255*depositBase),
			uint8(clampF(e[EntityColorR+1], 0, 1)*255*depositBase),
			uint8(clampF(e[EntityColorR+2], 0, 1)*255*depositBase),
			uint8(255*depositBase),
		)
		rl.DrawCircleV(rl.NewVector2(x, y), r, c)
	}
	rl.EndBlendMode()
	rl.EndTextureMode()
}

// DispatchEntities runs the host kernel against the trail readback cache.
func (d *Raylib) DispatchEntities() {
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
		simultaneous := d.entity.getF("multiload_simultaneous", 1)
		progress := d.entity.getF("multiload_progress", 0)
		byCohort := d.entity.getI("multiload_assign", 0) == 0
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
			stepEntity(e, &cfg, d.trailCache, tick, i, d.entityCount)
		})
		return
	}

	cfg := d.buildConfig()
	forEachEntity(d.entityCount, d.Workgroup, func(i int) {
		stepEntity(d.entityAt(i), cfg, d.trailCache, tick, i, d.entityCount)
	})
}

// DispatchCanvas runs the trail blend shader front -> back, swaps, and
// refreshes the sensing cache from the new front buffer.
func (d *Raylib) DispatchCanvas() {
	if d.canvas == nil {
		return
	}
	d.canvas.bindTexture("brush_tex", d.brush.Texture)

	rl.BeginTextureMode(d.back)
	rl.ClearBackground(rl.Blank)
	rl.BeginShaderMode(d.canvas.shader)
	rl.DrawTextureRec(d.front.Texture,
		rl.NewRectangle(0, 0, float32(d.canvasDim), -float32(d.canvasDim)),
		rl.NewVector2(0, 0), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()

	d.front, d.back = d.back, d.front

	// The readback is a blocking GPU sync, so it runs on a cadence
	// rather than every tick.
	d.canvasTicks++
	every := uint64(d.SensingInterval)
	if every <= 1 || d.canvasTicks%every == 0 {
		d.refreshTrailCache()
	}
}

// refreshTrailCache reads the front trail buffer back for host-side
// sensing. This is the windowed path's analogue of a device barrier plus
// buffer map.
func (d *Raylib) refreshTrailCache() {
	img := rl.LoadImageFromTexture(d.front.Texture)
	defer rl.UnloadImage(img)
	// Render texture storage is bottom-up; the cache is addressed top-down.
	rl.ImageFlipVertical(img)
	colors := rl.LoadImageColors(img)
	defer rl.UnloadImageColors(colors)

	for i, c := range colors {
		o := i * 4
		d.trailCache.px[o+0] = float32(c.R) / 255
		d.trailCache.px[o+1] = float32(c.G) / 255
		d.trailCache.px[o+2] = float32(c.B) / 255
		d.trailCache.px[o+3] = float32(c.A) / 255
	}
}

func (d *Raylib) EnsureAccum(w, h, samples int) bool {
	if w == d.accumW && h == d.accumH && samples == d.accumN {
		return false
	}
	if d.accumW > 0 {
		rl.UnloadRenderTexture(d.accum)
	}
	d.accum = rl.LoadRenderTexture(int32(w), int32(h))
	d.accumW, d.accumH, d.accumN = w, h, samples
	d.accumCount = 0
	d.clearTarget(d.accum)
	return true
}

// DispatchAssembly accumulates the selected view additively; the resolve
// shader runs when the sample count is reached.
func (d *Raylib) DispatchAssembly() {
	if d.accumW == 0 {
		return
	}
	src := d.front
	if d.assemble != nil && d.assemble.getCachedI("view_mode") == 1 {
		src = d.brush
	}

	rl.BeginTextureMode(d.accum)
	if d.accumCount == 0 {
		rl.ClearBackground(rl.Blank)
	}
	rl.BeginBlendMode(rl.BlendAdditive)
	rl.DrawTexturePro(src.Texture,
		rl.NewRectangle(0, 0, float32(src.Texture.Width), -float32(src.Texture.Height)),
		rl.NewRectangle(0, 0, float32(d.accumW), float32(d.accumH)),
		rl.NewVector2(0, 0), 0, rl.White)
	rl.EndBlendMode()
	rl.EndTextureMode()

	d.accumCount++
	d.resolved = d.accumCount >= d.accumN
	if d.resolved {
		d.accumCount = 0
	}
}

type raylibFrame struct {
	tex  rl.RenderTexture2D
	w, h int
}

func (f raylibFrame) Bounds() (int, int) { return f.w, f.h }

// Texture exposes the accumulation target for the resolve draw.
func (f raylibFrame) Texture() rl.RenderTexture2D { return f.tex }

func (d *Raylib) AccumFrame() Frame {
	return raylibFrame{tex: d.accum, w: d.accumW, h: d.accumH}
}

// ResolveShader returns the assembly resolve shader, set up with the
// current uniforms, for the present draw.
func (d *Raylib) ResolveShader() rl.Shader {
	src := d.front
	if d.assemble.getCachedI("emboss_mode") == int32(preset.EmbossBrush) {
		src = d.brush
	}
	d.assemble.bindTexture("emboss_tex", src.Texture)
	return d.assemble.shader
}

func (d *Raylib) UploadRule(flat []float32) {
	d.rule = rule.FromFlat(flat)
}

func (d *Raylib) UploadMirror(configs, rules []byte) {
	n := len(configs) / ConfigByteStride
	d.mirror = d.mirror[:0]
	for i := 0; i < n; i++ {
		d.mirror = append(d.mirror, decodeConfig(configs[i*ConfigByteStride:(i+1)*ConfigByteStride]))
	}
	rn := len(rules) / (rule.Floats * 4)
	d.mirrorRules = d.mirrorRules[:0]
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

func (d *Raylib) ReadEntities() []float32 {
	out := make([]float32, len(d.entities))
	copy(out, d.entities)
	return out
}

func (d *Raylib) ClearTrails() {
	d.clearTarget(d.front)
	d.clearTarget(d.back)
	d.clearTarget(d.brush)
	d.trailCache.clear()
}

func (d *Raylib) buildConfig() *kernelConfig {
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

// raylibProgram wraps a compiled rl.Shader with a uniform location cache.
type raylibProgram struct {
	name   string
	shader rl.Shader
	locs   map[string]int32
	// Host-visible mirrors of integer uniforms. Filled on every Set, even
	// when the compiled program dropped the uniform: mode selectors
	// (view_mode, emboss_mode) are consumed by host-side dispatch code.
	ints map[string]int32
}

func compileProgram(name, vert, frag string) (*raylibProgram, error) {
	sh := rl.LoadShaderFromMemory(vert, frag)
	if !rl.IsShaderValid(sh) {
		rl.UnloadShader(sh)
		return nil, fmt.Errorf("compile %s failed", name)
	}
	return &raylibProgram{
		name:   name,
		shader: sh,
		locs:   make(map[string]int32),
		ints:   make(map[string]int32),
	}, nil
}

func (p *raylibProgram) unload() {
	if p != nil {
		rl.UnloadShader(p.shader)
	}
}

func (p *raylibProgram) Name() string { return p.name }

func (p *raylibProgram) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := rl.GetShaderLocation(p.shader, name)
	p.locs[name] = l
	return l
}

func (p *raylibProgram) HasUniform(name string) bool {
	return p.loc(name) >= 0
}

func (p *raylibProgram) Set(name string, value any) bool {
	switch v := value.(type) {
	case int32:
		p.ints[name] = v
	case bool:
		p.ints[name] = 0
		if v {
			p.ints[name] = 1
		}
	}

	l := p.loc(name)
	if l < 0 {
		return false
	}
	switch v := value.(type) {
	case float32:
		rl.SetShaderValue(p.shader, l, []float32{v}, rl.ShaderUniformFloat)
	case int32:
		rl.SetShaderValue(p.shader, l, unsafeI32(v), rl.ShaderUniformInt)
	case bool:
		rl.SetShaderValue(p.shader, l, unsafeI32(p.ints[name]), rl.ShaderUniformInt)
	case [2]float32:
		rl.SetShaderValue(p.shader, l, v[:], rl.ShaderUniformVec2)
	case []float32:
		rl.SetShaderValueV(p.shader, l, v, rl.ShaderUniformFloat, int32(len(v)))
	default:
		return false
	}
	return true
}

func (p *raylibProgram) getCachedI(name string) int32 {
	if p == nil {
		return 0
	}
	return p.ints[name]
}

func (p *raylibProgram) bindTexture(name string, tex rl.Texture2D) {
	if l := p.loc(name); l >= 0 {
		rl.SetShaderValueTexture(p.shader, l, tex)
	}
}

func unsafeI32(v int32) []float32 {
	// raylib-go passes uniform data as []float32 regardless of the GL
	// type; reinterpret the int bits rather than converting the value.
	return []float32{math.Float32frombits(uint32(v))}
}
