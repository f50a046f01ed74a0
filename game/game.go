// Package game wires the simulation together: device, stepper, frame
// assembler, camera, panel, rule history, preset library, and the run
// recorder. main() hands it a loop; everything else lives here.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/camera"
	"github.com/aphid91/Fluoddity-Core/config"
	"github.com/aphid91/Fluoddity-Core/gpu"
	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/render"
	"github.com/aphid91/Fluoddity-Core/rule"
	"github.com/aphid91/Fluoddity-Core/sim"
	"github.com/aphid91/Fluoddity-Core/telemetry"
	"github.com/aphid91/Fluoddity-Core/ui"
)

// Options configure a run.
type Options struct {
	Headless   bool
	RuleSeed   float64 // 0 = default seed
	PresetPath string  // preset file to load at startup
	OutputDir  string  // "" = no CSV recording
}

// Game owns the per-run object graph.
type Game struct {
	opts Options

	dev       gpu.Device
	stepper   *sim.Stepper
	assembler *render.Assembler
	state     *sim.State
	cam       *camera.Camera

	history *rule.History
	preview *rule.Preview

	panel *ui.Panel
	diag  *telemetry.Sink
	rec   *telemetry.Recorder
	store preset.Store

	frames     uint64
	statsEvery time.Duration
	lastStats  time.Time
}

// New builds the object graph. In headless mode the pure-Go device runs
// the whole pipeline; otherwise the raylib window must already be open.
func New(opts Options) (*Game, error) {
	cfg := config.Cfg()

	g := &Game{
		opts:    opts,
		state:   sim.NewState(),
		history: &rule.History{},
		diag:    telemetry.NewSink(slog.Default(), cfg.Telemetry.DiagRepeatLimit),
		cam:     camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32),
		panel:   ui.NewPanel(0, 0, 300),
	}
	g.preview = rule.NewPreview(g.history)
	g.state.DrawBrush = float32(cfg.Sim.DrawSize)
	g.state.DrawPower = float32(cfg.Sim.DrawPower)

	if opts.Headless {
		dev := gpu.NewCompute(g.diag)
		dev.Workgroup = cfg.Sim.WorkgroupSize
		g.dev = dev
		g.diag.Infof("headless device: pure-Go reference kernel")
	} else {
		dev := gpu.NewRaylib(g.diag)
		dev.Workgroup = cfg.Sim.WorkgroupSize
		dev.SensingInterval = cfg.Sim.SensingInterval
		g.dev = dev
		g.diag.Infof("windowed device: raylib render-texture pipeline")
	}

	g.stepper = sim.NewStepper(g.dev, g.diag)
	if err := g.stepper.Init(cfg.World.Size); err != nil {
		return nil, err
	}
	if cfg.Sim.ProgressScale > 0 {
		g.stepper.Registry.ProgressScale = cfg.Sim.ProgressScale
	}
	g.statsEvery = time.Duration(cfg.Telemetry.StatsInterval * float64(time.Second))
	g.lastStats = time.Now()

	g.assembler = render.NewAssembler(g.dev, g.diag)
	g.assembler.Configure(g.stepper.CanvasDim(), g.stepper.CanvasDim(), cfg.Assembly.Samples)

	seed := opts.RuleSeed
	if seed == 0 {
		seed = preset.DefaultRuleSeed
	}
	r := rule.Generate(seed)
	g.history.Push(r)
	g.stepper.ApplyRule(r)
	g.state.Preset.RuleSeed = seed
	g.state.Preset.Rule = r

	if opts.PresetPath != "" {
		p, err := preset.LoadFile(opts.PresetPath)
		if err != nil {
			return nil, fmt.Errorf("loading preset: %w", err)
		}
		g.applyPreset(p)
	}

	if cfg.Presets.LibraryPath != "" {
		g.store = preset.NewSQLiteStore(cfg.Presets.LibraryPath)
	} else {
		g.store = preset.NewMemoryStore()
	}
	if err := g.store.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("preset library: %w", err)
	}

	rec, err := telemetry.NewRecorder(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.rec = rec

	slog.Info("simulation ready",
		"entities", g.stepper.EntityCount(),
		"canvas", g.stepper.CanvasDim(),
		"samples", g.assembler.Samples(),
		"headless", opts.Headless,
	)
	return g, nil
}

// Tick returns the stepper's tick counter.
func (g *Game) Tick() uint64 { return g.stepper.Tick() }

// FramesEmitted returns how many assembled frames have been produced.
func (g *Game) FramesEmitted() uint64 { return g.frames }

// applyPreset replaces live state with a loaded preset.
func (g *Game) applyPreset(p *preset.Preset) {
	g.state.Preset = p
	g.history.Push(p.Rule)
	g.stepper.ApplyRule(p.Rule)
	g.stepper.ResetEntities()
	g.stepper.Reset()
}

// step advances the simulation and the assembler one tick.
func (g *Game) step() {
	g.stepper.Step(g.state)

	style := g.styleFromState()
	if _, ready := g.assembler.Assemble(style); ready {
		g.frames++
	}
	g.record()
	g.logStats()
}

// logStats emits a periodic run-stats line on the configured interval.
func (g *Game) logStats() {
	if g.statsEvery <= 0 || time.Since(g.lastStats) < g.statsEvery {
		return
	}
	g.lastStats = time.Now()
	slog.Info("run stats",
		"tick", g.stepper.Tick(),
		"fps", rl.GetFPS(),
		"entities", g.stepper.EntityCount(),
		"frames", g.frames,
		"multiload", g.stepper.Registry.Count(),
	)
}

func (g *Game) styleFromState() render.Style {
	cfg := config.Cfg()
	p := g.state.Preset
	return render.Style{
		Brightness:       float32(cfg.Assembly.Brightness),
		Gamma:            float32(cfg.Assembly.Gamma),
		InkWeight:        float32(p.InkWeight),
		Watercolor:       p.Watercolor,
		Emboss:           p.Emboss,
		EmbossIntensity:  float32(p.EmbossIntensity),
		EmbossSmoothness: float32(p.EmbossSmoothness),
		ViewBrush:        g.state.View == sim.ViewBrush,
	}
}

func (g *Game) record() {
	if g.rec == nil {
		return
	}
	p := g.state.Preset
	err := g.rec.Record(telemetry.TickRecord{
		Tick:              g.stepper.Tick(),
		FPS:               rl.GetFPS(),
		EntityCount:       g.stepper.EntityCount(),
		TrailPersistence:  p.Values[preset.TrailPersistence],
		TrailDiffusion:    p.Values[preset.TrailDiffusion],
		MultiLoadCount:    g.stepper.Registry.Count(),
		MultiLoadProgress: g.stepper.Registry.CurrentProgress,
		FramesEmitted:     g.frames,
	})
	if err != nil {
		g.diag.Warnf("run recorder: %v", err)
	}
}

// UpdateHeadless runs one unpaused tick without any input handling.
func (g *Game) UpdateHeadless() {
	g.step()
}

// Update handles input and advances the simulation unless paused.
func (g *Game) Update() {
	g.handleInput()
	if !g.state.Paused {
		g.step()
	}
}

// Draw presents the assembled frame, the panel, and the overlays.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	if dev, ok := g.dev.(*gpu.Raylib); ok {
		g.drawFrame(dev)
	}

	intent := g.panel.Draw(g.state, g.stepper.Registry)
	g.applyIntent(intent)

	ui.DrawReticle(g.cam, g.state)
	ui.DrawHUD(g.stepper, g.state,
		int32(config.Cfg().Screen.Width), int32(config.Cfg().Screen.Height))

	rl.EndDrawing()
}

// drawFrame blits the accumulation buffer through the resolve shader.
func (g *Game) drawFrame(dev *gpu.Raylib) {
	frame, ok := g.dev.AccumFrame().(interface{ Texture() rl.RenderTexture2D })
	if !ok {
		return
	}
	x, y, size := g.cam.CanvasRect()
	tex := frame.Texture().Texture

	rl.BeginShaderMode(dev.ResolveShader())
	rl.DrawTexturePro(tex,
		rl.NewRectangle(0, 0, float32(tex.Width), -float32(tex.Height)),
		rl.NewRectangle(x, y, size, size),
		rl.NewVector2(0, 0), 0, rl.White)
	rl.EndShaderMode()
}

// applyIntent performs the panel's requested actions.
func (g *Game) applyIntent(in ui.Intent) {
	switch {
	case in.NewRule:
		r := rule.Generate(in.PreviewSeed)
		g.history.Push(r)
		g.stepper.ApplyRule(r)
		g.state.Preset.RuleSeed = in.PreviewSeed
		g.state.Preset.Rule = r
	case in.UndoRule:
		r, ok := g.history.Pop()
		if !ok {
			r = rule.Rule{} // popped to empty: run the zero rule
		}
		g.stepper.ApplyRule(r)
		g.state.Preset.Rule = r
	case in.ZeroRule:
		g.stepper.ApplyRule(g.history.PushZero())
		g.state.Preset.Rule = rule.Rule{}
	}

	if in.AddMultiLoad {
		if !g.stepper.Registry.Add(g.state.Preset, fmt.Sprintf("slot %d", g.stepper.Registry.Count()+1)) {
			g.diag.Warnf("multi-load ring full (%d)", g.stepper.Registry.Count())
		}
	}
	if in.RemoveSlot >= 0 {
		g.stepper.Registry.Remove(in.RemoveSlot)
	}

	if in.SavePreset {
		g.savePreset()
	}
	if in.CopyPreset {
		if s, err := g.state.Preset.EncodeString(); err == nil {
			rl.SetClipboardText(s)
		} else {
			g.diag.Warnf("encode preset: %v", err)
		}
	}
	if in.PastePreset {
		if p, err := preset.DecodeString(rl.GetClipboardText()); err == nil {
			g.applyPreset(p)
		} else {
			// Malformed payload: leave current state unchanged.
			g.diag.Warnf("paste ignored: %v", err)
		}
	}
	if in.ResetEntities {
		g.stepper.ResetEntities()
	}
	if in.ClearTrails {
		g.stepper.Reset()
	}
}

func (g *Game) savePreset() {
	cfg := config.Cfg()
	entry := preset.NewEntry(fmt.Sprintf("preset-%d", g.stepper.Tick()), g.state.Preset)
	if err := g.store.Save(context.Background(), entry); err != nil {
		g.diag.Warnf("library save: %v", err)
	}
	if cfg.Presets.Dir != "" {
		if err := os.MkdirAll(cfg.Presets.Dir, 0o755); err != nil {
			g.diag.Warnf("preset dir: %v", err)
			return
		}
		path := filepath.Join(cfg.Presets.Dir, entry.Name+".json")
		if err := g.state.Preset.SaveFile(path); err != nil {
			g.diag.Warnf("preset save: %v", err)
		} else {
			slog.Info("preset saved", "path", path, "id", entry.ID)
		}
	}
}

// Unload flushes the recorder and releases device resources.
func (g *Game) Unload() {
	if err := g.rec.Close(); err != nil {
		slog.Error("closing recorder", "error", err)
	}
	if err := g.store.Close(); err != nil {
		slog.Error("closing preset library", "error", err)
	}
	g.dev.Close()
}
