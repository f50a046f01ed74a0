package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/rule"
	"github.com/aphid91/Fluoddity-Core/sim"
	"github.com/aphid91/Fluoddity-Core/ui"
)

func (g *Game) handleInput() {
	g.handleKeys()
	g.handleMouse()
}

func (g *Game) handleKeys() {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		g.state.Paused = !g.state.Paused
	case rl.IsKeyPressed(rl.KeyTab):
		g.panel.Toggle()
	case rl.IsKeyPressed(rl.KeyV):
		if g.state.View == sim.ViewCanvas {
			g.state.View = sim.ViewBrush
		} else {
			g.state.View = sim.ViewCanvas
		}
	case rl.IsKeyPressed(rl.KeyR):
		g.stepper.ResetEntities()
	case rl.IsKeyPressed(rl.KeyC):
		g.stepper.Reset()
	case rl.IsKeyPressed(rl.KeyU):
		g.applyIntent(ui.Intent{UndoRule: true, RemoveSlot: -1})
	case rl.IsKeyPressed(rl.KeyHome):
		g.cam.Reset()
	}

	// Hold P to preview a rule generated from the preset's seed; release
	// restores whatever was active. The preview guard keeps enter/exit
	// balanced even if the key bounces.
	if rl.IsKeyDown(rl.KeyP) {
		if !g.preview.Active() {
			g.stepper.ApplyRule(g.preview.Enter(rule.Generate(g.state.Preset.RuleSeed)))
		}
	} else if g.preview.Active() {
		r, ok := g.preview.Exit()
		if !ok {
			r = rule.Rule{}
		}
		g.stepper.ApplyRule(r)
	}
}

func (g *Game) handleMouse() {
	pos := rl.GetMousePosition()

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1.1)
		if wheel < 0 {
			factor = 1 / factor
		}
		g.cam.ZoomAt(pos.X, pos.Y, factor)
	}

	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		g.cam.Pan(delta.X, delta.Y)
	}

	wx, wy := g.cam.ScreenToWorld(pos.X, pos.Y)
	g.state.DrawPos = [2]float32{wx, wy}
	g.state.DrawHeld = rl.IsMouseButtonDown(rl.MouseLeftButton)

	// Click on the canvas: pick the nearest entity. With sweeps active
	// its effective values flow back into the sliders.
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && g.cam.OnCanvas(pos.X, pos.Y) && !g.state.DrawAllowed() {
		u, v := g.cam.ScreenToUV(pos.X, pos.Y)
		if pick, ok := g.stepper.PickNearest(u, v); ok {
			vals := g.stepper.SettingsAt(g.state, pick.PosX, pick.PosY, pick.Cohort)
			g.state.AdoptEffective(vals)
		}
	}
}
