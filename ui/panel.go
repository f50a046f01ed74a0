// Package ui renders the raygui control surface: the parameter panel
// with per-axis sweep toggles, simulation mode controls, and the
// multi-load ring editor. The panel mutates the driver's State directly;
// anything that must go through the stepper or history is reported back
// as an Intent.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/multiload"
	"github.com/aphid91/Fluoddity-Core/preset"
	"github.com/aphid91/Fluoddity-Core/sim"
)

// Intent is what the user asked for this frame that the panel cannot do
// itself.
type Intent struct {
	NewRule       bool
	UndoRule      bool
	ZeroRule      bool
	PreviewSeed   float64
	ResetEntities bool
	ClearTrails   bool
	SavePreset    bool
	CopyPreset    bool
	PastePreset   bool
	AddMultiLoad  bool
	RemoveSlot    int // -1 when none
}

// Panel is the left-hand control panel.
type Panel struct {
	X, Y, Width int32
	visible     bool

	ruleSeed float32
}

func NewPanel(x, y, width int32) *Panel {
	return &Panel{X: x, Y: y, Width: width, visible: true, ruleSeed: float32(preset.DefaultRuleSeed)}
}

func (p *Panel) Toggle() { p.visible = !p.visible }

func (p *Panel) Visible() bool { return p.visible }

const (
	rowH    = 22
	padding = 8
)

// Draw renders the panel and applies slider edits to the state's preset.
func (p *Panel) Draw(st *sim.State, reg *multiload.Registry) Intent {
	intent := Intent{RemoveSlot: -1}
	if !p.visible {
		return intent
	}

	x := float32(p.X + padding)
	w := float32(p.Width - 2*padding)
	y := float32(p.Y + padding)

	rl.DrawRectangle(p.X, p.Y, p.Width, 720, rl.NewColor(20, 20, 24, 235))

	y = p.drawSliders(st.Preset, x, y, w)
	y = p.drawModes(st, x, y, w)
	y = p.drawRuleControls(st, x, y, w, &intent)
	y = p.drawMultiLoad(st, reg, x, y, w, &intent)
	p.drawPresetControls(x, y, w, &intent)

	return intent
}

// drawSliders renders one row per physics parameter: the value slider in
// its current range plus the three sweep-axis cycle buttons.
func (p *Panel) drawSliders(pr *preset.Preset, x, y, w float32) float32 {
	rl.DrawText("Parameters", int32(x), int32(y), 14, rl.RayWhite)
	y += rowH

	sliderW := w - 3*(rowH-2) - 8
	for _, q := range preset.AllParams() {
		min, max := pr.RangeFor(q)
		v := float32(pr.Values[q])
		v = gui.SliderBar(
			rl.NewRectangle(x, y, sliderW, rowH-4),
			"", fmt.Sprintf("%s %.3f", q.Label(), v),
			v, float32(min), float32(max))
		pr.Values[q] = float64(v)

		bx := x + sliderW + 4
		p.sweepButton(pr, pr.XSweeps, q, bx, y, "X")
		p.sweepButton(pr, pr.YSweeps, q, bx+rowH-2, y, "Y")
		p.sweepButton(pr, pr.CohortSweeps, q, bx+2*(rowH-2), y, "C")
		y += rowH
	}

	pr.SweepsEnabled = gui.CheckBox(
		rl.NewRectangle(x, y, 14, 14), "sweeps", pr.SweepsEnabled)
	y += rowH
	return y
}

// sweepButton cycles one parameter's sweep mode on one axis:
// off -> normal -> inverse -> off. Enabling clears the axis for every
// other parameter.
func (p *Panel) sweepButton(pr *preset.Preset, axis preset.Sweeps, q preset.Param, x, y float32, tag string) {
	label := tag
	switch axis[q] {
	case preset.SweepNormal:
		label = tag + "+"
	case preset.SweepInverse:
		label = tag + "-"
	}
	if gui.Button(rl.NewRectangle(x, y, rowH-4, rowH-4), label) {
		var next preset.SweepMode
		switch axis[q] {
		case preset.SweepOff:
			next = preset.SweepNormal
		case preset.SweepNormal:
			next = preset.SweepInverse
		default:
			next = preset.SweepOff
		}
		preset.SetSweep(axis, q, next)
	}
}

func (p *Panel) drawModes(st *sim.State, x, y, w float32) float32 {
	pr := st.Preset
	half := (w - 4) / 2

	if gui.Button(rl.NewRectangle(x, y, half, rowH-4), "Bounds: "+boundaryLabel(pr.Boundary)) {
		pr.Boundary = (pr.Boundary + 1) % 3
	}
	if gui.Button(rl.NewRectangle(x+half+4, y, half, rowH-4), "Spawn: "+initialLabel(pr.Initial)) {
		pr.Initial = (pr.Initial + 1) % 3
	}
	y += rowH

	if gui.Button(rl.NewRectangle(x, y, half, rowH-4), "Orient: "+orientationLabel(pr.Orientation)) {
		pr.Orientation = (pr.Orientation + 1) % 3
	}
	cohorts := gui.SliderBar(
		rl.NewRectangle(x+half+4, y, half, rowH-4),
		"", fmt.Sprintf("cohorts %d", pr.NumCohorts),
		float32(pr.NumCohorts), preset.MinCohorts, preset.MaxCohorts)
	pr.NumCohorts = int(cohorts)
	y += rowH

	pr.DisableSymmetry = gui.CheckBox(rl.NewRectangle(x, y, 14, 14), "no symmetry", pr.DisableSymmetry)
	pr.ColorByCohort = gui.CheckBox(rl.NewRectangle(x+half+4, y, 14, 14), "cohort color", pr.ColorByCohort)
	y += rowH

	pr.Watercolor = gui.CheckBox(rl.NewRectangle(x, y, 14, 14), "watercolor", pr.Watercolor)
	st.DrawMode = gui.CheckBox(rl.NewRectangle(x+half+4, y, 14, 14), "draw mode", st.DrawMode)
	y += rowH
	return y
}

func (p *Panel) drawRuleControls(st *sim.State, x, y, w float32, intent *Intent) float32 {
	rl.DrawText("Rule", int32(x), int32(y), 14, rl.RayWhite)
	y += rowH

	p.ruleSeed = gui.SliderBar(
		rl.NewRectangle(x, y, w, rowH-4),
		"", fmt.Sprintf("seed %.3f", p.ruleSeed),
		p.ruleSeed, 0, 1)
	intent.PreviewSeed = float64(p.ruleSeed)
	y += rowH

	third := (w - 8) / 3
	if gui.Button(rl.NewRectangle(x, y, third, rowH-4), "Apply") {
		intent.NewRule = true
	}
	if gui.Button(rl.NewRectangle(x+third+4, y, third, rowH-4), "Undo") {
		intent.UndoRule = true
	}
	if gui.Button(rl.NewRectangle(x+2*(third+4), y, third, rowH-4), "Zero") {
		intent.ZeroRule = true
	}
	y += rowH
	return y
}

func (p *Panel) drawMultiLoad(st *sim.State, reg *multiload.Registry, x, y, w float32, intent *Intent) float32 {
	rl.DrawText(fmt.Sprintf("Multi-load (%d/%d)", reg.Count(), multiload.MaxConfigs),
		int32(x), int32(y), 14, rl.RayWhite)
	y += rowH

	st.MultiLoad = gui.CheckBox(rl.NewRectangle(x, y, 14, 14), "enabled", st.MultiLoad)
	if gui.Button(rl.NewRectangle(x+w/2, y, w/2, rowH-4), "Add current") {
		intent.AddMultiLoad = true
	}
	y += rowH

	if reg.Count() > 0 {
		reg.SimultaneousConfigs = float64(gui.SliderBar(
			rl.NewRectangle(x, y, w, rowH-4),
			"", fmt.Sprintf("window %.2f", reg.SimultaneousConfigs),
			float32(reg.SimultaneousConfigs), 1, float32(reg.Count())))
		y += rowH

		reg.ProgressionPace = float64(gui.SliderBar(
			rl.NewRectangle(x, y, w, rowH-4),
			"", fmt.Sprintf("pace %.2f", reg.ProgressionPace),
			float32(reg.ProgressionPace), 0, 10))
		y += rowH

		random := gui.CheckBox(rl.NewRectangle(x, y, 14, 14), "random assign",
			reg.Assignment == multiload.AssignRandom)
		reg.Assignment = multiload.AssignByCohort
		if random {
			reg.Assignment = multiload.AssignRandom
		}
		y += rowH

		reg.PerConfigInitial = gui.CheckBox(rl.NewRectangle(x, y, 14, 14),
			"per-config initial", reg.PerConfigInitial)
		y += rowH
		reg.PerConfigCohorts = gui.CheckBox(rl.NewRectangle(x, y, 14, 14),
			"per-config cohorts", reg.PerConfigCohorts)
		y += rowH
		reg.PerConfigHazardRate = gui.CheckBox(rl.NewRectangle(x, y, 14, 14),
			"per-config hazard", reg.PerConfigHazardRate)
		y += rowH

		for i := 0; i < reg.Count(); i++ {
			if gui.Button(rl.NewRectangle(x, y, 18, 18), "x") {
				intent.RemoveSlot = i
			}
			rl.DrawText(reg.NameAt(i), int32(x)+24, int32(y)+2, 12, rl.LightGray)
			y += rowH - 2
		}
	}
	return y + 4
}

func (p *Panel) drawPresetControls(x, y, w float32, intent *Intent) {
	third := (w - 8) / 3
	if gui.Button(rl.NewRectangle(x, y, third, rowH-4), "Save") {
		intent.SavePreset = true
	}
	if gui.Button(rl.NewRectangle(x+third+4, y, third, rowH-4), "Copy") {
		intent.CopyPreset = true
	}
	if gui.Button(rl.NewRectangle(x+2*(third+4), y, third, rowH-4), "Paste") {
		intent.PastePreset = true
	}
}

func boundaryLabel(m preset.BoundaryMode) string {
	switch m {
	case preset.BoundaryReset:
		return "reset"
	case preset.BoundaryWrap:
		return "wrap"
	default:
		return "bounce"
	}
}

func initialLabel(m preset.InitialMode) string {
	switch m {
	case preset.InitialRandom:
		return "random"
	case preset.InitialRing:
		return "ring"
	default:
		return "grid"
	}
}

func orientationLabel(m preset.OrientationMode) string {
	switch m {
	case preset.OrientationYAxis:
		return "y-axis"
	case preset.OrientationRadial:
		return "radial"
	default:
		return "off"
	}
}
