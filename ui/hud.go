package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/aphid91/Fluoddity-Core/camera"
	"github.com/aphid91/Fluoddity-Core/multiload"
	"github.com/aphid91/Fluoddity-Core/sim"
)

// DrawHUD renders the status line: tick, entity count, and the
// multi-load ring position when active.
func DrawHUD(s *sim.Stepper, st *sim.State, screenW, screenH int32) {
	txt := fmt.Sprintf("%d fps  tick %d  %d entities  %dpx",
		rl.GetFPS(), s.Tick(), s.EntityCount(), s.CanvasDim())
	if st.Paused {
		txt += "  [paused]"
	}
	rl.DrawText(txt, 10, screenH-24, 14, rl.RayWhite)

	if st.MultiLoad && s.Registry.Count() > 0 {
		drawRingBar(s.Registry, screenW, screenH)
	}
}

// drawRingBar shows each loaded preset's blend weight across the bottom.
func drawRingBar(reg *multiload.Registry, screenW, screenH int32) {
	weights := reg.Weights()
	n := int32(len(weights))
	if n == 0 {
		return
	}
	barW := (screenW - 20) / n
	y := screenH - 44
	for i, w := range weights {
		x := 10 + int32(i)*barW
		h := int32(w * 12)
		rl.DrawRectangle(x, y+12-h, barW-2, h, rl.NewColor(120, 180, 250, 220))
		rl.DrawRectangleLines(x, y, barW-2, 12, rl.Gray)
	}
}

// DrawReticle marks the world position where the swept field equals the
// slider values. Nothing is drawn when no spatial sweep is active.
func DrawReticle(cam *camera.Camera, st *sim.State) {
	wx, wy, ok := sim.Reticle(st.Preset)
	if !ok {
		return
	}
	sx, sy := cam.WorldToScreen(wx, wy)
	rl.DrawCircleLines(int32(sx), int32(sy), 6, rl.RayWhite)
	rl.DrawLine(int32(sx)-10, int32(sy), int32(sx)+10, int32(sy), rl.RayWhite)
	rl.DrawLine(int32(sx), int32(sy)-10, int32(sx), int32(sy)+10, rl.RayWhite)
}
