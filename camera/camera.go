// Package camera provides the 2D viewport over the canvas texture.
package camera

// Camera maps between screen pixels, canvas UV space [0,1]^2, and world
// coordinates [-1,1]^2. Picking and draw-mode stamping both go through
// this mapping, so it is the single source of truth for "what is under
// the cursor".
type Camera struct {
	// View center in canvas UV coordinates.
	U, V float32

	// Zoom level (1.0 = canvas fitted to the viewport's short side).
	Zoom float32

	// Viewport dimensions in pixels.
	ViewportW, ViewportH float32

	// Zoom constraints.
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the canvas at fit zoom.
func New(viewportW, viewportH float32) *Camera {
	return &Camera{
		U:         0.5,
		V:         0.5,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   0.25,
		MaxZoom:   16.0,
	}
}

// scale returns screen pixels per canvas UV unit at the current zoom.
func (c *Camera) scale() float32 {
	short := c.ViewportW
	if c.ViewportH < short {
		short = c.ViewportH
	}
	return short * c.Zoom
}

// ScreenToUV converts a screen position to canvas UV.
func (c *Camera) ScreenToUV(sx, sy float32) (u, v float32) {
	s := c.scale()
	u = c.U + (sx-c.ViewportW/2)/s
	v = c.V + (sy-c.ViewportH/2)/s
	return u, v
}

// UVToScreen converts canvas UV to a screen position.
func (c *Camera) UVToScreen(u, v float32) (sx, sy float32) {
	s := c.scale()
	sx = c.ViewportW/2 + (u-c.U)*s
	sy = c.ViewportH/2 + (v-c.V)*s
	return sx, sy
}

// ScreenToWorld converts a screen position to world coordinates in
// [-1,1]^2 (unclamped: positions outside the canvas map outside the
// range).
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	u, v := c.ScreenToUV(sx, sy)
	return u*2 - 1, v*2 - 1
}

// WorldToScreen converts world coordinates to a screen position.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	return c.UVToScreen((wx+1)/2, (wy+1)/2)
}

// OnCanvas reports whether a screen position falls inside the canvas.
func (c *Camera) OnCanvas(sx, sy float32) bool {
	u, v := c.ScreenToUV(sx, sy)
	return u >= 0 && u <= 1 && v >= 0 && v <= 1
}

// CanvasRect returns the canvas's screen-space origin and size.
func (c *Camera) CanvasRect() (x, y, size float32) {
	s := c.scale()
	x, y = c.UVToScreen(0, 0)
	return x, y, s
}

// Pan moves the view by a screen-pixel delta, keeping the center within
// the canvas.
func (c *Camera) Pan(dx, dy float32) {
	s := c.scale()
	c.U = clamp(c.U-dx/s, 0, 1)
	c.V = clamp(c.V-dy/s, 0, 1)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomAt zooms by a factor while keeping the canvas point under the
// given screen position fixed, the scroll-wheel-at-cursor behavior.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	u0, v0 := c.ScreenToUV(sx, sy)
	c.SetZoom(c.Zoom * factor)
	u1, v1 := c.ScreenToUV(sx, sy)
	c.U = clamp(c.U+(u0-u1), 0, 1)
	c.V = clamp(c.V+(v0-v1), 0, 1)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset recenters the view at fit zoom.
func (c *Camera) Reset() {
	c.U, c.V = 0.5, 0.5
	c.Zoom = 1.0
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
