// Package camera maps a bounded cell grid onto a viewport with pan and
// zoom.
package camera

import "math"

// Camera controls the viewport into the grid. Positions are in cell units;
// one cell spans CellSize*Zoom pixels.
type Camera struct {
	// Position is the camera center in cell coordinates
	X, Y float32

	// Zoom level (1.0 = CellSize pixels per cell)
	Zoom float32

	// Viewport dimensions in pixels
	ViewportW, ViewportH float32

	// Grid dimensions in cells
	GridW, GridH float32

	CellSize float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the grid at zoom 1.
func New(viewportW, viewportH float32, gridW, gridH int, cellSize float32) *Camera {
	c := &Camera{
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		GridW:     float32(gridW),
		GridH:     float32(gridH),
		CellSize:  cellSize,
		MinZoom:   0.25,
		MaxZoom:   8.0,
	}
	c.Reset()
	return c
}

// Scale is the number of pixels one cell spans.
func (c *Camera) Scale() float32 {
	return c.CellSize * c.Zoom
}

// WorldToScreen converts cell coordinates to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Scale()
	sy = c.ViewportH/2 + (wy-c.Y)*c.Scale()
	return sx, sy
}

// ScreenToWorld converts screen pixels to cell coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Scale()
	wy = c.Y + (sy-c.ViewportH/2)/c.Scale()
	return wx, wy
}

// CellAt returns the grid cell under a screen point, if any.
func (c *Camera) CellAt(sx, sy float32) (x, y int, ok bool) {
	if sx < 0 || sy < 0 || sx >= c.ViewportW || sy >= c.ViewportH {
		return 0, 0, false
	}
	wx, wy := c.ScreenToWorld(sx, sy)
	x, y = int(math.Floor(float64(wx))), int(math.Floor(float64(wy)))
	if x < 0 || y < 0 || x >= int(c.GridW) || y >= int(c.GridH) {
		return 0, 0, false
	}
	return x, y, true
}

// VisibleCells returns the half-open range of cells that intersect the
// viewport, clipped to the grid.
func (c *Camera) VisibleCells() (x0, y0, x1, y1 int) {
	minX, minY := c.ScreenToWorld(0, 0)
	maxX, maxY := c.ScreenToWorld(c.ViewportW, c.ViewportH)
	x0 = max(0, int(math.Floor(float64(minX))))
	y0 = max(0, int(math.Floor(float64(minY))))
	x1 = min(int(c.GridW), int(math.Ceil(float64(maxX))))
	y1 = min(int(c.GridH), int(math.Ceil(float64(maxY))))
	return x0, y0, x1, y1
}

// Pan moves the camera by the given delta in screen pixels. The view
// cannot leave the grid.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Scale()
	c.Y += dy / c.Scale()
	c.constrain()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.constrain()
}

// ZoomAt multiplies the zoom by factor, keeping the cell under the screen
// point (sx, sy) in place.
func (c *Camera) ZoomAt(factor, sx, sy float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X += wx - nx
	c.Y += wy - ny
	c.constrain()
}

// Resize updates the viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.constrain()
}

// Reset returns the camera to the grid center at zoom 1.
func (c *Camera) Reset() {
	c.X = c.GridW / 2
	c.Y = c.GridH / 2
	c.Zoom = 1.0
}

// constrain keeps the camera center where the viewport still shows grid.
// An axis narrower than the viewport stays centered.
func (c *Camera) constrain() {
	c.X = constrainAxis(c.X, c.GridW, c.ViewportW/(2*c.Scale()))
	c.Y = constrainAxis(c.Y, c.GridH, c.ViewportH/(2*c.Scale()))
}

func constrainAxis(pos, size, half float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(pos, half, size-half)
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
