package camera

import (
	"math"
	"testing"
)

// 64x48 cell viewport onto a 128x96 grid at 10px per cell.
func newTestCamera() *Camera {
	return New(640, 480, 128, 96, 10)
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestNew(t *testing.T) {
	cam := newTestCamera()

	if cam.X != 64 || cam.Y != 48 {
		t.Errorf("expected camera at (64, 48), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 || cam.Scale() != 10 {
		t.Errorf("expected zoom 1 and scale 10, got %f and %f", cam.Zoom, cam.Scale())
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := newTestCamera()

	sx, sy := cam.WorldToScreen(64, 48)
	if !near(sx, 320) || !near(sy, 240) {
		t.Errorf("expected screen center (320, 240), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(2.5)

	testCases := []struct{ sx, sy float32 }{
		{320, 240}, // center
		{10, 10},   // top-left
		{600, 450}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestCellAt(t *testing.T) {
	cam := newTestCamera()

	tests := []struct {
		name   string
		sx, sy float32
		x, y   int
		ok     bool
	}{
		{"center", 320, 240, 64, 48, true},
		{"inside cell", 329, 249, 64, 48, true},
		{"top-left pixel", 0, 0, 32, 24, true},
		{"left of viewport", -1, 200, 0, 0, false},
		{"below viewport", 100, 480, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := cam.CellAt(tt.sx, tt.sy)
			if ok != tt.ok || x != tt.x || y != tt.y {
				t.Errorf("CellAt(%v, %v) = (%d, %d, %v), want (%d, %d, %v)",
					tt.sx, tt.sy, x, y, ok, tt.x, tt.y, tt.ok)
			}
		})
	}
}

func TestCellAtOffGrid(t *testing.T) {
	cam := New(640, 480, 10, 10, 10) // grid smaller than the viewport
	if _, _, ok := cam.CellAt(5, 5); ok {
		t.Error("pixel outside a small centered grid should not map to a cell")
	}
	if x, y, ok := cam.CellAt(320, 240); !ok || x != 5 || y != 5 {
		t.Errorf("CellAt(center) = (%d, %d, %v), want (5, 5, true)", x, y, ok)
	}
}

func TestVisibleCells(t *testing.T) {
	cam := newTestCamera()

	x0, y0, x1, y1 := cam.VisibleCells()
	if x0 != 32 || y0 != 24 || x1 != 96 || y1 != 72 {
		t.Errorf("VisibleCells = (%d,%d)-(%d,%d), want (32,24)-(96,72)", x0, y0, x1, y1)
	}

	cam.SetZoom(cam.MinZoom)
	x0, y0, x1, y1 = cam.VisibleCells()
	if x0 != 0 || y0 != 0 || x1 != 128 || y1 != 96 {
		t.Errorf("zoomed out VisibleCells = (%d,%d)-(%d,%d), want whole grid", x0, y0, x1, y1)
	}
}

func TestPanStopsAtEdges(t *testing.T) {
	cam := newTestCamera()

	cam.Pan(-10000, 0)
	if cam.X != 32 {
		t.Errorf("expected X clamped to half viewport 32, got %f", cam.X)
	}
	if cam.Y != 48 {
		t.Errorf("horizontal pan moved Y to %f", cam.Y)
	}

	cam.Pan(0, 10000)
	if cam.Y != 72 {
		t.Errorf("expected Y clamped to 96-24 = 72, got %f", cam.Y)
	}
}

func TestPanCentersSmallAxis(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(0.25) // whole grid fits

	cam.Pan(500, -500)
	if cam.X != 64 || cam.Y != 48 {
		t.Errorf("expected centered camera, got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := newTestCamera()
	wx, wy := cam.ScreenToWorld(100, 100)

	cam.ZoomAt(2, 100, 100)
	if cam.Zoom != 2 {
		t.Fatalf("zoom = %f, want 2", cam.Zoom)
	}
	nx, ny := cam.ScreenToWorld(100, 100)
	if !near(wx, nx) || !near(wy, ny) {
		t.Errorf("point moved from (%f,%f) to (%f,%f)", wx, wy, nx, ny)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := newTestCamera()

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestReset(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(3)
	cam.Pan(200, 200)

	cam.Reset()

	if cam.X != 64 || cam.Y != 48 {
		t.Errorf("expected position (64, 48), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
