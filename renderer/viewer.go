package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/camera"
	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/registry"
	"github.com/pthm-cable/evogrid/world"
)

const (
	maxStepsPerFrame = 50
	maxViewportW     = 1280
	maxViewportH     = 900
	zoomStep         = 1.1
)

// ViewerParams is the viewer callback block.
type ViewerParams struct {
	CellSize      int `yaml:"cell_size"`
	FPS           int `yaml:"fps"`
	StepsPerFrame int `yaml:"steps_per_frame"`
}

// DefaultViewerParams returns the parameters used for omitted keys.
func DefaultViewerParams() ViewerParams {
	return ViewerParams{CellSize: 10, FPS: 30, StepsPerFrame: 1}
}

// Viewer is an observer that draws the world after every steps_per_frame
// steps. Space pauses, the right arrow advances one step while paused, the
// mouse wheel zooms, right-drag pans and R resets the view. Closing the
// window cancels the run at the next generation boundary.
type Viewer struct {
	evolution.Base

	theme  Theme
	params ViewerParams
	cancel context.CancelFunc
	logger *slog.Logger

	cam          *camera.Camera
	gridW, gridH int32 // viewport pixels
	open         bool
	paused       bool
	stepOnce     bool

	generation int
	step       int
	report     *evolution.GenerationReport
}

// NewViewerObserver is the registry factory for the viewer callback. It
// returns no observer in headless mode.
func NewViewerObserver(env registry.Env, name string, block config.Strategy) (evolution.Observer, error) {
	if env.Headless {
		return nil, nil
	}
	p := DefaultViewerParams()
	if err := block.Decode(&p); err != nil {
		return nil, err
	}
	base := evolution.Base{ObserverName: name, ObserverPriority: block.Priority()}
	return NewViewer(base, env.Config.WorldWidth, env.Config.WorldHeight, p, env.Cancel, env.Logger)
}

// NewViewer opens the window. It must be called from the main goroutine.
func NewViewer(base evolution.Base, width, height int, p ViewerParams, cancel context.CancelFunc, logger *slog.Logger) (*Viewer, error) {
	if p.CellSize < 1 || p.FPS < 1 || p.StepsPerFrame < 1 {
		return nil, fmt.Errorf("%w: viewer cell_size, fps and steps_per_frame must be positive", config.ErrInvalid)
	}
	if logger == nil {
		logger = slog.Default()
	}
	v := &Viewer{
		Base:   base,
		theme:  DefaultTheme(),
		params: p,
		cancel: cancel,
		logger: logger,
		gridW:  int32(min(width*p.CellSize, maxViewportW)),
		gridH:  int32(min(height*p.CellSize, maxViewportH)),
	}
	v.cam = camera.New(float32(v.gridW), float32(v.gridH), width, height, float32(p.CellSize))

	rl.InitWindow(v.gridW+v.theme.PanelWidth, max(v.gridH, 360), "evogrid")
	rl.SetTargetFPS(int32(p.FPS))
	v.open = true
	return v, nil
}

func (v *Viewer) OnStepFinish(gen int, w world.View) map[string]float64 {
	v.generation = gen
	v.step++
	if !v.open {
		return nil
	}
	if v.paused || v.step%v.params.StepsPerFrame == 0 {
		v.frame(w)
	}
	for v.open && v.paused && !v.stepOnce {
		v.frame(w)
	}
	v.stepOnce = false
	return nil
}

func (v *Viewer) OnGenerationFinish(gen int, report *evolution.GenerationReport, w world.View) error {
	v.generation = gen + 1
	v.step = 0
	v.report = report
	if v.open {
		v.frame(w)
	}
	return nil
}

// frame handles input and draws one frame.
func (v *Viewer) frame(w world.View) {
	if rl.WindowShouldClose() {
		v.shutdown()
		return
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if v.paused && rl.IsKeyPressed(rl.KeyRight) {
		v.stepOnce = true
	}
	v.handleCamera()

	rl.BeginDrawing()
	rl.ClearBackground(v.theme.Background)
	v.drawGrid(w)
	v.drawPanel(w)
	rl.EndDrawing()
}

func (v *Viewer) handleCamera() {
	mouse := rl.GetMousePosition()
	inGrid := mouse.X < float32(v.gridW) && mouse.Y < float32(v.gridH)
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && inGrid {
		v.cam.ZoomAt(float32(math.Pow(zoomStep, float64(wheel))), mouse.X, mouse.Y)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.cam.Reset()
	}
}

func (v *Viewer) drawGrid(w world.View) {
	rl.BeginScissorMode(0, 0, v.gridW, v.gridH)
	defer rl.EndScissorMode()

	x0, y0, x1, y1 := v.cam.VisibleCells()
	size := v.cam.Scale()
	inset := float32(0)
	if size > 3 {
		inset = 1
	}
	cell := func(x, y int, in float32, col rl.Color) {
		sx, sy := v.cam.WorldToScreen(float32(x), float32(y))
		rl.DrawRectangleRec(rl.Rectangle{X: sx + in, Y: sy + in, Width: size - 2*in, Height: size - 2*in}, col)
	}

	// Grid background, then barriers and organisms on top.
	sx0, sy0 := v.cam.WorldToScreen(0, 0)
	rl.DrawRectangleRec(rl.Rectangle{X: sx0, Y: sy0, Width: float32(w.Width()) * size, Height: float32(w.Height()) * size}, v.theme.GridLine)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if w.Cell(x, y).Kind == world.CellBarrier {
				cell(x, y, 0, v.theme.Barrier)
			}
		}
	}
	for _, m := range w.Members() {
		if p := m.Position; p.X >= x0 && p.X < x1 && p.Y >= y0 && p.Y < y1 {
			cell(p.X, p.Y, inset, genomeColor(m.Organism.Genome))
		}
	}

	if x, y, ok := v.hovered(); ok {
		sx, sy := v.cam.WorldToScreen(float32(x), float32(y))
		rl.DrawRectangleLinesEx(rl.Rectangle{X: sx, Y: sy, Width: size, Height: size}, 1, v.theme.Header)
	}
}

// hovered returns the cell under the mouse.
func (v *Viewer) hovered() (x, y int, ok bool) {
	mouse := rl.GetMousePosition()
	return v.cam.CellAt(mouse.X, mouse.Y)
}

func (v *Viewer) drawPanel(w world.View) {
	t := v.theme
	x := v.gridW
	t.drawPanel(x, 0, t.PanelWidth, int32(rl.GetScreenHeight()))

	x += t.Padding
	width := t.PanelWidth - 2*t.Padding
	y := t.drawHeader(x, t.Padding, "Evolution")
	y = t.drawLabelValue(x, y, "Generation", fmt.Sprintf("%d", v.generation))
	y = t.drawLabelValue(x, y, "Step", fmt.Sprintf("%d", v.step))
	y = t.drawLabelValue(x, y, "Population", fmt.Sprintf("%d", w.Population()))
	y = t.drawLabelValue(x, y, "Free cells", fmt.Sprintf("%d", w.FreeCells()))
	if last := w.LastStep(); last.Attempts() > 0 {
		y = t.drawBar(x, y, "Blocked", float64(last.Blocked)/float64(last.Attempts()), width)
	}

	if r := v.report; r != nil {
		y += t.Padding
		y = t.drawHeader(x, y, fmt.Sprintf("Generation %d", r.Generation))
		y = t.drawBar(x, y, "Survival", r.SurvivalRate, width)
		y = t.drawLabelValue(x, y, "Survivors", fmt.Sprintf("%d / %d", r.SurvivingPopulation, r.InitialPopulation))
		y = t.drawLabelValue(x, y, "Diversity", fmt.Sprintf("%.3f", r.GeneDiversity))
	}

	if cx, cy, ok := v.hovered(); ok {
		y += t.Padding
		y = t.drawHeader(x, y, fmt.Sprintf("Cell (%d, %d)", cx, cy))
		c := w.Cell(cx, cy)
		y = t.drawLabelValue(x, y, "Kind", c.Kind.String())
		if c.Kind == world.CellOrganism {
			if org, ok := w.Organism(c.Entity); ok {
				y = t.drawLabelValue(x, y, "Organism", fmt.Sprintf("#%d", org.ID))
				y = t.drawLabelValue(x, y, "Lineage", fmt.Sprintf("%d generations", org.Generation))
			}
		}
	}

	y += t.Padding
	label := "Pause"
	if v.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: 100, Height: 26}, label) {
		v.paused = !v.paused
	}
	if v.paused && gui.Button(rl.Rectangle{X: float32(x + 110), Y: float32(y), Width: 100, Height: 26}, "Step") {
		v.stepOnce = true
	}
	y += 36

	rl.DrawText("Steps per frame", x, y, t.FontSize, t.Label)
	y += t.LineHeight
	spf := gui.SliderBar(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width - 40), Height: 16},
		"", "", float32(v.params.StepsPerFrame), 1, maxStepsPerFrame)
	v.params.StepsPerFrame = max(1, int(spf+0.5))
	rl.DrawText(fmt.Sprintf("%d", v.params.StepsPerFrame), x+width-32, y+2, t.FontSize, t.Value)
}

// shutdown closes the window and asks the driver to stop.
func (v *Viewer) shutdown() {
	if !v.open {
		return
	}
	v.open = false
	v.paused = false
	rl.CloseWindow()
	v.logger.Info("viewer closed, stopping after this generation")
	if v.cancel != nil {
		v.cancel()
	}
}

// Close closes the window if it is still open.
func (v *Viewer) Close() error {
	if v.open {
		v.open = false
		rl.CloseWindow()
	}
	return nil
}
