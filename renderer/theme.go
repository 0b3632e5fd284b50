// Package renderer draws a running world in a raylib window. It is only
// used by the graphical runner; headless runs never open a window.
package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evogrid/neural"
)

// Theme holds the viewer's colors and metrics.
type Theme struct {
	Background  rl.Color
	GridLine    rl.Color
	Barrier     rl.Color
	PanelBg     rl.Color
	PanelBorder rl.Color
	Header      rl.Color
	Label       rl.Color
	Value       rl.Color
	BarBg       rl.Color
	BarFill     rl.Color

	Padding    int32
	LineHeight int32
	LabelWidth int32
	BarHeight  int32
	FontSize   int32
	HeaderSize int32
	PanelWidth int32
}

// DefaultTheme returns the dark viewer theme.
func DefaultTheme() Theme {
	return Theme{
		Background:  rl.Color{R: 12, G: 14, B: 18, A: 255},
		GridLine:    rl.Color{R: 28, G: 32, B: 38, A: 255},
		Barrier:     rl.Color{R: 90, G: 90, B: 96, A: 255},
		PanelBg:     rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder: rl.Color{R: 60, G: 70, B: 80, A: 255},
		Header:      rl.Yellow,
		Label:       rl.LightGray,
		Value:       rl.RayWhite,
		BarBg:       rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:     rl.Color{R: 100, G: 150, B: 200, A: 255},
		Padding:     10,
		LineHeight:  18,
		LabelWidth:  90,
		BarHeight:   12,
		FontSize:    12,
		HeaderSize:  16,
		PanelWidth:  240,
	}
}

// genomeColor maps the first three genes to a color so that related
// organisms look alike.
func genomeColor(g neural.Genome) rl.Color {
	var c [3]uint8
	for i := range c {
		v := 0.0
		if i < len(g) {
			v = (g[i] - neural.GeneMin) / (neural.GeneMax - neural.GeneMin)
		}
		c[i] = uint8(60 + min(max(v, 0), 1)*195)
	}
	return rl.Color{R: c[0], G: c[1], B: c[2], A: 255}
}

func (t Theme) drawPanel(x, y, w, h int32) {
	rl.DrawRectangle(x, y, w, h, t.PanelBg)
	rl.DrawRectangleLines(x, y, w, h, t.PanelBorder)
}

func (t Theme) drawHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, t.HeaderSize, t.Header)
	return y + t.LineHeight + 4
}

func (t Theme) drawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, t.FontSize, t.Label)
	rl.DrawText(value, x+t.LabelWidth, y, t.FontSize, t.Value)
	return y + t.LineHeight
}

// drawBar draws a [0, 1] bar with its value.
func (t Theme) drawBar(x, y int32, label string, value float64, width int32) int32 {
	value = min(max(value, 0), 1)
	barX := x + t.LabelWidth
	barW := width - t.LabelWidth - 40

	rl.DrawText(label+":", x, y, t.FontSize, t.Label)
	rl.DrawRectangle(barX, y+2, barW, t.BarHeight, t.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float64(barW)*value), t.BarHeight, t.BarFill)
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barW+5, y, t.FontSize, t.Value)
	return y + t.LineHeight + 2
}
