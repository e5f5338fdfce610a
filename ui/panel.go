// Package ui renders the tuning overlay: quality preset buttons and the
// target fps slider. Everything here acts directly on the controller; the
// panel keeps no state beyond visibility.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/filament/quality"
)

// Panel layout.
const (
	panelX      = 10
	panelY      = 110
	panelWidth  = 220
	rowHeight   = 28
	rowSpacing  = 6
	buttonWidth = (panelWidth - 3*rowSpacing) / 4
)

// Panel is the quality tuning overlay.
type Panel struct {
	visible bool
}

// NewPanel creates a hidden panel.
func NewPanel() *Panel {
	return &Panel{}
}

// Toggle switches panel visibility and returns the new state.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Visible reports whether the panel is shown.
func (p *Panel) Visible() bool {
	return p.visible
}

// Draw renders the panel and applies any interaction to the controller.
// Call inside rl.BeginDrawing.
func (p *Panel) Draw(c *quality.Controller) {
	if !p.visible {
		return
	}

	y := float32(panelY)

	rl.DrawRectangle(panelX-4, panelY-4, panelWidth+8, 2*rowHeight+3*rowSpacing+28, rl.Color{R: 0, G: 0, B: 0, A: 160})
	rl.DrawText("quality", panelX, int32(y), 10, rl.Gray)
	y += 14

	presets := []struct {
		label string
		level quality.Level
	}{
		{"min", quality.LevelMinimal},
		{"low", quality.LevelLow},
		{"med", quality.LevelMedium},
		{"high", quality.LevelHigh},
	}
	for i, preset := range presets {
		x := float32(panelX + i*(buttonWidth+rowSpacing))
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: buttonWidth, Height: rowHeight}, preset.label) {
			c.SetLevel(preset.level)
		}
	}
	y += rowHeight + rowSpacing

	target := float32(c.Limits().TargetFPS)
	newTarget := gui.SliderBar(
		rl.Rectangle{X: panelX + 30, Y: y, Width: panelWidth - 70, Height: rowHeight - 8},
		"30",
		fmt.Sprintf("%.0f", target),
		target,
		30,
		144,
	)
	if newTarget != target {
		// Validated: the slider range keeps it positive.
		_ = c.SetTargetFPS(float64(newTarget))
	}
}
