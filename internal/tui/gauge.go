package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	gaugeWindow = 50
	gaugeFPS    = 30
)

// Gauge shows the share of recent stream elements that were connected. The
// bar eases towards its target with a spring.
type Gauge struct {
	spring  harmonica.Spring
	samples []bool
	pos     float64
	vel     float64
	target  float64
}

func NewGauge() Gauge {
	return Gauge{spring: harmonica.NewSpring(harmonica.FPS(gaugeFPS), 6.0, 0.7)}
}

// Record adds one sample and retargets the bar.
func (g *Gauge) Record(connected bool) {
	g.samples = append(g.samples, connected)
	if len(g.samples) > gaugeWindow {
		g.samples = g.samples[len(g.samples)-gaugeWindow:]
	}
	up := 0
	for _, s := range g.samples {
		if s {
			up++
		}
	}
	g.target = float64(up) / float64(len(g.samples))
}

// Ratio is the unanimated share of connected samples.
func (g Gauge) Ratio() float64 { return g.target }

// Step advances the animation one frame. It reports whether the bar is
// still moving.
func (g *Gauge) Step() bool {
	g.pos, g.vel = g.spring.Update(g.pos, g.vel, g.target)
	if abs(g.pos-g.target) < 0.001 && abs(g.vel) < 0.001 {
		g.pos, g.vel = g.target, 0
		return false
	}
	return true
}

func (g Gauge) View(width int) string {
	if len(g.samples) == 0 {
		return StyleDimmed.Render("  availability  no samples")
	}
	barWidth := width - 30
	if barWidth < 10 {
		barWidth = 10
	}
	pos := g.pos
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	filled := int(pos*float64(barWidth) + 0.5)

	color := ColorHealthy
	switch {
	case g.target < 0.5:
		color = ColorDanger
	case g.target < 0.9:
		color = ColorWarning
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		StyleDimmed.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("  availability  %s %3.0f%%", bar, g.target*100)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
