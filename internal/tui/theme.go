package tui

import (
	"github.com/agent-racer/netwatch/internal/status"
	"github.com/charmbracelet/lipgloss"
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

var (
	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)
)

// StatusColor returns the color for a connectivity status.
func StatusColor(s status.ConnectionStatus) lipgloss.Color {
	switch s {
	case status.Connected:
		return ColorHealthy
	case status.Disconnected:
		return ColorDanger
	default:
		return ColorWarning
	}
}

// StatusGlyph returns a glyph for a connectivity status.
func StatusGlyph(s status.ConnectionStatus) string {
	switch s {
	case status.Connected:
		return "●"
	case status.Disconnected:
		return "✗"
	default:
		return "?"
	}
}
