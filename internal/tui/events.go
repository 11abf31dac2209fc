package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const maxEvents = 200

// Event is a single line of the event log.
type Event struct {
	Time    time.Time
	Kind    string // "ws", "status", "link", "err"
	Message string
}

// EventLog is a capped list of recent events, newest last.
type EventLog struct {
	Events []Event
}

// Add appends an event and caps the buffer.
func (l *EventLog) Add(kind, message string) {
	l.Events = append(l.Events, Event{Time: time.Now(), Kind: kind, Message: message})
	if len(l.Events) > maxEvents {
		l.Events = l.Events[len(l.Events)-maxEvents:]
	}
}

// View renders the last n events.
func (l EventLog) View(n int) string {
	if len(l.Events) == 0 {
		return StyleDimmed.Render("  No events yet")
	}
	start := 0
	if len(l.Events) > n {
		start = len(l.Events) - n
	}

	var lines []string
	for _, e := range l.Events[start:] {
		color := ColorDimmed
		if e.Kind == "err" {
			color = ColorDanger
		}
		kind := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%-6s", e.Kind))
		lines = append(lines, fmt.Sprintf("  %s %s %s", StyleDimmed.Render(e.Time.Format("15:04:05")), kind, e.Message))
	}
	return strings.Join(lines, "\n")
}
