package watch

import (
	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/status"
	tea "github.com/charmbracelet/bubbletea"
)

// LinkMsg reports a change in the observer's own connectivity, as derived
// from its requests to the server.
type LinkMsg struct {
	Status status.ConnectionStatus
	Closed bool
}

// WaitLink returns a command that blocks for the next element of sub.
// Reissue it after every LinkMsg that is not Closed.
func WaitLink(sub *broadcast.Subscription) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-sub.Updates()
		if !ok {
			return LinkMsg{Closed: true}
		}
		return LinkMsg{Status: s}
	}
}
