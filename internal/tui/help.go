package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# netwatch

The server derives a connectivity status from the outcome of its HTTP
requests.

| Status | Meaning |
|---|---|
| **connected** | the last request reached a server, even if it failed |
| **disconnected** | the last request could not reach any server |
| **unknown** | nothing has been observed yet |

The *link* in the status bar is the same signal for this terminal's own
requests to the server.

## Keys

- ` + "`r`" + ` refresh the server snapshot
- ` + "`x`" + ` reset the server status to unknown
- ` + "`l`" + ` toggle server diagnostics logging
- ` + "`?`" + ` toggle this help
- ` + "`q`" + ` quit
`

// renderHelp renders the help overlay for the given width. It falls back to
// the raw markdown when rendering fails.
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
