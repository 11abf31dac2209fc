// Package tui is the terminal observer for a netwatch server. It follows the
// server's status stream and shows its own link health alongside it.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/status"
	"github.com/agent-racer/netwatch/internal/watch"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the root Bubble Tea model.
type Model struct {
	ws     *watch.WSClient
	http   *watch.HTTPClient
	link   *broadcast.Subscription
	ctx    context.Context
	cancel context.CancelFunc

	keys    KeyMap
	spinner spinner.Model
	width   int
	height  int

	// Stream state.
	connected bool
	shutdown  bool
	remote    status.ConnectionStatus
	seq       uint64

	// Last /api/status snapshot.
	lastChangeAt   *time.Time
	attached       bool
	loggingEnabled bool
	subscribers    int

	// Health of this observer's own requests.
	linkStatus status.ConnectionStatus

	gauge     Gauge
	animating bool
	showHelp  bool
	events    EventLog
}

// frameMsg advances the gauge animation.
type frameMsg struct{}

func animate() tea.Cmd {
	return tea.Tick(time.Second/gaugeFPS, func(time.Time) tea.Msg { return frameMsg{} })
}

// New creates the root model. link, when non-nil, is a subscription to the
// broadcaster observing ws and http.
func New(ws *watch.WSClient, http *watch.HTTPClient, link *broadcast.Subscription) Model {
	ctx, cancel := context.WithCancel(context.Background())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorWarning)
	return Model{
		ws:      ws,
		http:    http,
		link:    link,
		ctx:     ctx,
		cancel:  cancel,
		keys:    DefaultKeyMap(),
		spinner: sp,
		gauge:   NewGauge(),
	}
}

// Init starts the websocket connection and the link watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.ws.Listen(m.ctx), m.spinner.Tick}
	if m.link != nil {
		cmds = append(cmds, watch.WaitLink(m.link))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case frameMsg:
		m.animating = m.gauge.Step()
		if m.animating {
			return m, animate()
		}
		return m, nil

	case watch.ConnectedMsg:
		m.connected = true
		m.shutdown = false
		m.events.Add("ws", "connected")
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), m.http.FetchStatus(m.ctx))

	case watch.DisconnectedMsg:
		m.connected = false
		m.events.Add("ws", fmt.Sprintf("disconnected: %v", msg.Err))
		return m, m.ws.Listen(m.ctx)

	case watch.StatusMsg:
		if msg.Payload.Status != m.remote {
			at := msg.Payload.SentAt
			m.lastChangeAt = &at
		}
		m.remote = msg.Payload.Status
		m.seq = msg.Seq
		m.events.Add("status", msg.Payload.Status.String())

		cmds := []tea.Cmd{m.ws.ReadLoop(m.ctx)}
		if !msg.Payload.Status.IsUnknown() {
			m.gauge.Record(msg.Payload.Status.IsConnected())
			if !m.animating {
				m.animating = true
				cmds = append(cmds, animate())
			}
		}
		return m, tea.Batch(cmds...)

	case watch.ShutdownMsg:
		m.shutdown = true
		m.events.Add("ws", "server shutting down")
		return m, m.ws.ReadLoop(m.ctx)

	case watch.ErrorMsg:
		m.events.Add("err", msg.Message)
		return m, m.ws.ReadLoop(m.ctx)

	case watch.SnapshotMsg:
		if msg.Err != nil {
			m.events.Add("err", msg.Err.Error())
			return m, nil
		}
		s := msg.Snapshot
		m.remote = s.Status
		m.lastChangeAt = s.LastChangeAt
		m.attached = s.InterceptorAttached
		m.loggingEnabled = s.LoggingEnabled
		m.subscribers = s.Subscribers
		return m, nil

	case watch.ResetDoneMsg:
		if msg.Err != nil {
			m.events.Add("err", msg.Err.Error())
			return m, nil
		}
		m.events.Add("status", "server reset")
		return m, m.http.FetchStatus(m.ctx)

	case watch.LoggingMsg:
		if msg.Err != nil {
			m.events.Add("err", msg.Err.Error())
			return m, nil
		}
		m.loggingEnabled = msg.Enabled
		return m, nil

	case watch.LinkMsg:
		if msg.Closed {
			return m, nil
		}
		m.linkStatus = msg.Status
		m.events.Add("link", msg.Status.String())
		return m, watch.WaitLink(m.link)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.http.FetchStatus(m.ctx)

	case key.Matches(msg, m.keys.Reset):
		return m, m.http.ResetCmd(m.ctx)

	case key.Matches(msg, m.keys.Logging):
		return m, m.http.ToggleLoggingCmd(m.ctx, !m.loggingEnabled)
	}

	return m, nil
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		return renderHelp(m.width)
	}

	sections := []string{
		m.renderStatusBar(),
		m.renderRemote(),
		m.gauge.View(m.width),
		StyleHeader.Render("=== EVENTS"),
		m.events.View(m.eventRows()),
		StyleDimmed.Render("  r:refresh  x:reset  l:diagnostics  ?:help  q:quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) eventRows() int {
	// Status bar (3), remote block (5), gauge, header, help.
	rows := m.height - 11
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Model) renderStatusBar() string {
	width := m.width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case m.connected && m.shutdown:
		connStr = lipgloss.NewStyle().Foreground(ColorWarning).Render("◌ Server shutting down")
	case m.connected:
		connStr = lipgloss.NewStyle().Foreground(ColorHealthy).Render("● Streaming")
	default:
		connStr = lipgloss.NewStyle().Foreground(ColorDanger).Render("○ DISCONNECTED, Reconnecting...")
	}

	linkStr := lipgloss.NewStyle().Foreground(StatusColor(m.linkStatus)).
		Render(fmt.Sprintf("link: %s", m.linkStatus))

	sep := lipgloss.NewStyle().Foreground(ColorBorder).Render(" | ")
	content := connStr + sep + linkStr + sep + fmt.Sprintf("seq %d", m.seq)

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(ColorBorder).
		Render(content)
}

func (m Model) renderRemote() string {
	glyph := StatusGlyph(m.remote)
	if m.remote.IsUnknown() {
		glyph = m.spinner.View()
	}
	statusLine := lipgloss.NewStyle().Bold(true).Foreground(StatusColor(m.remote)).
		Render(fmt.Sprintf("%s %s", glyph, m.remote))

	changed := "never"
	if m.lastChangeAt != nil {
		changed = m.lastChangeAt.Local().Format("15:04:05")
	}

	lines := []string{
		StyleHeader.Render("=== SERVER CONNECTIVITY"),
		"  " + statusLine,
		fmt.Sprintf("  last change   %s", changed),
		fmt.Sprintf("  interceptor   %s", yesNo(m.attached)),
		fmt.Sprintf("  diagnostics   %s   subscribers %d", onOff(m.loggingEnabled), m.subscribers),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func yesNo(b bool) string {
	if b {
		return "attached"
	}
	return StyleDimmed.Render("not attached")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return StyleDimmed.Render("off")
}
