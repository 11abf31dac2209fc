package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agent-racer/netwatch/internal/status"
	"github.com/agent-racer/netwatch/internal/watch"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel() Model {
	ws := watch.NewWSClient("ws://127.0.0.1:1/ws", "", nil, nil)
	http := watch.NewHTTPClient("http://127.0.0.1:1", "", nil)
	m := New(ws, http, nil)
	m.width = 80
	m.height = 24
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestDisconnectedView(t *testing.T) {
	m := newTestModel()

	v := m.View()
	if !strings.Contains(v, "DISCONNECTED") {
		t.Error("status bar should contain 'DISCONNECTED'")
	}
	if !strings.Contains(v, "Reconnecting") {
		t.Error("status bar should contain 'Reconnecting'")
	}
}

func TestInitializingView(t *testing.T) {
	m := New(nil, nil, nil)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before size = %q", got)
	}
}

func TestStatusStreamUpdatesModel(t *testing.T) {
	m := newTestModel()
	m = update(t, m, watch.ConnectedMsg{})
	if !m.connected {
		t.Fatal("expected connected after ConnectedMsg")
	}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m = update(t, m, watch.StatusMsg{Seq: 1, Payload: watch.StatusPayload{Status: status.Unknown, SentAt: at}})
	if m.lastChangeAt != nil {
		t.Error("replayed unknown is not a change")
	}

	m = update(t, m, watch.StatusMsg{Seq: 2, Payload: watch.StatusPayload{Status: status.Disconnected, SentAt: at}})
	if m.remote != status.Disconnected || m.seq != 2 {
		t.Fatalf("remote = %v seq = %d, want disconnected 2", m.remote, m.seq)
	}
	if m.lastChangeAt == nil || !m.lastChangeAt.Equal(at) {
		t.Errorf("lastChangeAt = %v, want %v", m.lastChangeAt, at)
	}

	later := at.Add(time.Minute)
	m = update(t, m, watch.StatusMsg{Seq: 3, Payload: watch.StatusPayload{Status: status.Disconnected, SentAt: later}})
	if !m.lastChangeAt.Equal(at) {
		t.Error("repeated status must not move lastChangeAt")
	}

	v := m.View()
	if !strings.Contains(v, "disconnected") {
		t.Error("view should show remote status")
	}
	if !strings.Contains(v, "Streaming") {
		t.Error("view should show the stream as live")
	}
}

func TestSnapshotAndLink(t *testing.T) {
	m := newTestModel()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m = update(t, m, watch.SnapshotMsg{Snapshot: &watch.Snapshot{
		Status:              status.Connected,
		LastChangeAt:        &at,
		InterceptorAttached: true,
		LoggingEnabled:      true,
		Subscribers:         3,
	}})
	if m.remote != status.Connected || !m.attached || !m.loggingEnabled || m.subscribers != 3 {
		t.Fatalf("snapshot not applied: %+v", m)
	}

	m = update(t, m, watch.LinkMsg{Status: status.Disconnected})
	if m.linkStatus != status.Disconnected {
		t.Errorf("linkStatus = %v", m.linkStatus)
	}
	if !strings.Contains(m.View(), "link: disconnected") {
		t.Error("view should show link status")
	}

	m = update(t, m, watch.LoggingMsg{Enabled: false})
	if m.loggingEnabled {
		t.Error("LoggingMsg should update diagnostics switch")
	}
}

func TestErrorsGoToEventLog(t *testing.T) {
	m := newTestModel()
	m = update(t, m, watch.SnapshotMsg{Err: errors.New("fetch failed")})
	m = update(t, m, watch.ErrorMsg{Message: "boom"})

	if len(m.events.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.events.Events))
	}
	for _, e := range m.events.Events {
		if e.Kind != "err" {
			t.Errorf("event kind = %q, want err", e.Kind)
		}
	}
}

func TestShutdownThenDisconnect(t *testing.T) {
	m := newTestModel()
	m = update(t, m, watch.ConnectedMsg{})
	m = update(t, m, watch.ShutdownMsg{})
	if !strings.Contains(m.View(), "shutting down") {
		t.Error("view should show server shutdown")
	}

	m = update(t, m, watch.DisconnectedMsg{Err: errors.New("closed")})
	if m.connected {
		t.Error("expected disconnected")
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit key should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should return tea.Quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quit should cancel the model context")
	}
}

func TestEventLogCap(t *testing.T) {
	var l EventLog
	for i := 0; i < maxEvents+50; i++ {
		l.Add("ws", "msg")
	}
	if len(l.Events) != maxEvents {
		t.Errorf("expected %d events, got %d", maxEvents, len(l.Events))
	}
	if got := strings.Count(l.View(5), "\n"); got != 4 {
		t.Errorf("View(5) rendered %d lines, want 5", got+1)
	}
}

func TestGaugeTracksStream(t *testing.T) {
	m := newTestModel()
	for i, s := range []status.ConnectionStatus{status.Unknown, status.Connected, status.Connected, status.Disconnected, status.Connected} {
		m = update(t, m, watch.StatusMsg{Seq: uint64(i + 1), Payload: watch.StatusPayload{Status: s}})
	}
	if got := m.gauge.Ratio(); got != 0.75 {
		t.Errorf("gauge ratio = %v, want 0.75 (unknown is not a sample)", got)
	}
	if !m.animating {
		t.Error("new samples should start the animation")
	}

	for i := 0; i < 10*gaugeFPS && m.animating; i++ {
		m = update(t, m, frameMsg{})
	}
	if m.animating {
		t.Fatal("gauge animation did not settle")
	}
	if m.gauge.pos != 0.75 {
		t.Errorf("settled position = %v, want 0.75", m.gauge.pos)
	}
	if !strings.Contains(m.View(), "75%") {
		t.Error("view should show availability percentage")
	}
}

func TestGaugeWindow(t *testing.T) {
	g := NewGauge()
	for i := 0; i < gaugeWindow; i++ {
		g.Record(false)
	}
	for i := 0; i < gaugeWindow; i++ {
		g.Record(true)
	}
	if g.Ratio() != 1 {
		t.Errorf("ratio = %v, want 1 once old samples fall out", g.Ratio())
	}
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.showHelp {
		t.Fatal("? should open help")
	}
	if !strings.Contains(m.View(), "disconnected") {
		t.Error("help should describe the statuses")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}
}
