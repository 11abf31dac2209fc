package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/gorilla/websocket"
)

// dialTestWS creates a test HTTP server that upgrades to WebSocket and returns
// the server-side connection plus the client side. The caller must close the
// server and both connections.
func dialTestWS(t *testing.T) (*httptest.Server, *websocket.Conn, *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		connCh <- c
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}

	select {
	case serverConn := <-connCh:
		return srv, serverConn, clientConn
	case <-time.After(2 * time.Second):
		srv.Close()
		t.Fatal("timed out waiting for server-side WebSocket connection")
		return nil, nil, nil
	}
}

func newTestHub(t *testing.T, maxConns int) (*Hub, *broadcast.Broadcaster) {
	t.Helper()
	b := broadcast.New(broadcast.WithLogging(false))
	h := NewHub(b, HubOptions{MaxConns: maxConns, PingInterval: time.Hour, WriteTimeout: time.Second})
	t.Cleanup(func() {
		h.Close()
		b.Shutdown()
	})
	return h, b
}

func TestAddClient_MaxConnections(t *testing.T) {
	const maxConns = 2
	h, _ := newTestHub(t, maxConns)

	for i := 0; i < maxConns; i++ {
		srv, serverConn, clientConn := dialTestWS(t)
		defer srv.Close()
		defer clientConn.Close()

		if _, err := h.AddClient(serverConn, ModeChanges); err != nil {
			t.Fatalf("AddClient[%d]: unexpected error: %v", i, err)
		}
	}

	if got := h.ClientCount(); got != maxConns {
		t.Fatalf("expected %d clients, got %d", maxConns, got)
	}

	srv, serverConn, clientConn := dialTestWS(t)
	defer srv.Close()
	defer clientConn.Close()
	defer serverConn.Close()

	if _, err := h.AddClient(serverConn, ModeAll); !errors.Is(err, ErrTooManyConnections) {
		t.Fatalf("expected ErrTooManyConnections, got %v", err)
	}
}

func TestAddClient_AfterShutdown(t *testing.T) {
	h, b := newTestHub(t, 0)
	b.Shutdown()

	srv, serverConn, clientConn := dialTestWS(t)
	defer srv.Close()
	defer clientConn.Close()
	defer serverConn.Close()

	if _, err := h.AddClient(serverConn, ModeAll); !errors.Is(err, broadcast.ErrShutdown) {
		t.Fatalf("expected ErrShutdown, got %v", err)
	}
	if h.ClientCount() != 0 {
		t.Error("rejected client must not be registered")
	}
}

// TestWritePump_RemovesClientOnWriteError verifies that a write failure
// removes the dead client and releases its subscription.
func TestWritePump_RemovesClientOnWriteError(t *testing.T) {
	h, b := newTestHub(t, 0)
	srv, serverConn, clientConn := dialTestWS(t)
	defer srv.Close()
	defer clientConn.Close()

	// Close the server side first so the replayed status cannot be written.
	serverConn.Close()

	if _, err := h.AddClient(serverConn, ModeAll); err != nil {
		t.Fatalf("AddClient: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == 0 && b.SubscriberCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("client not removed after write error; ClientCount = %d, subscribers = %d",
		h.ClientCount(), b.SubscriberCount())
}

func TestHubClose(t *testing.T) {
	h, b := newTestHub(t, 0)
	srv, serverConn, clientConn := dialTestWS(t)
	defer srv.Close()
	defer clientConn.Close()

	if _, err := h.AddClient(serverConn, ModeChanges); err != nil {
		t.Fatal(err)
	}
	h.Close()

	if h.ClientCount() != 0 {
		t.Errorf("ClientCount after Close = %d", h.ClientCount())
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount after Close = %d", b.SubscriberCount())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"", ModeChanges, true},
		{"changes", ModeChanges, true},
		{"all", ModeAll, true},
		{"ALL", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
