package watch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agent-racer/netwatch/internal/interceptor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// WSClient manages the websocket connection to a netwatch server.
type WSClient struct {
	url     string
	token   string
	adapter *interceptor.Adapter
	logger  *slog.Logger

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes
	conn    *websocket.Conn
	seq     uint64
	delay   time.Duration
	pingCtx context.CancelFunc
}

// NewWSClient creates a client for the given websocket URL. Dial outcomes
// are reported through adapter when it is non-nil.
func NewWSClient(url, token string, adapter *interceptor.Adapter, logger *slog.Logger) *WSClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSClient{url: url, token: token, adapter: adapter, logger: logger, delay: reconnectBaseDelay}
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when the websocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// StatusMsg delivers one element of the remote status stream.
type StatusMsg struct {
	Seq     uint64
	Payload StatusPayload
}

// ShutdownMsg is sent when the server's broadcaster shuts down.
type ShutdownMsg struct{}

// ErrorMsg wraps a server-side error.
type ErrorMsg struct{ Message string }

// Listen returns a Bubble Tea command that connects, retrying with
// exponential backoff until it succeeds or ctx is done.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		for {
			if ctx.Err() != nil {
				return nil
			}

			conn, err := c.dial(ctx)
			if err != nil {
				c.mu.Lock()
				delay := c.delay
				c.delay = min(c.delay*2, reconnectMaxDelay)
				c.mu.Unlock()

				c.logger.Debug("ws dial error", "err", err, "retry_in", delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				continue
			}

			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.seq = 0
			c.delay = reconnectBaseDelay
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return ConnectedMsg{}
		}
	}
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if c.adapter != nil && ctx.Err() == nil {
		switch {
		case err == nil:
			c.adapter.OnResponse(resp)
		case errors.Is(err, websocket.ErrBadHandshake) && resp != nil:
			// The server answered, it just refused the upgrade.
			c.adapter.OnResponse(resp)
		default:
			c.adapter.OnError(interceptor.Describe(err))
		}
	}
	return conn, err
}

// ReadLoop returns a Bubble Tea command that reads the next message. It must
// be reissued after every message it returns.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: errors.New("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.drop(conn)
				if c.adapter != nil && ctx.Err() == nil && !isCloseFrame(err) {
					c.adapter.OnError(interceptor.Describe(err))
				}
				return DisconnectedMsg{Err: err}
			}

			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}

			c.mu.Lock()
			c.seq = msg.Seq
			c.mu.Unlock()

			if teaMsg := dispatch(msg); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

func isCloseFrame(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce)
}

func (c *WSClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

// pingLoop sends periodic pings on conn until ctx is cancelled or the
// connection is replaced.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close sends a close frame and drops the current connection, if any.
func (c *WSClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	c.mu.Unlock()
	if conn == nil {
		return
	}

	c.writeMu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	conn.Close()
}

// Seq returns the last seen sequence number.
func (c *WSClient) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func dispatch(msg Message) tea.Msg {
	switch msg.Type {
	case MsgStatus:
		var p StatusPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return StatusMsg{Seq: msg.Seq, Payload: p}
		}
	case MsgShutdown:
		return ShutdownMsg{}
	case MsgError:
		var p ErrorPayload
		json.Unmarshal(msg.Payload, &p)
		return ErrorMsg{Message: p.Message}
	}
	return nil
}
