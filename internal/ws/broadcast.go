package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/gorilla/websocket"
)

// ErrTooManyConnections is returned by AddClient when the hub is full.
var ErrTooManyConnections = errors.New("too many websocket connections")

type client struct {
	conn *websocket.Conn
	hub  *Hub
	sub  *broadcast.Subscription
	mode Mode
	seq  uint64

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.sub.Close()
		close(c.done)
	})
}

// forward turns subscription elements into websocket messages. A client
// whose buffer is full is disconnected rather than allowed to stall.
func (c *client) forward() {
	for s := range c.sub.Updates() {
		c.seq++
		data, err := json.Marshal(WSMessage{
			Type:    MsgStatus,
			Seq:     c.seq,
			Payload: StatusPayload{Status: s, SentAt: time.Now().UTC()},
		})
		if err != nil {
			c.hub.log().Error("status marshal error", "err", err)
			continue
		}
		if !c.enqueue(data) {
			c.hub.log().Warn("ws client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			c.hub.RemoveClient(c)
			return
		}
	}

	// The subscription ends on Close or broadcaster shutdown. Tell the peer
	// about the latter before the write pump hangs up.
	select {
	case <-c.done:
	default:
		c.seq++
		data, _ := json.Marshal(WSMessage{Type: MsgShutdown, Seq: c.seq})
		c.enqueue(data)
		c.hub.RemoveClient(c)
	}
}

func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.hub.RemoveClient(c)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.hub.RemoveClient(c)
				return
			}
		case <-c.done:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever was queued before the client was closed.
func (c *client) flush() {
	for {
		select {
		case msg := <-c.send:
			if c.write(websocket.TextMessage, msg) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// HubOptions tunes websocket delivery.
type HubOptions struct {
	MaxConns     int // 0 means unlimited
	SendBuffer   int
	PingInterval time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Hub bridges broadcaster subscriptions to websocket clients, one
// subscription per connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	source  *broadcast.Broadcaster

	maxConns     int
	sendBuffer   int
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewHub(source *broadcast.Broadcaster, opts HubOptions) *Hub {
	h := &Hub{
		clients:      make(map[*client]bool),
		source:       source,
		maxConns:     opts.MaxConns,
		sendBuffer:   opts.SendBuffer,
		pingInterval: opts.PingInterval,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = 64
	}
	if h.pingInterval <= 0 {
		h.pingInterval = 30 * time.Second
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 10 * time.Second
	}
	return h
}

func (h *Hub) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// AddClient subscribes conn to the broadcaster in the given mode. The first
// message the client receives is the current status.
func (h *Hub) AddClient(conn *websocket.Conn, mode Mode) (*client, error) {
	h.mu.Lock()
	if h.maxConns > 0 && len(h.clients) >= h.maxConns {
		h.mu.Unlock()
		return nil, ErrTooManyConnections
	}

	var sub *broadcast.Subscription
	var err error
	if mode == ModeAll {
		sub, err = h.source.SubscribeAll()
	} else {
		sub, err = h.source.SubscribeChanges()
	}
	if err != nil {
		h.mu.Unlock()
		return nil, err
	}

	c := &client{
		conn: conn,
		hub:  h,
		sub:  sub,
		mode: mode,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.forward()
	return c, nil
}

func (h *Hub) RemoveClient(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
