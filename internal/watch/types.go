// Package watch provides the websocket and HTTP clients a remote observer
// uses to follow a netwatch server. Types mirror the server wire protocol
// without importing server packages.
package watch

import (
	"encoding/json"
	"time"

	"github.com/agent-racer/netwatch/internal/status"
)

// MessageType identifies the kind of websocket message.
type MessageType string

const (
	MsgStatus   MessageType = "status"
	MsgShutdown MessageType = "shutdown"
	MsgError    MessageType = "error"
)

// Message is the envelope for all websocket messages.
type Message struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// StatusPayload carries one element of the server's status stream.
type StatusPayload struct {
	Status status.ConnectionStatus `json:"status"`
	SentAt time.Time               `json:"sentAt"`
}

// ErrorPayload wraps a server-side error.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Snapshot is the body of GET /api/status.
type Snapshot struct {
	Status              status.ConnectionStatus `json:"status"`
	LastChangeAt        *time.Time              `json:"lastChangeAt,omitempty"`
	InterceptorAttached bool                    `json:"interceptorAttached"`
	LoggingEnabled      bool                    `json:"loggingEnabled"`
	Subscribers         int                     `json:"subscribers"`
}
