package ws

import (
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/status"
)

type MessageType string

const (
	MsgStatus   MessageType = "status"
	MsgShutdown MessageType = "shutdown"
	MsgError    MessageType = "error"
)

// Mode selects which broadcaster subscription backs a websocket client.
type Mode string

const (
	ModeAll     Mode = "all"
	ModeChanges Mode = "changes"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeChanges:
		return ModeChanges, true
	case ModeAll:
		return ModeAll, true
	}
	return "", false
}

type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq"`
	Payload interface{} `json:"payload,omitempty"`
}

type StatusPayload struct {
	Status status.ConnectionStatus `json:"status"`
	SentAt time.Time               `json:"sentAt"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse = broadcast.State

// LoggingRequest is the body of PUT /api/logging.
type LoggingRequest struct {
	Enabled *bool `json:"enabled"`
}
