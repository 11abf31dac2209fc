package status

import (
	"encoding/json"
	"fmt"
)

// ConnectionStatus is the tri-state connectivity signal derived from
// request outcomes. Unknown is only ever the initial value.
type ConnectionStatus int

const (
	Unknown ConnectionStatus = iota
	Connected
	Disconnected
)

var statusNames = map[ConnectionStatus]string{
	Unknown:      "unknown",
	Connected:    "connected",
	Disconnected: "disconnected",
}

var statusFromName = map[string]ConnectionStatus{
	"unknown":      Unknown,
	"connected":    Connected,
	"disconnected": Disconnected,
}

func (s ConnectionStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "invalid"
}

func (s ConnectionStatus) IsConnected() bool    { return s == Connected }
func (s ConnectionStatus) IsDisconnected() bool { return s == Disconnected }
func (s ConnectionStatus) IsUnknown() bool      { return s == Unknown }

// Parse returns the status named by s.
func Parse(s string) (ConnectionStatus, error) {
	if v, ok := statusFromName[s]; ok {
		return v, nil
	}
	return Unknown, fmt.Errorf("unknown connection status %q", s)
}

func (s ConnectionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ConnectionStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, err := Parse(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
