package status

import (
	"encoding/json"
	"testing"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		status       ConnectionStatus
		connected    bool
		disconnected bool
		unknown      bool
	}{
		{Unknown, false, false, true},
		{Connected, true, false, false},
		{Disconnected, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.IsConnected(); got != tt.connected {
				t.Errorf("IsConnected() = %v, want %v", got, tt.connected)
			}
			if got := tt.status.IsDisconnected(); got != tt.disconnected {
				t.Errorf("IsDisconnected() = %v, want %v", got, tt.disconnected)
			}
			if got := tt.status.IsUnknown(); got != tt.unknown {
				t.Errorf("IsUnknown() = %v, want %v", got, tt.unknown)
			}
		})
	}
}

func TestZeroValueIsUnknown(t *testing.T) {
	var s ConnectionStatus
	if !s.IsUnknown() {
		t.Errorf("zero value = %s, want unknown", s)
	}
}

func TestString(t *testing.T) {
	if got := ConnectionStatus(42).String(); got != "invalid" {
		t.Errorf("String() for out-of-range value = %q, want %q", got, "invalid")
	}
	if got := Disconnected.String(); got != "disconnected" {
		t.Errorf("Disconnected.String() = %q", got)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("connected")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != Connected {
		t.Errorf("Parse(connected) = %s", got)
	}

	if _, err := Parse("online"); err == nil {
		t.Error("Parse(online) should fail")
	}
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Status ConnectionStatus `json:"status"`
	}{Disconnected})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"status":"disconnected"}` {
		t.Errorf("Marshal = %s", data)
	}

	var s ConnectionStatus
	if err := json.Unmarshal([]byte(`"connected"`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s != Connected {
		t.Errorf("Unmarshal = %s, want connected", s)
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &s); err == nil {
		t.Error("Unmarshal of unknown name should fail")
	}
}
