package classify

import (
	"testing"

	"github.com/agent-racer/netwatch/internal/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    status.ConnectionStatus
	}{
		{"success", Success(), status.Connected},
		{"zero value", Outcome{}, status.Connected},
		{"connection error", Failure(KindConnectionError, "dial tcp: connection refused"), status.Disconnected},
		{"socket exception", Failure(KindSocketException, "read: connection reset by peer"), status.Disconnected},
		{"http exception", Failure(KindHTTPException, "malformed HTTP response"), status.Disconnected},
		{"tls handshake", Failure(KindTLSHandshake, "tls: handshake failure"), status.Disconnected},
		{"timeout", Failure(KindTimeout, "context deadline exceeded"), status.Connected},
		{"http status", Failure(KindHTTPStatus, "404 Not Found"), status.Connected},
		{"http status 503", Failure(KindHTTPStatus, "503 Service Unavailable"), status.Connected},
		{"other host lookup", Failure(KindOther, "Failed host lookup: example.com"), status.Disconnected},
		{"other unreachable upper", Failure(KindOther, "NETWORK IS UNREACHABLE"), status.Disconnected},
		{"other no address", Failure(KindOther, "getaddrinfo: No address associated with hostname"), status.Disconnected},
		{"other unmatched", Failure(KindOther, "json: cannot unmarshal"), status.Connected},
		{"other empty", Failure(KindOther, ""), status.Connected},
		// Fallback phrases only apply to untagged failures.
		{"timeout with lookup text", Failure(KindTimeout, "failed host lookup"), status.Connected},
		{"status with unreachable text", Failure(KindHTTPStatus, "network is unreachable"), status.Connected},
		{"out of range kind", Failure(ErrorKind(99), "network is unreachable"), status.Connected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.outcome); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.outcome, got, tt.want)
			}
		})
	}
}

func TestClassifyNeverUnknown(t *testing.T) {
	kinds := []ErrorKind{
		KindOther, KindConnectionError, KindSocketException, KindHTTPException,
		KindTLSHandshake, KindTimeout, KindHTTPStatus,
	}
	descs := []string{"", "boom", "failed host lookup"}

	for _, k := range kinds {
		for _, d := range descs {
			if got := Classify(Failure(k, d)); got.IsUnknown() {
				t.Errorf("Classify(%s, %q) returned unknown", k, d)
			}
		}
	}
}

func TestOutcomeString(t *testing.T) {
	if got := Success().String(); got != "success" {
		t.Errorf("Success().String() = %q", got)
	}
	if got := Failure(KindTimeout, "").String(); got != "failure(timeout)" {
		t.Errorf("String() = %q", got)
	}
	if got := Failure(KindHTTPStatus, "404").String(); got != "failure(http-status-error): 404" {
		t.Errorf("String() = %q", got)
	}
}
