// Package classify maps request outcomes onto connectivity statuses.
//
// The mapping only separates "no path to any server" from "a server was
// reached". Server-side and application-level failures count as evidence of
// connectivity, so unrelated request errors do not flap the status to
// disconnected.
package classify

import (
	"strings"

	"github.com/agent-racer/netwatch/internal/status"
)

// unreachablePhrases are matched case-insensitively against the description
// of failures that carry no more specific kind.
var unreachablePhrases = []string{
	"network is unreachable",
	"failed host lookup",
	"no address associated with hostname",
}

// Classify returns Connected or Disconnected for o. It never returns Unknown.
func Classify(o Outcome) status.ConnectionStatus {
	if !o.Failed {
		return status.Connected
	}

	switch o.Kind {
	case KindConnectionError, KindSocketException, KindHTTPException, KindTLSHandshake:
		return status.Disconnected
	case KindOther:
		if matchesUnreachable(o.Description) {
			return status.Disconnected
		}
	}

	return status.Connected
}

func matchesUnreachable(desc string) bool {
	if desc == "" {
		return false
	}
	lower := strings.ToLower(desc)
	for _, phrase := range unreachablePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
