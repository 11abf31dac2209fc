package classify

// ErrorKind tags the transport-level cause of a failed request.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindConnectionError
	KindSocketException
	KindHTTPException
	KindTLSHandshake
	KindTimeout
	KindHTTPStatus
)

var kindNames = map[ErrorKind]string{
	KindOther:           "other",
	KindConnectionError: "connection-error",
	KindSocketException: "socket-exception",
	KindHTTPException:   "http-exception",
	KindTLSHandshake:    "tls-handshake-exception",
	KindTimeout:         "timeout",
	KindHTTPStatus:      "http-status-error",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "other"
}

// Outcome is the result of one completed request attempt. The zero value
// is a success.
type Outcome struct {
	Failed      bool
	Kind        ErrorKind
	Description string
}

// Success returns a successful outcome.
func Success() Outcome {
	return Outcome{}
}

// Failure returns a failed outcome carrying the error kind and the raw
// error text used for fallback matching.
func Failure(kind ErrorKind, description string) Outcome {
	return Outcome{Failed: true, Kind: kind, Description: description}
}

func (o Outcome) String() string {
	if !o.Failed {
		return "success"
	}
	if o.Description == "" {
		return "failure(" + o.Kind.String() + ")"
	}
	return "failure(" + o.Kind.String() + "): " + o.Description
}
