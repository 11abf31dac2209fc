package interceptor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/agent-racer/netwatch/internal/classify"
)

// Category is the coarse failure category reported by the HTTP pipeline.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryConnection
	CategoryTimeout
	CategoryBadResponse
	CategoryCancel
)

var categoryNames = map[Category]string{
	CategoryUnknown:     "unknown",
	CategoryConnection:  "connection",
	CategoryTimeout:     "timeout",
	CategoryBadResponse: "bad-response",
	CategoryCancel:      "cancel",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "unknown"
}

// ErrorInfo describes a failed request: the pipeline's category, the
// transport error kind when one could be identified, and the original error.
type ErrorInfo struct {
	Category Category
	Kind     classify.ErrorKind
	Err      error
}

// Outcome converts the info into classifier input. A connection category
// wins over any more specific kind.
func (e ErrorInfo) Outcome() classify.Outcome {
	desc := ""
	if e.Err != nil {
		desc = e.Err.Error()
	}

	switch {
	case e.Category == CategoryConnection:
		return classify.Failure(classify.KindConnectionError, desc)
	case e.Kind != classify.KindOther:
		return classify.Failure(e.Kind, desc)
	case e.Category == CategoryTimeout:
		return classify.Failure(classify.KindTimeout, desc)
	case e.Category == CategoryBadResponse:
		return classify.Failure(classify.KindHTTPStatus, desc)
	}
	return classify.Failure(classify.KindOther, desc)
}

// StatusError reports a response whose status code the caller treats as a
// failure.
type StatusError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
}

func (e *StatusError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %s", e.Method, e.URL, e.Status)
}

// CheckStatus returns a *StatusError for responses with a 4xx or 5xx code.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	se := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	if resp.Request != nil {
		se.Method = resp.Request.Method
		se.URL = resp.Request.URL.Redacted()
	}
	if se.Status == "" {
		se.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return se
}

// Describe inspects a transport error and tags it with a category and kind.
// Errors it cannot place get CategoryUnknown/KindOther and keep their text
// for the classifier's fallback matching.
func Describe(err error) ErrorInfo {
	info := ErrorInfo{Err: err}
	if err == nil {
		return info
	}

	var statusErr *StatusError
	var dnsErr *net.DNSError
	var netErr net.Error
	var opErr *net.OpError

	switch {
	case errors.As(err, &statusErr):
		info.Category, info.Kind = CategoryBadResponse, classify.KindHTTPStatus
	case errors.Is(err, context.DeadlineExceeded):
		info.Category, info.Kind = CategoryTimeout, classify.KindTimeout
	case errors.Is(err, context.Canceled):
		info.Category = CategoryCancel
	case errors.As(err, &dnsErr):
		info.Category, info.Kind = CategoryConnection, classify.KindConnectionError
	case errors.As(err, &netErr) && netErr.Timeout():
		info.Category, info.Kind = CategoryTimeout, classify.KindTimeout
	case isTLSError(err):
		info.Kind = classify.KindTLSHandshake
	case isRefused(err):
		info.Category, info.Kind = CategoryConnection, classify.KindConnectionError
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		info.Kind = classify.KindSocketException
	case errors.As(err, &opErr):
		if opErr.Op == "dial" {
			info.Category, info.Kind = CategoryConnection, classify.KindConnectionError
		} else {
			info.Kind = classify.KindSocketException
		}
	case isProtocolError(err):
		info.Kind = classify.KindHTTPException
	}
	return info
}

func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ECONNABORTED)
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var verifyErr *tls.CertificateVerificationError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	var alertErr tls.AlertError

	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) || errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) || errors.As(err, &alertErr) {
		return true
	}
	msg := err.Error()
	for _, phrase := range tlsHandshakePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// tlsHandshakePhrases match handshake failures crypto/tls reports without a
// typed error. A bare "tls: " prefix is too broad: config and key loading
// errors carry it too.
var tlsHandshakePhrases = []string{
	"tls: handshake",
	"tls: first record",
	"remote error: tls: ",
}

// isProtocolError matches a server that accepted the connection but broke
// the HTTP exchange.
func isProtocolError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "malformed HTTP") ||
		strings.Contains(msg, "transport connection broken") ||
		strings.Contains(msg, "server closed idle connection")
}
