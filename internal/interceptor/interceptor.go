// Package interceptor observes HTTP request outcomes and reports the derived
// connectivity status to a broadcaster. It never changes the result the
// host pipeline sees.
package interceptor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/classify"
)

// Adapter receives raw outcomes from the host pipeline.
type Adapter struct {
	b       *broadcast.Broadcaster
	metrics *Metrics
}

// New creates an adapter feeding b, or broadcast.Default when b is nil, and
// marks the broadcaster's interceptor as attached.
func New(b *broadcast.Broadcaster) *Adapter {
	if b == nil {
		b = broadcast.Default()
	}
	// A shut down broadcaster rejects the mark; the adapter still passes
	// results through.
	_ = b.MarkInterceptorAttached()
	return &Adapter{b: b}
}

// Broadcaster returns the broadcaster the adapter reports to.
func (a *Adapter) Broadcaster() *broadcast.Broadcaster { return a.b }

// Instrument makes the adapter count outcomes in m. Call it before the
// adapter is shared.
func (a *Adapter) Instrument(m *Metrics) *Adapter {
	a.metrics = m
	return a
}

// OnResponse records a completed response and returns it unchanged.
func (a *Adapter) OnResponse(resp *http.Response) *http.Response {
	a.observe(classify.Success())
	return resp
}

// OnError records a failed request and returns the original error unchanged.
// Requests the caller cancelled say nothing about the network and are not
// reported.
func (a *Adapter) OnError(info ErrorInfo) error {
	if info.Category != CategoryCancel {
		a.observe(info.Outcome())
	}
	return info.Err
}

func (a *Adapter) observe(o classify.Outcome) {
	s := classify.Classify(o)
	if a.metrics != nil {
		a.metrics.record(o, s)
	}
	_ = a.b.ReportOutcome(s)
}

// Transport is an http.RoundTripper that reports every round trip through
// an Adapter.
type Transport struct {
	// Base performs the request. http.DefaultTransport is used when nil.
	Base http.RoundTripper
	// Adapter receives outcomes.
	Adapter *Adapter
	// StatusErrors reports 4xx/5xx responses as http-status-error failures
	// instead of successes. The response is returned either way.
	StatusErrors bool
}

// Wrap returns a Transport around base reporting to a.
func Wrap(base http.RoundTripper, a *Adapter) *Transport {
	return &Transport{Base: base, Adapter: a}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if m := t.Adapter.metrics; m != nil {
		defer m.observeRoundTrip(time.Now())
	}
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		if errors.Is(req.Context().Err(), context.Canceled) {
			return nil, err
		}
		return nil, t.Adapter.OnError(Describe(err))
	}

	if t.StatusErrors {
		if statusErr := CheckStatus(resp); statusErr != nil {
			t.Adapter.OnError(ErrorInfo{
				Category: CategoryBadResponse,
				Kind:     classify.KindHTTPStatus,
				Err:      statusErr,
			})
			return resp, nil
		}
	}
	return t.Adapter.OnResponse(resp), nil
}

// CloseIdleConnections forwards to the base transport when supported.
func (t *Transport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := t.base().(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}

// NewClient returns an *http.Client whose requests are observed by a new
// adapter reporting to b.
func NewClient(base http.RoundTripper, b *broadcast.Broadcaster) *http.Client {
	return &http.Client{Transport: Wrap(base, New(b))}
}

// Install wraps c's transport in place so its requests are observed by a.
func Install(c *http.Client, a *Adapter) {
	if _, ok := c.Transport.(*Transport); ok {
		return
	}
	c.Transport = Wrap(c.Transport, a)
}
