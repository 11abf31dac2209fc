// Package broadcast holds the process-wide connection status and fans every
// reported update out to subscribers.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agent-racer/netwatch/internal/status"
)

// ErrShutdown is returned by every mutating or subscribing call made after
// Shutdown.
var ErrShutdown = errors.New("broadcast: broadcaster is shut down")

// Clock supplies report timestamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithLogger sets the logger used for diagnostics. Without it the
// broadcaster logs through slog.Default at call time.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = l
	}
}

// WithClock overrides the time source used to stamp reports.
func WithClock(c Clock) Option {
	return func(b *Broadcaster) {
		b.clock = c
	}
}

// WithLogging sets the initial value of the diagnostics switch.
func WithLogging(enabled bool) Option {
	return func(b *Broadcaster) {
		b.logging.Store(enabled)
	}
}

// State is a point-in-time copy of the broadcaster's fields.
type State struct {
	Status              status.ConnectionStatus `json:"status"`
	LastChangeAt        *time.Time              `json:"lastChangeAt,omitempty"`
	InterceptorAttached bool                    `json:"interceptorAttached"`
	LoggingEnabled      bool                    `json:"loggingEnabled"`
	Subscribers         int                     `json:"subscribers"`
}

// Broadcaster owns the current connection status. All methods are safe for
// concurrent use. mu serializes state updates with their fan-out so every
// subscriber observes reports in the same order; it is never held while
// delivering to a consumer.
type Broadcaster struct {
	mu           sync.Mutex
	current      status.ConnectionStatus
	lastChangeAt time.Time
	attached     bool
	subs         map[*Subscription]struct{}
	shutdown     bool

	logging atomic.Bool
	logger  *slog.Logger
	clock   Clock
}

// New creates an isolated broadcaster. Most programs use Default instead.
func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		subs:  make(map[*Subscription]struct{}),
		clock: realClock{},
	}
	b.logging.Store(true)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	defaultOnce        sync.Once
	defaultBroadcaster *Broadcaster
)

// Default returns the process-wide broadcaster, creating it on first use.
func Default() *Broadcaster {
	defaultOnce.Do(func() {
		defaultBroadcaster = New()
	})
	return defaultBroadcaster
}

func (b *Broadcaster) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

// CurrentStatus returns the most recently reported status.
func (b *Broadcaster) CurrentStatus() status.ConnectionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Broadcaster) IsConnected() bool    { return b.CurrentStatus().IsConnected() }
func (b *Broadcaster) IsDisconnected() bool { return b.CurrentStatus().IsDisconnected() }

// LastChangeAt returns the time of the most recent report. The timestamp is
// refreshed on every report, including ones that repeat the current status.
func (b *Broadcaster) LastChangeAt() (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastChangeAt, !b.lastChangeAt.IsZero()
}

// InterceptorAttached reports whether an interceptor adapter has announced
// itself since construction or the last Reset.
func (b *Broadcaster) InterceptorAttached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attached
}

func (b *Broadcaster) LoggingEnabled() bool { return b.logging.Load() }

// SetLoggingEnabled toggles diagnostic output. Status computation is not
// affected.
func (b *Broadcaster) SetLoggingEnabled(enabled bool) {
	b.logging.Store(enabled)
}

// Snapshot returns a consistent copy of the broadcaster state.
func (b *Broadcaster) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := State{
		Status:              b.current,
		InterceptorAttached: b.attached,
		LoggingEnabled:      b.logging.Load(),
		Subscribers:         len(b.subs),
	}
	if !b.lastChangeAt.IsZero() {
		t := b.lastChangeAt
		st.LastChangeAt = &t
	}
	return st
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// ReportOutcome records s as the current status and delivers it to every
// live subscriber.
func (b *Broadcaster) ReportOutcome(s status.ConnectionStatus) error {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return ErrShutdown
	}
	previous := b.current
	b.current = s
	b.lastChangeAt = b.clock.Now()
	for sub := range b.subs {
		sub.enqueue(s)
	}
	b.mu.Unlock()

	if b.LoggingEnabled() {
		b.logUpdate(previous, s)
	}
	return nil
}

func (b *Broadcaster) logUpdate(previous, current status.ConnectionStatus) {
	attrs := []any{"status", current.String(), "previous", previous.String()}
	switch current {
	case status.Connected:
		b.log().Info("connection status: connected", attrs...)
	case status.Disconnected:
		b.log().Warn("connection status: disconnected", attrs...)
	default:
		b.log().Debug("connection status: unknown", attrs...)
	}
}

// MarkInterceptorAttached records that an interceptor adapter is feeding
// outcomes. Repeated calls are no-ops.
func (b *Broadcaster) MarkInterceptorAttached() error {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return ErrShutdown
	}
	already := b.attached
	b.attached = true
	b.mu.Unlock()

	if !already && b.LoggingEnabled() {
		b.log().Info("connectivity interceptor attached")
	}
	return nil
}

// Reset restores the initial state. Existing subscriptions stay live and
// receive later reports.
func (b *Broadcaster) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return ErrShutdown
	}
	b.current = status.Unknown
	b.lastChangeAt = time.Time{}
	b.attached = false
	return nil
}

// Shutdown closes every subscription. Later calls to ReportOutcome,
// MarkInterceptorAttached, Reset and the Subscribe methods return
// ErrShutdown. Calling Shutdown more than once is harmless.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return
	}
	b.shutdown = true
	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[*Subscription]struct{})
	b.mu.Unlock()

	for _, sub := range subs {
		sub.terminate()
	}
}

// SubscribeAll returns a subscription that receives the current status
// followed by every report, repeats included.
func (b *Broadcaster) SubscribeAll() (*Subscription, error) {
	return b.subscribe(false)
}

// SubscribeChanges returns a subscription that receives the current status
// followed by reports that differ from the previously delivered value.
func (b *Broadcaster) SubscribeChanges() (*Subscription, error) {
	return b.subscribe(true)
}

func (b *Broadcaster) subscribe(changesOnly bool) (*Subscription, error) {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return nil, ErrShutdown
	}
	sub := newSubscription(b, changesOnly)
	sub.enqueue(b.current)
	b.subs[sub] = struct{}{}
	attached := b.attached
	b.mu.Unlock()

	go sub.pump()

	if !attached && b.LoggingEnabled() {
		b.log().Warn("subscribed to connection status before an interceptor was attached; status stays unknown until one reports",
			"changesOnly", changesOnly)
	}
	return sub, nil
}

// Watch subscribes with SubscribeChanges and calls fn for every delivered
// status until ctx is done. fn runs on the caller's goroutine and may call
// back into the broadcaster.
func (b *Broadcaster) Watch(ctx context.Context, fn func(status.ConnectionStatus)) error {
	sub, err := b.SubscribeChanges()
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-sub.Updates():
			if !ok {
				return ErrShutdown
			}
			fn(s)
		}
	}
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}
