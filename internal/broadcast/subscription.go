package broadcast

import (
	"sync"

	"github.com/agent-racer/netwatch/internal/status"
)

// Subscription is a live view of a Broadcaster. Updates are queued without
// bound so a slow consumer never blocks reporters or loses elements. Once
// Close or the broadcaster's Shutdown returns, Updates is closed and yields
// nothing further.
type Subscription struct {
	b           *Broadcaster
	changesOnly bool

	mu      sync.Mutex
	queue   []status.ConnectionStatus
	last    status.ConnectionStatus
	hasLast bool
	closed  bool

	out      chan status.ConnectionStatus
	notify   chan struct{}
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newSubscription(b *Broadcaster, changesOnly bool) *Subscription {
	return &Subscription{
		b:           b,
		changesOnly: changesOnly,
		out:         make(chan status.ConnectionStatus),
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
	}
}

// Updates returns the delivery channel. It is closed after Close or when the
// broadcaster shuts down.
func (s *Subscription) Updates() <-chan status.ConnectionStatus {
	return s.out
}

// Close stops delivery to this subscription only. Undelivered elements are
// discarded. It is safe to call from the goroutine reading Updates and more
// than once.
func (s *Subscription) Close() {
	s.terminate()
	s.b.remove(s)
}

// enqueue is called with b.mu held and must not block.
func (s *Subscription) enqueue(v status.ConnectionStatus) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.changesOnly && s.hasLast && s.last == v {
		s.mu.Unlock()
		return
	}
	s.last, s.hasLast = v, true
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) terminate() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
	})
	<-s.exited
}

// pump closes out before exited so terminate returns only after the
// channel is closed.
func (s *Subscription) pump() {
	defer close(s.exited)
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.notify:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		default:
		}

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
