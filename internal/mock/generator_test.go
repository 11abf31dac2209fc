package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/interceptor"
	"github.com/agent-racer/netwatch/internal/status"
)

func newTestGenerator(t *testing.T, pattern string) (*Generator, *broadcast.Broadcaster) {
	t.Helper()
	b := broadcast.New(broadcast.WithLogging(false))
	t.Cleanup(b.Shutdown)
	g, err := NewGenerator(interceptor.New(b), pattern, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewGenerator(%q): %v", pattern, err)
	}
	return g, b
}

func TestPatternsDriveStatus(t *testing.T) {
	C, D := status.Connected, status.Disconnected
	tests := []struct {
		pattern string
		want    []status.ConnectionStatus
	}{
		{"flapping", []status.ConnectionStatus{C, C, C, D, D, C, C, D}},
		{"steady", []status.ConnectionStatus{C, C, C, C, C, C, C, C}},
		{"outage", []status.ConnectionStatus{C, C, D, D, D, D, D, C}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			g, b := newTestGenerator(t, tt.pattern)
			if !b.InterceptorAttached() {
				t.Fatal("generator adapter did not mark the interceptor attached")
			}

			// Two passes: scripts loop.
			for pass := 0; pass < 2; pass++ {
				for i, want := range tt.want {
					g.Step(context.Background())
					if got := b.CurrentStatus(); got != want {
						t.Fatalf("pass %d step %d: status = %v, want %v", pass, i, got, want)
					}
				}
			}
		})
	}
}

func TestStepReturnsErrors(t *testing.T) {
	g, _ := newTestGenerator(t, "flapping")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.Step(ctx); err != nil {
			t.Fatalf("step %d: unexpected error %v", i, err)
		}
	}
	if err := g.Step(ctx); err == nil {
		t.Fatal("refused step returned nil error")
	}
	g.Step(ctx)
	g.Step(ctx)

	var statusErr *interceptor.StatusError
	if err := g.Step(ctx); !errors.As(err, &statusErr) {
		t.Fatalf("503 step: want *StatusError, got %v", err)
	}
}

func TestNewGenerator_UnknownPattern(t *testing.T) {
	b := broadcast.New(broadcast.WithLogging(false))
	defer b.Shutdown()

	if _, err := NewGenerator(interceptor.New(b), "chaos", time.Second, nil); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
}

func TestPatternNames(t *testing.T) {
	got := PatternNames()
	want := []string{"flapping", "outage", "steady"}
	if len(got) != len(want) {
		t.Fatalf("PatternNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PatternNames() = %v, want %v", got, want)
		}
	}
}

func TestStart_ReportsUntilCancelled(t *testing.T) {
	g, b := newTestGenerator(t, "outage")
	sub, err := b.SubscribeAll()
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	// Replayed Unknown.
	select {
	case <-sub.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no replay")
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.Start(ctx)

	for i := 0; i < 3; i++ {
		select {
		case s := <-sub.Updates():
			if s.IsUnknown() {
				t.Fatalf("update %d: generator reported Unknown", i)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}
	cancel()
}
