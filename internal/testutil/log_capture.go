// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log line.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// CapturingHandler is a slog.Handler that keeps every record for assertions.
type CapturingHandler struct {
	mu      sync.Mutex
	records []Record
}

func NewCapturingHandler() *CapturingHandler { return &CapturingHandler{} }

// Logger returns a logger writing to h.
func (h *CapturingHandler) Logger() *slog.Logger { return slog.New(h) }

func (h *CapturingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *CapturingHandler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: make(map[string]string)}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.String()
		return true
	})
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

// WithAttrs and WithGroup are not needed by the code under test; the
// returned handler shares the same record list.
func (h *CapturingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *CapturingHandler) WithGroup(string) slog.Handler      { return h }

// Snapshot returns a copy of the captured records.
func (h *CapturingHandler) Snapshot() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Count returns how many records were logged at level.
func (h *CapturingHandler) Count(level slog.Level) int {
	n := 0
	for _, r := range h.Snapshot() {
		if r.Level == level {
			n++
		}
	}
	return n
}
