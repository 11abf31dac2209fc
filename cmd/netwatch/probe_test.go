package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/interceptor"
	"github.com/agent-racer/netwatch/internal/status"
)

func TestPollFeedsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadURL := "http://" + ln.Addr().String()
	ln.Close()

	b := broadcast.New(broadcast.WithLogging(false))
	defer b.Shutdown()
	client := interceptor.NewClient(nil, b)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	poll(ctx, client, srv.URL, logger)
	if got := b.CurrentStatus(); got != status.Connected {
		t.Fatalf("after reachable poll: %v, want connected", got)
	}

	poll(ctx, client, deadURL, logger)
	if got := b.CurrentStatus(); got != status.Disconnected {
		t.Fatalf("after refused poll: %v, want disconnected", got)
	}
}

func TestProbeStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Returns after the first poll because ctx is already done.
	probe(ctx, srv.Client(), srv.URL, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
