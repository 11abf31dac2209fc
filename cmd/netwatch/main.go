package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/config"
	"github.com/agent-racer/netwatch/internal/interceptor"
	"github.com/agent-racer/netwatch/internal/logging"
	"github.com/agent-racer/netwatch/internal/mock"
	"github.com/agent-racer/netwatch/internal/ws"
	metrics "github.com/rcrowley/go-metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	mockMode := flag.Bool("mock", false, "Feed scripted request outcomes instead of real traffic")
	logLevel := flag.String("log-level", "", "Override logging level (debug, info, warn, error)")
	probeURL := flag.String("probe", "", "URL to poll through the instrumented client")
	probeInterval := flag.Duration("probe-interval", 10*time.Second, "Interval between probe requests")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := logging.Init(os.Stderr, cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))

	b := broadcast.Default()
	b.SetLoggingEnabled(cfg.Logging.Enabled)

	registry := metrics.NewRegistry()
	adapter := interceptor.New(b).Instrument(interceptor.NewMetrics(registry))
	interceptor.Install(http.DefaultClient, adapter)

	hub := ws.NewHub(b, ws.HubOptions{
		SendBuffer:   cfg.Stream.SendBuffer,
		PingInterval: cfg.Stream.PingInterval,
		WriteTimeout: cfg.Stream.WriteTimeout,
		Logger:       logger,
	})
	server := ws.NewServer(cfg, b, hub, logger)
	server.SetMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mockMode {
		gen, err := mock.NewGenerator(adapter, cfg.Mock.Pattern, cfg.Mock.Interval, logger)
		if err != nil {
			logger.Error("mock mode unavailable", "err", err)
			os.Exit(1)
		}
		gen.Start(ctx)
	}
	if *probeURL != "" {
		go probe(ctx, http.DefaultClient, *probeURL, *probeInterval, logger)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("netwatch listening", "addr", "http://"+cfg.Addr(), "mock", *mockMode)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shut the broadcaster down first so stream clients get a shutdown
	// message before their connections close.
	b.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	hub.Close()
}
