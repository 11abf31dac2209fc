package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// probe polls url with c until ctx is done. c is expected to be
// instrumented, so every poll feeds the connectivity status.
func probe(ctx context.Context, c *http.Client, url string, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		poll(ctx, c, url, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func poll(ctx context.Context, c *http.Client, url string, logger *slog.Logger) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Error("bad probe url", "url", url, "err", err)
		return
	}
	resp, err := c.Do(req)
	if err != nil {
		logger.Debug("probe failed", "url", url, "err", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	logger.Debug("probe ok", "url", url, "status", resp.StatusCode)
}
