package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agent-racer/netwatch/internal/interceptor"
	tea "github.com/charmbracelet/bubbletea"
)

// HTTPClient makes REST calls to a netwatch server. Its requests are
// observed by the adapter it is built with.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting baseURL (e.g. "http://127.0.0.1:8080").
// A nil adapter leaves requests unobserved.
func NewHTTPClient(baseURL, token string, adapter *interceptor.Adapter) *HTTPClient {
	var transport http.RoundTripper = http.DefaultTransport
	if adapter != nil {
		transport = interceptor.Wrap(nil, adapter)
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

// GetStatus fetches /api/status.
func (c *HTTPClient) GetStatus(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reset sends POST /api/reset.
func (c *HTTPClient) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/reset", nil, nil)
}

// SetLogging sends PUT /api/logging and returns the server's resulting value.
func (c *HTTPClient) SetLogging(ctx context.Context, enabled bool) (bool, error) {
	var out struct {
		Enabled bool `json:"enabled"`
	}
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPut, "/api/logging", body, &out); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := interceptor.CheckStatus(resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// --- Bubble Tea commands ---

// SnapshotMsg delivers the result of a status fetch.
type SnapshotMsg struct {
	Snapshot *Snapshot
	Err      error
}

// ResetDoneMsg reports the result of a reset request.
type ResetDoneMsg struct{ Err error }

// LoggingMsg reports the server's diagnostics switch after a toggle.
type LoggingMsg struct {
	Enabled bool
	Err     error
}

// FetchStatus returns a command that fetches /api/status.
func (c *HTTPClient) FetchStatus(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		s, err := c.GetStatus(ctx)
		return SnapshotMsg{Snapshot: s, Err: err}
	}
}

// ResetCmd returns a command that resets the remote broadcaster.
func (c *HTTPClient) ResetCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Err: c.Reset(ctx)}
	}
}

// ToggleLoggingCmd returns a command that sets the remote diagnostics switch.
func (c *HTTPClient) ToggleLoggingCmd(ctx context.Context, enabled bool) tea.Cmd {
	return func() tea.Msg {
		got, err := c.SetLogging(ctx, enabled)
		return LoggingMsg{Enabled: got, Err: err}
	}
}
