package ws

import (
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	OK         bool      `json:"ok"`
	Status     string    `json:"status"`
	Clients    int       `json:"clients"`
	Uptime     string    `json:"uptime"`
	PID        int       `json:"pid"`
	RSSBytes   uint64    `json:"rssBytes,omitempty"`
	CPUPercent float64   `json:"cpuPercent,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		OK:        true,
		Status:    s.source.CurrentStatus().String(),
		Clients:   s.hub.ClientCount(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		PID:       os.Getpid(),
		StartedAt: s.started,
	}

	// Process stats are best effort; some platforms refuse them.
	if proc, err := process.NewProcessWithContext(r.Context(), int32(resp.PID)); err == nil {
		if mem, err := proc.MemoryInfoWithContext(r.Context()); err == nil {
			resp.RSSBytes = mem.RSS
		}
		if cpu, err := proc.CPUPercentWithContext(r.Context()); err == nil {
			resp.CPUPercent = cpu
		}
		if ms, err := proc.CreateTimeWithContext(r.Context()); err == nil {
			resp.StartedAt = time.UnixMilli(ms)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
