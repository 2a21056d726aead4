package handler

import (
	"net/http"
	"time"
)

// Status describes the running scanner.
type Status struct {
	Mode       string            `json:"mode"`
	Version    string            `json:"version,omitempty"`
	Adapters   []string          `json:"adapters"`
	Proxies    map[string]string `json:"proxies,omitempty"`
	Sinks      []string          `json:"sinks"`
	ChainAware bool              `json:"chainAware"`
	Interval   string            `json:"interval,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
}

// StatusHandler serves the static runtime description.
type StatusHandler struct {
	status Status
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(status Status) *StatusHandler {
	return &StatusHandler{status: status}
}

// GetStatus responds with the scanner configuration summary.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	resp := h.status
	resp.StartedAt = resp.StartedAt.UTC()
	writeJSON(w, http.StatusOK, resp)
}
