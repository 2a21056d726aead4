package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// CheckFunc pings one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler reports liveness plus the state of configured dependencies.
type HealthHandler struct {
	checks  map[string]CheckFunc
	source  SnapshotSource
	maxAge  time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. A snapshot older than maxAge
// marks the service degraded; zero disables the staleness check.
func NewHealthHandler(checks map[string]CheckFunc, source SnapshotSource, maxAge time.Duration, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		source:  source,
		maxAge:  maxAge,
		timeout: 2 * time.Second,
		now:     time.Now,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck responds 200 when every dependency is healthy and 503 otherwise.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "dependency unhealthy", slog.String("dependency", name), slog.String("error", err.Error()))
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	resp := map[string]any{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if len(deps) > 0 {
		resp["dependencies"] = deps
	}
	if h.source != nil {
		if snap, err := h.source.Latest(ctx); err == nil {
			age := h.now().Sub(snap.GeneratedAt)
			resp["lastRunId"] = snap.RunID
			resp["lastScanAgeSeconds"] = int64(age.Seconds())
			if h.maxAge > 0 && age > h.maxAge {
				resp["status"] = "degraded"
				status = "degraded"
			}
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
