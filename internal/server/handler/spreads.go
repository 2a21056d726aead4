package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// SnapshotSource provides the latest snapshot.
type SnapshotSource interface {
	Latest(ctx context.Context) (domain.Snapshot, error)
}

// SpreadsHandler serves the latest report.
type SpreadsHandler struct {
	source SnapshotSource
	logger *slog.Logger
}

// NewSpreadsHandler creates a SpreadsHandler.
func NewSpreadsHandler(source SnapshotSource, logger *slog.Logger) *SpreadsHandler {
	return &SpreadsHandler{source: source, logger: logger.With(slog.String("handler", "spreads"))}
}

type categoryResponse struct {
	RunID       string               `json:"runId"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Category    domain.Category      `json:"category"`
	Data        []domain.ReportEntry `json:"data"`
}

// ListSpreads returns the latest snapshot. With ?format=report only the
// bare report object is returned, matching the published spreads.json.
// GET /api/spreads
func (h *SpreadsHandler) ListSpreads(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "report" {
		writeJSON(w, http.StatusOK, snap.Report)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetCategory returns one report section, optionally filtered by ?symbol=
// and truncated by ?limit=.
// GET /api/spreads/{category}
func (h *SpreadsHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, ok := domain.ParseCategory(strings.ToLower(r.PathValue("category")))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown category (valid: spot, futures, dex)")
		return
	}
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}

	opps := snap.Report.Section(cat)
	if sym := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol"))); sym != "" {
		filtered := make([]domain.SpreadOpportunity, 0, len(opps))
		for _, o := range opps {
			if o.Symbol == sym {
				filtered = append(filtered, o)
			}
		}
		opps = filtered
	}
	if limit := parseLimit(r); limit > 0 && len(opps) > limit {
		opps = opps[:limit]
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		RunID:       snap.RunID,
		GeneratedAt: snap.GeneratedAt.UTC(),
		Category:    cat,
		Data:        domain.Entries(opps),
	})
}

func (h *SpreadsHandler) latest(w http.ResponseWriter, r *http.Request) (domain.Snapshot, bool) {
	snap, err := h.source.Latest(r.Context())
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusServiceUnavailable, "no scan has completed yet")
		return domain.Snapshot{}, false
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load latest snapshot failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load latest report")
		return domain.Snapshot{}, false
	}
	return snap, true
}
