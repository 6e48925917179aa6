package fleethttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	fleet "solarfleet/internal/fleet/domain"
	"solarfleet/internal/fleet/interfaces"
)

// SnapshotSource hands out the current fleet snapshot.
type SnapshotSource interface {
	Get(ctx context.Context) (fleet.Snapshot, error)
}

// SnapshotHistory lists archived snapshot summaries, newest first.
type SnapshotHistory interface {
	ListRecent(ctx context.Context, limit int) ([]fleet.ArchivedSnapshot, error)
}

// LiveDataHandler serves the current fleet snapshot.
type LiveDataHandler struct {
	source SnapshotSource
}

// NewLiveDataHandler constructs a LiveDataHandler.
func NewLiveDataHandler(source SnapshotSource) *LiveDataHandler {
	return &LiveDataHandler{source: source}
}

// ServeHTTP handles GET /api/v1/fleet/live.
func (h *LiveDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.source == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	snap, err := h.source.Get(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTO(snap))
}

// HistoryHandler serves archived snapshot summaries.
type HistoryHandler struct {
	history SnapshotHistory
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(history SnapshotHistory) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// ServeHTTP handles GET /api/v1/fleet/history.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.history == nil {
		http.Error(w, "history not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "query history error", http.StatusInternalServerError)
		return
	}

	out := make([]archivedSnapshotDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toArchivedDTO(row))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// ExportHandler serves the current snapshot as a downloadable report.
type ExportHandler struct {
	source SnapshotSource
	format string
}

// NewExportHandler constructs an ExportHandler for "xlsx" or "pdf".
func NewExportHandler(source SnapshotSource, format string) *ExportHandler {
	return &ExportHandler{source: source, format: format}
}

// ServeHTTP handles GET /api/v1/fleet/export.{xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.source == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	snap, err := h.source.Get(r.Context())
	if err != nil {
		http.Error(w, "snapshot error", http.StatusInternalServerError)
		return
	}

	var payload []byte
	var contentType string
	switch h.format {
	case "pdf":
		payload, err = interfaces.BuildFleetPDF(snap)
		contentType = "application/pdf"
	case "xlsx":
		payload, err = interfaces.BuildFleetXLSX(snap)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		http.Error(w, "unsupported export format", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("fleet-%s.%s", snap.GeneratedAt.Format("20060102-1504"), h.format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(payload)
}
