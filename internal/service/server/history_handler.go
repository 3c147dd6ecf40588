package server

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/port"
)

// HistoryHandler serves the bundle audit log
type HistoryHandler struct {
	store  port.HistoryStore
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(store port.HistoryStore, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

type bundleRecordResponse struct {
	ID             string    `json:"id"`
	ZipName        string    `json:"zipName"`
	FilesRequested int       `json:"filesRequested"`
	FilesArchived  int       `json:"filesArchived"`
	FilesSkipped   int       `json:"filesSkipped"`
	TotalBytes     int64     `json:"totalBytes"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HandleRecent handles GET /api/bundles?limit=N
func (h *HistoryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	records, err := h.store.RecentBundles(limit)
	if err != nil {
		h.logger.Error("failed to load bundle history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	out := make([]bundleRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, bundleRecordResponse{
			ID:             rec.ID.String(),
			ZipName:        rec.ZipName,
			FilesRequested: rec.FilesRequested,
			FilesArchived:  rec.FilesArchived,
			FilesSkipped:   rec.FilesSkipped,
			TotalBytes:     rec.TotalBytes,
			CreatedAt:      rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"bundles": out})
}
