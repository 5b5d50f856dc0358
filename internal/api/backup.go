package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/finledger/internal/backup"
)

const maxBackupBytes = 64 << 20

// GetBackup handles GET /api/v1/backup?format=json|xlsx.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	b := h.tracker.Backup(r.Context())
	stamp := b.ExportedAt.Format("20060102")

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="finledger-%s.json"`, stamp))
		w.Header().Set("Content-Type", "application/json")
		if err := backup.WriteJSON(w, b); err != nil {
			slog.Warn("failed to write backup", "error", err)
		}
	case "xlsx":
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="finledger-%s.xlsx"`, stamp))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := backup.WriteXLSX(w, b); err != nil {
			slog.Warn("failed to write spreadsheet backup", "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

// PostBackup handles POST /api/v1/backup. The uploaded bundle is merged into the stored data.
func (h *Handler) PostBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)
	b, err := backup.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup document")
		return
	}
	reports, err := h.tracker.Restore(r.Context(), b)
	if err != nil {
		slog.Error("restore failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "restore incomplete", "collections": reports})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": reports})
}
