package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/service"
)

// ArchiveHandler serves the event journal and archive endpoints. The archive
// endpoints are no-ops when archiving is disabled in config; the handler is
// simply not registered in that case.
type ArchiveHandler struct {
	svc    *service.ArchiveService
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(svc *service.ArchiveService, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{svc: svc, logger: logger}
}

// ListEvents returns journaled ledger events, newest first.
// GET /api/events
func (h *ArchiveHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := h.svc.ListEvents(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": evs,
		"count":  len(evs),
	})
}

// archiveRequest is the payload for a manual archive run. Before is RFC 3339;
// records strictly older than it are archived.
type archiveRequest struct {
	Before time.Time `json:"before"`
}

// TriggerArchive snapshots history older than the requested cutoff to object
// storage.
// POST /api/archives
func (h *ArchiveHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Before.IsZero() {
		writeError(w, http.StatusBadRequest, "before is required")
		return
	}

	prefix, err := h.svc.Archive(r.Context(), req.Before)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if prefix == "" {
		writeJSON(w, http.StatusOK, map[string]any{"archived": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"archived": true,
		"prefix":   prefix,
	})
}

// ListArchives returns metadata for all archived files.
// GET /api/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.ListArchives(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archives": infos,
		"count":    len(infos),
	})
}

// DownloadArchive streams one archived JSONL file.
// GET /api/archives/{path...}
func (h *ArchiveHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" || strings.Contains(path, "..") {
		writeError(w, http.StatusBadRequest, "invalid archive path")
		return
	}

	rc, err := h.svc.OpenArchive(r.Context(), "archive/"+path)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "archive download interrupted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
