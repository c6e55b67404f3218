package handlers

import (
	"net/http"

	"github.com/induspec/plant-maintenance/internal/outbox"
)

// SyncHandler exposes the state of the background store synchronizer.
type SyncHandler struct {
	syncer *outbox.Syncer
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(syncer *outbox.Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// Status reports the synchronizer's connection state and how many
// local changes still wait for a push.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.syncer == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  outbox.StatusOffline,
			"pending": 0,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  h.syncer.Status(),
		"pending": h.syncer.Pending(),
	})
}

// Flush forces an immediate push of any pending local changes.
func (h *SyncHandler) Flush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.syncer == nil {
		http.Error(w, "sync is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.syncer.Flush(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
