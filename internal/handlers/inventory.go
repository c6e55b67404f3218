package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/notify"
	"github.com/induspec/plant-maintenance/internal/registry"
)

// InventoryHandler serves the spare-part stock.
type InventoryHandler struct {
	reg       *registry.Registry
	publisher *notify.Publisher
}

// NewInventoryHandler creates an inventory handler. publisher may be
// nil when no broker is configured.
func NewInventoryHandler(reg *registry.Registry, publisher *notify.Publisher) *InventoryHandler {
	return &InventoryHandler{reg: reg, publisher: publisher}
}

// List returns every spare part, or only the parts at or below their
// minimum when ?low=true.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("low") == "true" {
		writeJSON(w, http.StatusOK, h.reg.PartsBelowMinimum())
		return
	}
	writeJSON(w, http.StatusOK, h.reg.SpareParts())
}

// Upsert registers or replaces a spare part.
func (h *InventoryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var part models.SparePart
	if err := json.NewDecoder(r.Body).Decode(&part); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.reg.UpsertPart(part); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, part)
}

// Adjust applies a signed stock delta to a part.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		PartID string          `json:"part_id"`
		Delta  decimal.Decimal `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	part, err := h.reg.AdjustStock(req.PartID, req.Delta)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if part.BelowMinimum() {
		h.publisher.LowStock(part)
	}
	writeJSON(w, http.StatusOK, part)
}
