package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/notify"
	"github.com/induspec/plant-maintenance/internal/registry"
)

// WorkOrderHandler serves the flat work-order list and the save path
// that keeps it reconciled with the equipment schedules.
type WorkOrderHandler struct {
	reg       *registry.Registry
	publisher *notify.Publisher
}

// NewWorkOrderHandler creates a work-order handler. publisher may be
// nil when no broker is configured.
func NewWorkOrderHandler(reg *registry.Registry, publisher *notify.Publisher) *WorkOrderHandler {
	return &WorkOrderHandler{reg: reg, publisher: publisher}
}

// SaveRequest is the work-order save payload.
type SaveRequest struct {
	Order models.WorkOrder `json:"order"`
	// AcknowledgeMissingRootCause confirms closing a corrective order
	// without a root-cause analysis.
	AcknowledgeMissingRootCause bool `json:"acknowledge_missing_root_cause,omitempty"`
}

// List returns every work order.
func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.WorkOrders())
}

// Save commits an edited or new work order.
func (h *WorkOrderHandler) Save(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	saved, err := h.reg.SaveWorkOrder(req.Order, registry.SaveOptions{
		AcknowledgeMissingRootCause: req.AcknowledgeMissingRootCause,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	h.publisher.OrderSaved(saved)
	writeJSON(w, http.StatusOK, saved)
}

// Delete removes a work order from the list and the external store.
func (h *WorkOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := h.reg.DeleteWorkOrder(id); err != nil {
		writeRegistryError(w, err)
		return
	}
	h.publisher.OrderDeleted(id)
	w.WriteHeader(http.StatusNoContent)
}

// CreateRequest opens a corrective order from a failure report.
func (h *WorkOrderHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		EquipmentID        string `json:"equipment_id"`
		CorrectiveCategory string `json:"corrective_category"`
		Description        string `json:"description"`
		Requester          string `json:"requester"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	order, err := h.reg.CreateCorrectiveRequest(req.EquipmentID, req.CorrectiveCategory, req.Description, req.Requester)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	h.publisher.OrderSaved(order)
	writeJSON(w, http.StatusCreated, order)
}

// Close records the execution of an open order: end date, root cause,
// man-hours and consumed materials.
func (h *WorkOrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		OrderID                     string                 `json:"order_id"`
		EndDate                     string                 `json:"end_date"`
		RootCause                   string                 `json:"root_cause"`
		ManHours                    []models.ManHourEntry  `json:"man_hours"`
		Materials                   []models.MaterialUsage `json:"materials"`
		AcknowledgeMissingRootCause bool                   `json:"acknowledge_missing_root_cause,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	order, err := h.reg.RecordExecution(req.OrderID, req.EndDate, req.RootCause, req.ManHours, req.Materials, registry.SaveOptions{
		AcknowledgeMissingRootCause: req.AcknowledgeMissingRootCause,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	h.publisher.OrderSaved(order)
	writeJSON(w, http.StatusOK, order)
}

// AttachPurchase raises a parts purchase request from a work order.
func (h *WorkOrderHandler) AttachPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		OrderID     string `json:"order_id"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	pr, err := h.reg.AttachPurchaseRequest(req.OrderID, req.Description)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}

// NextNumber returns the next sequential O.S. number.
func (h *WorkOrderHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"next": h.reg.NextOrder()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRegistryError maps registry errors onto HTTP statuses:
// validation blocks are 400, the root-cause soft warning is 409 so the
// client can re-submit with confirmation, unknown records are 404.
func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrRootCauseMissing):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":                 err.Error(),
			"requires_confirmation": true,
		})
	case registry.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, registry.ErrOrderNotFound),
		errors.Is(err, registry.ErrEquipmentNotFound),
		errors.Is(err, registry.ErrTaskNotFound),
		errors.Is(err, registry.ErrPartNotFound),
		errors.Is(err, registry.ErrPlanNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
