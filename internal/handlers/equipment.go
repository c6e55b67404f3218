package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/registry"
)

// EquipmentHandler serves the equipment registry and its embedded
// schedules.
type EquipmentHandler struct {
	reg *registry.Registry
}

// NewEquipmentHandler creates an equipment handler.
func NewEquipmentHandler(reg *registry.Registry) *EquipmentHandler {
	return &EquipmentHandler{reg: reg}
}

// List returns every equipment with its projected schedule, or a single
// one when ?id= is given.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if id := r.URL.Query().Get("id"); id != "" {
		view, ok := h.reg.EquipmentView(id)
		if !ok {
			http.Error(w, "equipment not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, view)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.EquipmentList())
}

// Create registers a new equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var eq models.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.reg.AddEquipment(eq); err != nil {
		writeRegistryError(w, err)
		return
	}
	view, _ := h.reg.EquipmentView(eq.ID)
	writeJSON(w, http.StatusCreated, view)
}

// Update patches an equipment's descriptive fields.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var eq models.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.reg.UpdateEquipment(eq); err != nil {
		writeRegistryError(w, err)
		return
	}
	view, _ := h.reg.EquipmentView(eq.ID)
	writeJSON(w, http.StatusOK, view)
}

// Delete unregisters an equipment.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := h.reg.DeleteEquipment(id); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTask appends a schedule entry to an equipment's calendar.
func (h *EquipmentHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		EquipmentID string                 `json:"equipment_id"`
		Task        models.MaintenanceTask `json:"task"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	task, err := h.reg.AddTask(req.EquipmentID, req.Task)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// DeleteTask removes a schedule entry.
func (h *EquipmentHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	equipmentID := r.URL.Query().Get("equipment_id")
	taskID := r.URL.Query().Get("task_id")
	if equipmentID == "" || taskID == "" {
		http.Error(w, "equipment_id and task_id are required", http.StatusBadRequest)
		return
	}
	if err := h.reg.DeleteTask(equipmentID, taskID); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reschedule moves a schedule entry to another calendar slot.
func (h *EquipmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		EquipmentID string `json:"equipment_id"`
		TaskID      string `json:"task_id"`
		Year        int    `json:"year"`
		Month       string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.reg.RescheduleTask(req.EquipmentID, req.TaskID, req.Year, req.Month); err != nil {
		writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlanHandler serves maintenance plans and their expansion into
// schedule tasks.
type PlanHandler struct {
	reg *registry.Registry
}

// NewPlanHandler creates a plan handler.
func NewPlanHandler(reg *registry.Registry) *PlanHandler {
	return &PlanHandler{reg: reg}
}

// List returns every maintenance plan.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.Plans())
}

// Upsert registers or replaces a plan.
func (h *PlanHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var plan models.MaintenancePlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.reg.UpsertPlan(plan); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Expand generates the plan's schedule tasks for one year.
func (h *PlanHandler) Expand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	planID := r.URL.Query().Get("id")
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if planID == "" || err != nil {
		http.Error(w, "id and year are required", http.StatusBadRequest)
		return
	}
	added, err := h.reg.ExpandPlan(planID, year)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}
