package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/registry"
)

// SettingsHandler reads and updates the application settings row.
type SettingsHandler struct {
	reg *registry.Registry
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(reg *registry.Registry) *SettingsHandler {
	return &SettingsHandler{reg: reg}
}

// Get returns the current settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.Settings())
}

// Update replaces the settings row.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var settings models.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	h.reg.UpdateSettings(settings)
	writeJSON(w, http.StatusOK, settings)
}

// TypeHandler serves the equipment-type catalog.
type TypeHandler struct {
	reg *registry.Registry
}

// NewTypeHandler creates an equipment-type handler.
func NewTypeHandler(reg *registry.Registry) *TypeHandler {
	return &TypeHandler{reg: reg}
}

// List returns every registered equipment type.
func (h *TypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.EquipmentTypes())
}

// Upsert registers or replaces an equipment type.
func (h *TypeHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var et models.EquipmentType
	if err := json.NewDecoder(r.Body).Decode(&et); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := h.reg.UpsertEquipmentType(et); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, et)
}
