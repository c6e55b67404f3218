package handlers

import (
	"net/http"
	"strconv"

	"github.com/induspec/plant-maintenance/internal/registry"
)

// ReportHandler serves reliability reports computed over the failure
// history.
type ReportHandler struct {
	reg *registry.Registry
}

// NewReportHandler creates a report handler.
func NewReportHandler(reg *registry.Registry) *ReportHandler {
	return &ReportHandler{reg: reg}
}

// Range computes per-equipment reliability indicators for an arbitrary
// date window (?start=...&end=...). An unparseable or inverted window
// yields an empty report set.
func (h *ReportHandler) Range(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		http.Error(w, "start and end are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.MetricsRange(start, end))
}

// Year computes per-equipment reliability indicators over a calendar
// year (?year=...).
func (h *ReportHandler) Year(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "year is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.MetricsYear(year))
}
