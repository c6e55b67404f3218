package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/registry"
)

func TestEquipmentHandler_CreateAndList(t *testing.T) {
	reg := registry.New(nil)
	h := NewEquipmentHandler(reg)

	w := postJSON(t, h.Create, "/api/equipment/create", models.Equipment{
		ID:       "comp-01",
		Name:     "Compressor 01",
		Location: "Sala de máquinas",
		Active:   true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/equipment", nil)
	lw := httptest.NewRecorder()
	h.List(lw, req)
	require.Equal(t, http.StatusOK, lw.Code)

	var list []models.Equipment
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Compressor 01", list[0].Name)

	req = httptest.NewRequest(http.MethodGet, "/api/equipment?id=comp-01", nil)
	gw := httptest.NewRecorder()
	h.List(gw, req)
	assert.Equal(t, http.StatusOK, gw.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/equipment?id=nope", nil)
	gw = httptest.NewRecorder()
	h.List(gw, req)
	assert.Equal(t, http.StatusNotFound, gw.Code)
}

func TestEquipmentHandler_TaskLifecycle(t *testing.T) {
	reg := seededRegistry(t)
	h := NewEquipmentHandler(reg)

	w := postJSON(t, h.AddTask, "/api/equipment/tasks/add", map[string]interface{}{
		"equipment_id": "pump-01",
		"task": models.MaintenanceTask{
			ID:          "task-1",
			Year:        2026,
			Month:       "Março",
			Status:      models.StatusScheduled,
			Type:        models.TypePreventive,
			Description: "Inspeção do acoplamento",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.Reschedule, "/api/equipment/tasks/reschedule", map[string]interface{}{
		"equipment_id": "pump-01",
		"task_id":      "task-1",
		"year":         2026,
		"month":        "Maio",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	view, ok := reg.EquipmentView("pump-01")
	require.True(t, ok)
	require.Len(t, view.Schedule, 1)
	assert.Equal(t, "Maio", view.Schedule[0].Month)

	req := httptest.NewRequest(http.MethodDelete, "/api/equipment/tasks/delete?equipment_id=pump-01&task_id=task-1", nil)
	dw := httptest.NewRecorder()
	h.DeleteTask(dw, req)
	assert.Equal(t, http.StatusNoContent, dw.Code)
}

func TestPlanHandler_UpsertAndExpand(t *testing.T) {
	reg := seededRegistry(t)
	h := NewPlanHandler(reg)

	w := postJSON(t, h.Upsert, "/api/plans/save", models.MaintenancePlan{
		ID:              "plan-1",
		EquipmentID:     "pump-01",
		Type:            models.TypePreventive,
		Description:     "Plano trimestral",
		FrequencyMonths: 3,
		StartMonth:      1,
		Active:          true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/plans/expand?id=plan-1&year=2026", nil)
	ew := httptest.NewRecorder()
	h.Expand(ew, req)
	require.Equal(t, http.StatusOK, ew.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(ew.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp["added"])
}

func TestInventoryHandler_UpsertAdjustAndLowStock(t *testing.T) {
	reg := registry.New(nil)
	h := NewInventoryHandler(reg, nil)

	w := postJSON(t, h.Upsert, "/api/inventory/save", models.SparePart{
		ID:           "seal-30",
		Name:         "Selo mecânico 30mm",
		CurrentStock: decimal.NewFromInt(4),
		MinStock:     decimal.NewFromInt(2),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, h.Adjust, "/api/inventory/adjust", map[string]interface{}{
		"part_id": "seal-30",
		"delta":   "-3",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var part models.SparePart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &part))
	assert.True(t, part.CurrentStock.Equal(decimal.NewFromInt(1)))

	req := httptest.NewRequest(http.MethodGet, "/api/inventory?low=true", nil)
	lw := httptest.NewRecorder()
	h.List(lw, req)
	require.Equal(t, http.StatusOK, lw.Code)

	var low []models.SparePart
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &low))
	require.Len(t, low, 1)
	assert.Equal(t, "seal-30", low[0].ID)
}

func TestReportHandler_RangeAndYear(t *testing.T) {
	reg := seededRegistry(t)
	wh := NewWorkOrderHandler(reg, nil)

	w := postJSON(t, wh.Save, "/api/workorders/save", SaveRequest{
		Order: models.WorkOrder{
			ID:                 "0010",
			EquipmentID:        "pump-01",
			Type:               models.TypeCorrective,
			CorrectiveCategory: "mecânica",
			RootCause:          "Desalinhamento",
			Status:             models.StatusExecuted,
			ScheduledDate:      "2026-03-10",
			EndDate:            "2026-03-10",
			Description:        "Correção de vibração",
			ManHours:           []models.ManHourEntry{{Worker: "t1", Hours: 2}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	h := NewReportHandler(reg)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/range?start=2026-01-01&end=2026-12-31", nil)
	rw := httptest.NewRecorder()
	h.Range(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)

	var reports []map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, float64(1), reports[0]["total_failures"])

	req = httptest.NewRequest(http.MethodGet, "/api/reports/year?year=2026", nil)
	yw := httptest.NewRecorder()
	h.Year(yw, req)
	require.Equal(t, http.StatusOK, yw.Code)

	// Missing parameters are a client error.
	req = httptest.NewRequest(http.MethodGet, "/api/reports/range", nil)
	bw := httptest.NewRecorder()
	h.Range(bw, req)
	assert.Equal(t, http.StatusBadRequest, bw.Code)
}

func TestSettingsHandler_GetAndUpdate(t *testing.T) {
	reg := registry.New(nil)
	h := NewSettingsHandler(reg)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	w := httptest.NewRecorder()
	h.Get(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	raw, err := json.Marshal(models.AppSettings{
		ID:          models.SettingsRowID,
		PlantName:   "Unidade Industrial Sul",
		SyncEnabled: true,
	})
	require.NoError(t, err)
	ur := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(raw))
	uw := httptest.NewRecorder()
	h.Update(uw, ur)
	require.Equal(t, http.StatusOK, uw.Code)

	assert.Equal(t, "Unidade Industrial Sul", reg.Settings().PlantName)
}

func TestSyncHandler_StatusWithoutSyncer(t *testing.T) {
	h := NewSyncHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
	w := httptest.NewRecorder()
	h.Status(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "offline", resp["status"])
}
