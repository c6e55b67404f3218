package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/registry"
)

func seededRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(nil)
	require.NoError(t, reg.AddEquipment(models.Equipment{
		ID:     "pump-01",
		Name:   "Bomba Centrífuga 01",
		Active: true,
	}))
	return reg
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestWorkOrderHandler_SaveAndList(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	w := postJSON(t, h.Save, "/api/workorders/save", SaveRequest{
		Order: models.WorkOrder{
			ID:            "0001",
			EquipmentID:   "pump-01",
			Type:          models.TypePreventive,
			Status:        models.StatusScheduled,
			ScheduledDate: "2026-04-10",
			Description:   "Lubrificação trimestral",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var saved models.WorkOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "0001", saved.ID)
	assert.Equal(t, int64(1), saved.Version)

	req := httptest.NewRequest(http.MethodGet, "/api/workorders", nil)
	lw := httptest.NewRecorder()
	h.List(lw, req)
	require.Equal(t, http.StatusOK, lw.Code)

	var orders []models.WorkOrder
	require.NoError(t, json.Unmarshal(lw.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "0001", orders[0].ID)
}

func TestWorkOrderHandler_SaveValidationFails(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	// Corrective order without a failure category is rejected outright.
	w := postJSON(t, h.Save, "/api/workorders/save", SaveRequest{
		Order: models.WorkOrder{
			ID:          "0002",
			EquipmentID: "pump-01",
			Type:        models.TypeCorrective,
			Status:      models.StatusScheduled,
			Description: "Vazamento no selo",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkOrderHandler_RootCauseConfirmationFlow(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	order := models.WorkOrder{
		ID:                 "0003",
		EquipmentID:        "pump-01",
		Type:               models.TypeCorrective,
		CorrectiveCategory: "mecânica",
		Status:             models.StatusExecuted,
		ScheduledDate:      "2026-02-01",
		EndDate:            "2026-02-02",
		Description:        "Troca de rolamento",
	}

	w := postJSON(t, h.Save, "/api/workorders/save", SaveRequest{Order: order})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["requires_confirmation"])

	// Re-submitting with the acknowledgement commits the order.
	w = postJSON(t, h.Save, "/api/workorders/save", SaveRequest{
		Order:                       order,
		AcknowledgeMissingRootCause: true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkOrderHandler_Delete(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	w := postJSON(t, h.Save, "/api/workorders/save", SaveRequest{
		Order: models.WorkOrder{
			ID:          "0004",
			Status:      models.StatusScheduled,
			Description: "Reparo no portão",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/workorders/delete?id=0004", nil)
	dw := httptest.NewRecorder()
	h.Delete(dw, req)
	assert.Equal(t, http.StatusNoContent, dw.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/workorders/delete?id=0004", nil)
	dw = httptest.NewRecorder()
	h.Delete(dw, req)
	assert.Equal(t, http.StatusNotFound, dw.Code)
}

func TestWorkOrderHandler_CreateRequest(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	w := postJSON(t, h.CreateRequest, "/api/workorders/request", map[string]string{
		"equipment_id":        "pump-01",
		"corrective_category": "elétrica",
		"description":         "Motor não parte",
		"requester":           "operador-3",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.WorkOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "0001", order.ID)
	assert.Equal(t, models.TypeCorrective, order.Type)
}

func TestWorkOrderHandler_CloseAndPurchase(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	w := postJSON(t, h.Save, "/api/workorders/save", SaveRequest{
		Order: models.WorkOrder{
			ID:                 "0005",
			EquipmentID:        "pump-01",
			Type:               models.TypeCorrective,
			CorrectiveCategory: "mecânica",
			Status:             models.StatusScheduled,
			ScheduledDate:      "2026-05-01",
			Description:        "Ruído anormal no mancal",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, h.AttachPurchase, "/api/workorders/purchase", map[string]string{
		"order_id":    "0005",
		"description": "Rolamento 6205-2RS",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var pr models.PurchaseRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pr))
	assert.NotEmpty(t, pr.ID)

	w = postJSON(t, h.Close, "/api/workorders/close", map[string]interface{}{
		"order_id":   "0005",
		"end_date":   "2026-05-02",
		"root_cause": "Desgaste de rolamento",
		"man_hours":  []models.ManHourEntry{{Worker: "técnico-1", Hours: 4}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var closed models.WorkOrder
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &closed))
	assert.Equal(t, models.StatusExecuted, closed.Status)
	assert.Equal(t, "2026-05-02", closed.EndDate)
}

func TestWorkOrderHandler_NextNumber(t *testing.T) {
	reg := seededRegistry(t)
	h := NewWorkOrderHandler(reg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/workorders/next", nil)
	w := httptest.NewRecorder()
	h.NextNumber(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"0001"`))
}

func TestWorkOrderHandler_MethodNotAllowed(t *testing.T) {
	h := NewWorkOrderHandler(registry.New(nil), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/workorders", nil)
	w := httptest.NewRecorder()
	h.List(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
