package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAuthorizedPost_SetsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	authToken = "test-token"
	defer func() { authToken = "" }()

	resp, err := authorizedPost(server.URL, "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("authorizedPost failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestNextOrderNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/workorders/next" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"next": "0042"})
	}))
	defer server.Close()

	number, err := nextOrderNumber(server.URL)
	if err != nil {
		t.Fatalf("nextOrderNumber failed: %v", err)
	}
	if number != "0042" {
		t.Errorf("expected 0042, got %q", number)
	}
}

func TestSaveOrder_RetriesWithAcknowledgement(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			if payload["acknowledge_missing_root_cause"] != nil {
				t.Error("first attempt must not carry the acknowledgement")
			}
			w.WriteHeader(http.StatusConflict)
			return
		}
		if payload["acknowledge_missing_root_cause"] != true {
			t.Error("retry must carry the acknowledgement")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	order := WorkOrder{
		ID:                 "0001",
		EquipmentID:        "pump-01",
		Type:               "corrective",
		Status:             "executed",
		ScheduledDate:      time.Now().Format("2006-01-02"),
		EndDate:            time.Now().Format("2006-01-02"),
		Description:        "Troca de rolamento",
		CorrectiveCategory: "mecânica",
	}
	if err := saveOrder(server.URL, order, false); err != nil {
		t.Fatalf("saveOrder failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestSaveOrder_PropagatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := saveOrder(server.URL, WorkOrder{ID: "0001", Status: "scheduled", Description: "x"}, false)
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestCreateEquipment_AcceptsExisting(t *testing.T) {
	// Re-running the simulator against a primed API answers 400 for
	// duplicate ids; that must not abort the run.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	if err := createEquipment(server.URL, plantAssets[0]); err != nil {
		t.Fatalf("createEquipment failed: %v", err)
	}
}
