package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Equipment mirrors the API's equipment payload.
type Equipment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Active   bool   `json:"active"`
	Critical bool   `json:"critical"`
	Family   string `json:"family,omitempty"`
}

// WorkOrder mirrors the API's work-order payload.
type WorkOrder struct {
	ID                 string         `json:"id"`
	EquipmentID        string         `json:"equipment_id,omitempty"`
	Type               string         `json:"type,omitempty"`
	Status             string         `json:"status"`
	ScheduledDate      string         `json:"scheduled_date,omitempty"`
	EndDate            string         `json:"end_date,omitempty"`
	Description        string         `json:"description"`
	ManHours           []ManHourEntry `json:"man_hours,omitempty"`
	RootCause          string         `json:"root_cause,omitempty"`
	CorrectiveCategory string         `json:"corrective_category,omitempty"`
}

// ManHourEntry mirrors the API's man-hour payload.
type ManHourEntry struct {
	Worker string  `json:"worker"`
	Hours  float64 `json:"hours"`
}

var plantAssets = []Equipment{
	{ID: "pump-01", Name: "Bomba Centrífuga 01", Location: "Casa de bombas", Active: true, Critical: true, Family: "Bombas"},
	{ID: "pump-02", Name: "Bomba Centrífuga 02", Location: "Casa de bombas", Active: true, Family: "Bombas"},
	{ID: "comp-01", Name: "Compressor de Ar 01", Location: "Sala de máquinas", Active: true, Critical: true, Family: "Compressores"},
	{ID: "mill-01", Name: "Moinho de Martelos", Location: "Moagem", Active: true, Family: "Moinhos"},
	{ID: "conv-01", Name: "Transportador de Correia 01", Location: "Expedição", Active: true, Family: "Transportadores"},
	{ID: "boiler-01", Name: "Caldeira 01", Location: "Utilidades", Active: true, Critical: true, Family: "Caldeiras"},
	{ID: "fan-01", Name: "Exaustor Industrial", Location: "Secagem", Active: true, Family: "Ventilação"},
	{ID: "gear-01", Name: "Redutor Principal", Location: "Moagem", Active: true, Family: "Redutores"},
}

var failureCategories = []string{"mecânica", "elétrica", "instrumentação", "hidráulica"}

var failureCauses = []string{
	"Desgaste de rolamento",
	"Falha no selo mecânico",
	"Sobrecorrente no motor",
	"Desalinhamento do acoplamento",
	"Obstrução na linha",
	"Sensor descalibrado",
	"",
}

var workers = []string{"técnico-1", "técnico-2", "técnico-3", "técnico-4"}

// MaintenancePlan mirrors the API's plan payload.
type MaintenancePlan struct {
	ID              string `json:"id"`
	EquipmentID     string `json:"equipment_id"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	FrequencyMonths int    `json:"frequency_months"`
	StartMonth      int    `json:"start_month"`
	Active          bool   `json:"active"`
}

var authToken string

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func createEquipment(apiURL string, eq Equipment) error {
	data, err := json.Marshal(eq)
	if err != nil {
		return fmt.Errorf("failed to marshal equipment: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/equipment/create", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("equipment creation failed with status: %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{
		"equipment_id": eq.ID,
		"name":         eq.Name,
	}).Info("Created equipment")
	return nil
}

// seedPlan creates a quarterly preventive plan for an asset and expands
// it over the current year.
func seedPlan(apiURL string, eq Equipment, year int) error {
	plan := MaintenancePlan{
		ID:              "plan-" + eq.ID,
		EquipmentID:     eq.ID,
		Type:            "preventive",
		Description:     fmt.Sprintf("Plano preventivo: %s", eq.Name),
		FrequencyMonths: 3,
		StartMonth:      1,
		Active:          true,
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/plans/save", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plan save failed with status: %d", resp.StatusCode)
	}

	expandURL := fmt.Sprintf("%s/plans/expand?id=%s&year=%d", apiURL, plan.ID, year)
	resp, err = authorizedPost(expandURL, "application/json", bytes.NewBuffer(nil))
	if err != nil {
		return fmt.Errorf("failed to expand plan: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plan expansion failed with status: %d", resp.StatusCode)
	}
	return nil
}

func nextOrderNumber(apiURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, apiURL+"/workorders/next", nil)
	if err != nil {
		return "", err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	next, ok := result["next"]
	if !ok {
		return "", fmt.Errorf("no next number in response")
	}
	return next, nil
}

func saveOrder(apiURL string, order WorkOrder, acknowledge bool) error {
	payload := map[string]interface{}{"order": order}
	if acknowledge {
		payload["acknowledge_missing_root_cause"] = true
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/workorders/save", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	defer resp.Body.Close()

	// A close without root cause is answered with 409; re-submit with
	// the acknowledgement the way a supervisor would.
	if resp.StatusCode == http.StatusConflict && !acknowledge {
		return saveOrder(apiURL, order, true)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order save failed with status: %d", resp.StatusCode)
	}
	return nil
}

// simulateFailure opens a corrective order for a random asset and, after
// a short repair window, closes it with man-hours and sometimes a root
// cause.
func simulateFailure(apiURL string, now time.Time) {
	eq := plantAssets[rand.Intn(len(plantAssets))]
	number, err := nextOrderNumber(apiURL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch next order number")
		return
	}

	category := failureCategories[rand.Intn(len(failureCategories))]
	cause := failureCauses[rand.Intn(len(failureCauses))]
	repairHours := 0.5 + rand.Float64()*7.5

	order := WorkOrder{
		ID:                 number,
		EquipmentID:        eq.ID,
		Type:               "corrective",
		Status:             "executed",
		ScheduledDate:      now.Format("2006-01-02"),
		EndDate:            now.Format("2006-01-02"),
		Description:        fmt.Sprintf("Parada não programada: %s", eq.Name),
		CorrectiveCategory: category,
		RootCause:          cause,
		ManHours: []ManHourEntry{
			{Worker: workers[rand.Intn(len(workers))], Hours: repairHours},
		},
	}

	if err := saveOrder(apiURL, order, false); err != nil {
		log.WithError(err).Error("Failed to save corrective order")
		return
	}

	log.WithFields(log.Fields{
		"order":        number,
		"equipment_id": eq.ID,
		"category":     category,
		"hours":        fmt.Sprintf("%.1f", repairHours),
	}).Info("Simulated failure")
}

// simulatePreventive schedules and immediately executes a planned job.
func simulatePreventive(apiURL string, now time.Time) {
	eq := plantAssets[rand.Intn(len(plantAssets))]
	number, err := nextOrderNumber(apiURL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch next order number")
		return
	}

	order := WorkOrder{
		ID:            number,
		EquipmentID:   eq.ID,
		Type:          "preventive",
		Status:        "executed",
		ScheduledDate: now.Format("2006-01-02"),
		EndDate:       now.Format("2006-01-02"),
		Description:   fmt.Sprintf("Manutenção preventiva: %s", eq.Name),
		ManHours: []ManHourEntry{
			{Worker: workers[rand.Intn(len(workers))], Hours: 1 + rand.Float64()*3},
		},
	}

	if err := saveOrder(apiURL, order, false); err != nil {
		log.WithError(err).Error("Failed to save preventive order")
		return
	}

	log.WithFields(log.Fields{
		"order":        number,
		"equipment_id": eq.ID,
	}).Info("Simulated preventive job")
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	failureRate := 0.3
	if v := os.Getenv("SIM_FAILURE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			failureRate = f
		}
	}

	log.WithFields(log.Fields{
		"api_url":      apiURL,
		"interval":     interval,
		"failure_rate": failureRate,
		"assets":       len(plantAssets),
	}).Info("Starting plant history simulation")

	created := 0
	year := time.Now().Year()
	for _, eq := range plantAssets {
		if err := createEquipment(apiURL, eq); err != nil {
			log.WithError(err).Error("Failed to create equipment")
			continue
		}
		created++
		if eq.Critical {
			if err := seedPlan(apiURL, eq, year); err != nil {
				log.WithError(err).Warn("Failed to seed maintenance plan")
			}
		}
	}
	if created == 0 {
		log.Error("No equipment created. Ensure SIM_AUTH_TOKEN is valid and API is reachable. Exiting.")
		time.Sleep(2 * time.Second)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for now := range ticker.C {
		if rand.Float64() < failureRate {
			simulateFailure(apiURL, now)
		} else {
			simulatePreventive(apiURL, now)
		}
	}
}
