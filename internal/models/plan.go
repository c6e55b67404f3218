package models

// MaintenancePlan generates schedule tasks for an equipment at a fixed
// monthly frequency.
type MaintenancePlan struct {
	ID              string          `bson:"_id" json:"id"`
	EquipmentID     string          `bson:"equipment_id" json:"equipment_id"`
	Type            MaintenanceType `bson:"type" json:"type"`
	Description     string          `bson:"description" json:"description"`
	FrequencyMonths int             `bson:"frequency_months" json:"frequency_months"`
	StartMonth      int             `bson:"start_month" json:"start_month"` // 1-12
	Active          bool            `bson:"active" json:"active"`
}

// AppSettings is the settings singleton, stored under a fixed row id.
type AppSettings struct {
	ID            string `bson:"_id" json:"id"`
	PlantName     string `bson:"plant_name" json:"plant_name"`
	NextOrderSeed string `bson:"next_order_seed,omitempty" json:"next_order_seed,omitempty"`
	SyncEnabled   bool   `bson:"sync_enabled" json:"sync_enabled"`
}

// SettingsRowID is the fixed primary key of the settings singleton.
const SettingsRowID = "app_settings"
