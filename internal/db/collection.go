package db

import (
	"context"

	"github.com/induspec/plant-maintenance/internal/models"
)

// Collection names of the external store. Every collection supports
// bulk upsert-by-id, select-all and delete-by-id; app_settings is a
// singleton row under models.SettingsRowID.
const (
	CollEquipment      = "equipment"
	CollInventory      = "inventory"
	CollWorkOrders     = "work_orders"
	CollPlans          = "maintenance_plans"
	CollEquipmentTypes = "equipment_types"
	CollSettings       = "app_settings"
)

// Record is one row pushed to the external store, keyed by a string id.
type Record struct {
	ID  string
	Doc interface{}
}

// Store defines the external key-value document store contract. Upserts
// are idempotent full-row replaces.
type Store interface {
	UpsertMany(ctx context.Context, collection string, records []Record) error
	LoadAll(ctx context.Context, collection string, out interface{}) error
	DeleteByID(ctx context.Context, collection, id string) error
	LoadSettings(ctx context.Context) (*models.AppSettings, error)
	SaveSettings(ctx context.Context, settings models.AppSettings) error
}
