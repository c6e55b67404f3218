package models

import "github.com/shopspring/decimal"

// ManHourEntry records hours worked by one person on a work order.
type ManHourEntry struct {
	Worker string  `bson:"worker" json:"worker"`
	Hours  float64 `bson:"hours" json:"hours"`
}

// MaterialUsage records consumption of a spare part by a work order.
// The referenced part's stock is decremented once, when the order
// transitions to executed.
type MaterialUsage struct {
	PartID   string          `bson:"part_id" json:"part_id"`
	PartName string          `bson:"part_name,omitempty" json:"part_name,omitempty"`
	Quantity decimal.Decimal `bson:"quantity" json:"quantity"`
}

// PurchaseRequest is a parts purchase raised from a work order.
type PurchaseRequest struct {
	ID          string `bson:"id" json:"id"`
	Description string `bson:"description" json:"description"`
	Status      string `bson:"status" json:"status"`
	CreatedAt   string `bson:"created_at,omitempty" json:"created_at,omitempty"`
}

// WorkOrder (O.S.) is the unit of maintenance work. The ID doubles as
// the O.S. number and is the cross-reference key to an embedded schedule
// task, when one exists. EquipmentID may reference equipment that does
// not exist (ad-hoc building maintenance).
type WorkOrder struct {
	ID                 string            `bson:"_id" json:"id"`
	EquipmentID        string            `bson:"equipment_id,omitempty" json:"equipment_id,omitempty"`
	Type               MaintenanceType   `bson:"type,omitempty" json:"type,omitempty"`
	Status             TaskStatus        `bson:"status" json:"status"`
	ScheduledDate      string            `bson:"scheduled_date,omitempty" json:"scheduled_date,omitempty"`
	RequestDate        string            `bson:"request_date,omitempty" json:"request_date,omitempty"`
	EndDate            string            `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Description        string            `bson:"description" json:"description"`
	Observations       string            `bson:"observations,omitempty" json:"observations,omitempty"`
	ManHours           []ManHourEntry    `bson:"man_hours,omitempty" json:"man_hours,omitempty"`
	MaterialsUsed      []MaterialUsage   `bson:"materials_used,omitempty" json:"materials_used,omitempty"`
	RootCause          string            `bson:"root_cause,omitempty" json:"root_cause,omitempty"`
	Requester          string            `bson:"requester,omitempty" json:"requester,omitempty"`
	CorrectiveCategory string            `bson:"corrective_category,omitempty" json:"corrective_category,omitempty"`
	PurchaseRequests   []PurchaseRequest `bson:"purchase_requests,omitempty" json:"purchase_requests,omitempty"`
	StockApplied       bool              `bson:"stock_applied,omitempty" json:"stock_applied,omitempty"`
	Version            int64             `bson:"version" json:"version"`
}

// TotalManHours sums the individual man-hour entries.
func (o *WorkOrder) TotalManHours() float64 {
	var total float64
	for _, e := range o.ManHours {
		total += e.Hours
	}
	return total
}
