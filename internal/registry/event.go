package registry

import (
	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/timeutil"
)

// MaintenanceEvent is the authoritative record of one real-world
// maintenance intervention. The per-equipment schedule and the flat
// work-order list are projections of these records, so a single event
// can never be silently duplicated across the two views.
type MaintenanceEvent struct {
	ID                 string
	EquipmentID        string
	Year               int
	Month              string
	Status             models.TaskStatus
	Type               models.MaintenanceType
	Description        string
	Observations       string
	OSNumber           string
	ScheduledDate      string
	RequestDate        string
	EndDate            string
	RootCause          string
	Requester          string
	CorrectiveCategory string
	ManHours           []models.ManHourEntry
	MaterialsUsed      []models.MaterialUsage
	PurchaseRequests   []models.PurchaseRequest
	StockApplied       bool
	Version            int64
	seq                int
}

// task projects the event onto an equipment's yearly calendar. The
// calendar shows the order's summed man-hours, not the per-worker
// entries.
func (ev *MaintenanceEvent) task() models.MaintenanceTask {
	order := ev.order()
	return models.MaintenanceTask{
		ID:                 ev.ID,
		Year:               ev.Year,
		Month:              ev.Month,
		Status:             ev.Status,
		Type:               ev.Type,
		Description:        ev.Description,
		OSNumber:           ev.OSNumber,
		StartDate:          ev.ScheduledDate,
		EndDate:            ev.EndDate,
		RequestDate:        ev.RequestDate,
		RootCause:          ev.RootCause,
		CorrectiveCategory: ev.CorrectiveCategory,
		MaterialsUsed:      ev.MaterialsUsed,
		PurchaseRequests:   ev.PurchaseRequests,
		ManHours:           order.TotalManHours(),
	}
}

// order projects the event onto the flat work-order list. Only events
// carrying an O.S. number appear there.
func (ev *MaintenanceEvent) order() models.WorkOrder {
	return models.WorkOrder{
		ID:                 ev.OSNumber,
		EquipmentID:        ev.EquipmentID,
		Type:               ev.Type,
		Status:             ev.Status,
		ScheduledDate:      ev.ScheduledDate,
		RequestDate:        ev.RequestDate,
		EndDate:            ev.EndDate,
		Description:        ev.Description,
		Observations:       ev.Observations,
		ManHours:           ev.ManHours,
		MaterialsUsed:      ev.MaterialsUsed,
		RootCause:          ev.RootCause,
		Requester:          ev.Requester,
		CorrectiveCategory: ev.CorrectiveCategory,
		PurchaseRequests:   ev.PurchaseRequests,
		StockApplied:       ev.StockApplied,
		Version:            ev.Version,
	}
}

// matches reports whether this event represents the given work-order
// identifier, by O.S. number or by its own id.
func (ev *MaintenanceEvent) matches(orderID string) bool {
	if orderID == "" {
		return false
	}
	return ev.OSNumber == orderID || ev.ID == orderID
}

// calendarSlot derives the schedule placement from a scheduled date.
// Unparsable dates leave the slot empty rather than failing.
func calendarSlot(scheduledDate string) (int, string) {
	t, ok := timeutil.Parse(scheduledDate)
	if !ok {
		return 0, ""
	}
	return t.Year(), models.MonthNames[int(t.Month())-1]
}
