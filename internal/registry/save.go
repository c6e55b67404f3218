package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/induspec/plant-maintenance/internal/db"
	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/timeutil"
)

// Validation errors block the save before any state mutation.
var (
	ErrOrderIDRequired            = errors.New("work order id is required")
	ErrCorrectiveCategoryRequired = errors.New("corrective orders require a corrective category")
	ErrInvalidDateRange           = errors.New("end date is before the scheduled date")
	ErrEndDateRequired            = errors.New("closing an order requires an end date")
	ErrOrderNotFound              = errors.New("work order not found")
	ErrEquipmentNotFound          = errors.New("equipment not found")
)

// ErrRootCauseMissing is a soft warning: closing a corrective order
// without a root-cause analysis proceeds only when the caller
// acknowledges it explicitly.
var ErrRootCauseMissing = errors.New("corrective order closed without root cause analysis")

// SaveOptions carries user confirmations for soft warnings.
type SaveOptions struct {
	AcknowledgeMissingRootCause bool
}

// ValidationError wraps a blocking validation failure so HTTP handlers
// can map it to a client error.
type ValidationError struct {
	Err error
}

func (v *ValidationError) Error() string { return v.Err.Error() }
func (v *ValidationError) Unwrap() error { return v.Err }

// IsValidation reports whether err is a blocking validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func reject(err error) error { return &ValidationError{Err: err} }

// SaveWorkOrder commits an edited or new work order. It locates the
// event the order currently lives in, by id or O.S. number, and updates
// it in place; only when no event matches does it create one, placed on
// the referenced equipment's calendar when that equipment exists. The
// order record and the schedule task are two projections of the same
// event, so the save can never duplicate it.
//
// The stock of materials used is decremented exactly once, on the
// transition into executed status.
func (r *Registry) SaveWorkOrder(order models.WorkOrder, opts SaveOptions) (models.WorkOrder, error) {
	if err := validateOrder(order); err != nil {
		return models.WorkOrder{}, err
	}
	if order.Status == models.StatusExecuted &&
		order.Type == models.TypeCorrective &&
		strings.TrimSpace(order.RootCause) == "" &&
		!opts.AcknowledgeMissingRootCause {
		return models.WorkOrder{}, ErrRootCauseMissing
	}

	r.mu.Lock()

	ev := r.findEvent(order.ID)
	var prevStatus models.TaskStatus
	if ev != nil {
		prevStatus = ev.Status
		r.patchEvent(ev, order)
	} else {
		prevStatus = models.StatusNone
		ev = r.appendEvent(order)
	}
	ev.Version++

	var dirtyParts []string
	if ev.Status == models.StatusExecuted && prevStatus != models.StatusExecuted {
		dirtyParts = r.applyStock(ev)
	} else if prevStatus == models.StatusExecuted && ev.Status != models.StatusExecuted && ev.StockApplied {
		// Consumed materials are not returned to stock on reopen.
		r.log.WithField("order", ev.OSNumber).Warn("executed order reopened; consumed stock is not reversed")
	}

	saved := ev.order()
	osNumber := ev.OSNumber
	equipmentID := ev.EquipmentID
	_, embedded := r.equipment[equipmentID]

	// Notify after unlocking: the sink may read the registry back.
	r.mu.Unlock()

	r.markDirty(db.CollWorkOrders, osNumber)
	if embedded {
		r.markDirty(db.CollEquipment, equipmentID)
	}
	for _, partID := range dirtyParts {
		r.markDirty(db.CollInventory, partID)
	}
	return saved, nil
}

func validateOrder(order models.WorkOrder) error {
	if strings.TrimSpace(order.ID) == "" {
		return reject(ErrOrderIDRequired)
	}
	if order.Type == models.TypeCorrective && strings.TrimSpace(order.CorrectiveCategory) == "" {
		return reject(ErrCorrectiveCategoryRequired)
	}
	if end, ok := timeutil.Parse(order.EndDate); ok {
		if sched, ok := timeutil.Parse(order.ScheduledDate); ok && end.Before(sched) {
			return reject(ErrInvalidDateRange)
		}
	}
	if order.Status == models.StatusExecuted && strings.TrimSpace(order.EndDate) == "" {
		return reject(ErrEndDateRequired)
	}
	return nil
}

// patchEvent updates an existing event's mutable fields. The event's
// id, calendar slot and owning equipment are never altered here.
func (r *Registry) patchEvent(ev *MaintenanceEvent, order models.WorkOrder) {
	ev.OSNumber = order.ID
	ev.Status = order.Status
	ev.Type = order.Type
	ev.Description = order.Description
	ev.Observations = order.Observations
	ev.ScheduledDate = order.ScheduledDate
	ev.RequestDate = order.RequestDate
	ev.EndDate = order.EndDate
	ev.RootCause = order.RootCause
	ev.Requester = order.Requester
	ev.CorrectiveCategory = order.CorrectiveCategory
	ev.ManHours = order.ManHours
	ev.MaterialsUsed = order.MaterialsUsed
	ev.PurchaseRequests = order.PurchaseRequests
}

// appendEvent registers a loose (avulsa) order as a new event. When the
// referenced equipment is registered, the event lands on its calendar,
// in the slot derived from the scheduled date.
func (r *Registry) appendEvent(order models.WorkOrder) *MaintenanceEvent {
	year, month := calendarSlot(order.ScheduledDate)
	r.seq++
	ev := &MaintenanceEvent{
		ID:                 order.ID,
		EquipmentID:        order.EquipmentID,
		Year:               year,
		Month:              month,
		Status:             order.Status,
		Type:               order.Type,
		Description:        order.Description,
		Observations:       order.Observations,
		OSNumber:           order.ID,
		ScheduledDate:      order.ScheduledDate,
		RequestDate:        order.RequestDate,
		EndDate:            order.EndDate,
		RootCause:          order.RootCause,
		Requester:          order.Requester,
		CorrectiveCategory: order.CorrectiveCategory,
		ManHours:           order.ManHours,
		MaterialsUsed:      order.MaterialsUsed,
		PurchaseRequests:   order.PurchaseRequests,
		seq:                r.seq,
	}
	r.events[ev.ID] = ev
	return ev
}

// applyStock decrements the stock of every material used, once per
// event, and returns the ids of the parts it touched so the caller can
// mark them dirty after releasing the lock. Stock may go negative;
// purchase lead time is tracked separately, so the registry trusts the
// reported consumption.
func (r *Registry) applyStock(ev *MaintenanceEvent) []string {
	if ev.StockApplied || len(ev.MaterialsUsed) == 0 {
		return nil
	}
	var touched []string
	for _, usage := range ev.MaterialsUsed {
		part, ok := r.parts[usage.PartID]
		if !ok {
			r.log.WithFields(map[string]interface{}{
				"order": ev.OSNumber,
				"part":  usage.PartID,
			}).Warn("material usage references unknown spare part")
			continue
		}
		part.CurrentStock = part.CurrentStock.Sub(usage.Quantity)
		touched = append(touched, part.ID)
	}
	ev.StockApplied = true
	return touched
}

// DeleteWorkOrder removes an order from the work-order list and from
// the external store. When the event is embedded on a registered
// equipment's calendar the schedule entry survives as a plain task;
// schedule entries shrink only through explicit task deletion.
func (r *Registry) DeleteWorkOrder(id string) error {
	r.mu.Lock()
	ev := r.findEvent(id)
	if ev == nil || ev.OSNumber == "" {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	osNumber := ev.OSNumber
	equipmentID := ev.EquipmentID
	_, embedded := r.equipment[equipmentID]
	if embedded {
		ev.OSNumber = ""
	} else {
		delete(r.events, ev.ID)
	}
	r.mu.Unlock()

	if embedded {
		r.markDirty(db.CollEquipment, equipmentID)
	}
	r.markDeleted(db.CollWorkOrders, osNumber)
	return nil
}
