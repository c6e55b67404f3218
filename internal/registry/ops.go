package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/induspec/plant-maintenance/internal/db"
	"github.com/induspec/plant-maintenance/internal/models"
)

var (
	ErrEquipmentIDRequired = errors.New("equipment id is required")
	ErrEquipmentExists     = errors.New("equipment already exists")
	ErrTaskExists          = errors.New("a task with this id or O.S. number already exists")
	ErrTaskNotFound        = errors.New("task not found")
	ErrPartNotFound        = errors.New("spare part not found")
	ErrPlanNotFound        = errors.New("maintenance plan not found")
	ErrPlanInactive        = errors.New("maintenance plan is inactive")
)

// AddEquipment registers a new equipment. Any tasks present on the
// incoming schedule are ingested as events.
func (r *Registry) AddEquipment(eq models.Equipment) error {
	if strings.TrimSpace(eq.ID) == "" {
		return reject(ErrEquipmentIDRequired)
	}
	r.mu.Lock()
	if _, exists := r.equipment[eq.ID]; exists {
		r.mu.Unlock()
		return reject(ErrEquipmentExists)
	}
	tasks := eq.Schedule
	eq.Schedule = nil
	stored := eq
	r.equipment[stored.ID] = &stored
	r.eqOrder = append(r.eqOrder, stored.ID)
	for _, task := range tasks {
		r.ingestTask(stored.ID, task)
	}
	r.mu.Unlock()
	r.markDirty(db.CollEquipment, stored.ID)
	return nil
}

// UpdateEquipment patches the descriptive fields of an equipment. The
// schedule is owned by the event store and is not touched here.
func (r *Registry) UpdateEquipment(eq models.Equipment) error {
	r.mu.Lock()
	stored, ok := r.equipment[eq.ID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEquipmentNotFound, eq.ID)
	}
	stored.Name = eq.Name
	stored.Location = eq.Location
	stored.Active = eq.Active
	stored.Critical = eq.Critical
	stored.Family = eq.Family
	r.mu.Unlock()
	r.markDirty(db.CollEquipment, eq.ID)
	return nil
}

// DeleteEquipment removes an equipment and its pure schedule entries.
// Events that carry an O.S. number survive as standalone orders with a
// dangling equipment reference, matching the ad-hoc order model.
func (r *Registry) DeleteEquipment(id string) error {
	r.mu.Lock()
	if _, ok := r.equipment[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEquipmentNotFound, id)
	}
	delete(r.equipment, id)
	for i, eqID := range r.eqOrder {
		if eqID == id {
			r.eqOrder = append(r.eqOrder[:i], r.eqOrder[i+1:]...)
			break
		}
	}
	for evID, ev := range r.events {
		if ev.EquipmentID == id && ev.OSNumber == "" {
			delete(r.events, evID)
		}
	}
	r.mu.Unlock()
	r.markDeleted(db.CollEquipment, id)
	return nil
}

// AddTask manually appends a schedule entry to an equipment's calendar,
// guarded against id and O.S. number duplicates.
func (r *Registry) AddTask(equipmentID string, task models.MaintenanceTask) (models.MaintenanceTask, error) {
	r.mu.Lock()
	if _, ok := r.equipment[equipmentID]; !ok {
		r.mu.Unlock()
		return models.MaintenanceTask{}, fmt.Errorf("%w: %s", ErrEquipmentNotFound, equipmentID)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if r.findEvent(task.ID) != nil || (task.OSNumber != "" && r.findEvent(task.OSNumber) != nil) {
		r.mu.Unlock()
		return models.MaintenanceTask{}, reject(ErrTaskExists)
	}
	r.ingestTask(equipmentID, task)
	ev := r.events[task.ID]
	stored := ev.task()
	osNumber := ev.OSNumber
	r.mu.Unlock()
	r.markDirty(db.CollEquipment, equipmentID)
	if osNumber != "" {
		r.markDirty(db.CollWorkOrders, osNumber)
	}
	return stored, nil
}

// DeleteTask removes a schedule entry. A linked work-order record is
// removed with it; the event is gone from both views.
func (r *Registry) DeleteTask(equipmentID, taskID string) error {
	r.mu.Lock()
	ev, ok := r.events[taskID]
	if !ok || ev.EquipmentID != equipmentID {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	osNumber := ev.OSNumber
	delete(r.events, taskID)
	r.mu.Unlock()
	r.markDirty(db.CollEquipment, equipmentID)
	if osNumber != "" {
		r.markDeleted(db.CollWorkOrders, osNumber)
	}
	return nil
}

// CreateCorrectiveRequest opens a corrective work order from a failure
// report, assigning the next sequential O.S. number.
func (r *Registry) CreateCorrectiveRequest(equipmentID, category, description, requester string) (models.WorkOrder, error) {
	if strings.TrimSpace(equipmentID) == "" {
		return models.WorkOrder{}, reject(ErrEquipmentIDRequired)
	}
	now := time.Now().Format(time.RFC3339)
	order := models.WorkOrder{
		ID:                 r.NextOrder(),
		EquipmentID:        equipmentID,
		Type:               models.TypeCorrective,
		Status:             models.StatusScheduled,
		ScheduledDate:      now,
		RequestDate:        now,
		Description:        description,
		Requester:          requester,
		CorrectiveCategory: category,
	}
	return r.SaveWorkOrder(order, SaveOptions{})
}

// RecordExecution closes a work order: sets the end date, man-hour
// entries, materials used and root cause, then runs the regular save
// path with its validation and stock semantics.
func (r *Registry) RecordExecution(orderID, endDate, rootCause string, manHours []models.ManHourEntry, materials []models.MaterialUsage, opts SaveOptions) (models.WorkOrder, error) {
	order, ok := r.WorkOrder(orderID)
	if !ok {
		return models.WorkOrder{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	order.Status = models.StatusExecuted
	order.EndDate = endDate
	if rootCause != "" {
		order.RootCause = rootCause
	}
	if manHours != nil {
		order.ManHours = manHours
	}
	if materials != nil {
		order.MaterialsUsed = materials
	}
	return r.SaveWorkOrder(order, opts)
}

// RescheduleTask moves a schedule entry to another calendar slot.
func (r *Registry) RescheduleTask(equipmentID, taskID string, year int, month string) error {
	r.mu.Lock()
	ev, ok := r.events[taskID]
	if !ok || ev.EquipmentID != equipmentID {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	ev.Year = year
	ev.Month = month
	ev.Version++
	osNumber := ev.OSNumber
	r.mu.Unlock()
	r.markDirty(db.CollEquipment, equipmentID)
	if osNumber != "" {
		r.markDirty(db.CollWorkOrders, osNumber)
	}
	return nil
}

// AttachPurchaseRequest raises a parts purchase from a work order.
func (r *Registry) AttachPurchaseRequest(orderID, description string) (models.PurchaseRequest, error) {
	r.mu.Lock()
	ev := r.findEvent(orderID)
	if ev == nil {
		r.mu.Unlock()
		return models.PurchaseRequest{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	pr := models.PurchaseRequest{
		ID:          uuid.NewString(),
		Description: description,
		Status:      "open",
		CreatedAt:   time.Now().Format(time.RFC3339),
	}
	ev.PurchaseRequests = append(ev.PurchaseRequests, pr)
	ev.Version++
	equipmentID := ev.EquipmentID
	osNumber := ev.OSNumber
	r.mu.Unlock()
	if osNumber != "" {
		r.markDirty(db.CollWorkOrders, osNumber)
	}
	if equipmentID != "" {
		r.markDirty(db.CollEquipment, equipmentID)
	}
	return pr, nil
}

// ExpandPlan generates schedule tasks for a plan's equipment over one
// year, one per frequency interval starting at the plan's start month.
// Slots already holding a task from this plan are skipped.
func (r *Registry) ExpandPlan(planID string, year int) (int, error) {
	r.mu.Lock()
	plan, ok := r.plans[planID]
	if !ok {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	if !plan.Active {
		r.mu.Unlock()
		return 0, ErrPlanInactive
	}
	if _, ok := r.equipment[plan.EquipmentID]; !ok {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrEquipmentNotFound, plan.EquipmentID)
	}
	freq := plan.FrequencyMonths
	if freq < 1 {
		freq = 1
	}
	start := plan.StartMonth
	if start < 1 || start > 12 {
		start = 1
	}

	added := 0
	for month := start; month <= 12; month += freq {
		name := models.MonthNames[month-1]
		if r.planSlotTaken(plan, year, name) {
			continue
		}
		r.ingestTask(plan.EquipmentID, models.MaintenanceTask{
			ID:          uuid.NewString(),
			Year:        year,
			Month:       name,
			Status:      models.StatusScheduled,
			Type:        plan.Type,
			Description: plan.Description,
		})
		added++
	}
	r.mu.Unlock()
	if added > 0 {
		r.markDirty(db.CollEquipment, plan.EquipmentID)
	}
	return added, nil
}

func (r *Registry) planSlotTaken(plan *models.MaintenancePlan, year int, month string) bool {
	for _, ev := range r.events {
		if ev.EquipmentID == plan.EquipmentID && ev.Year == year && ev.Month == month &&
			ev.Type == plan.Type && ev.Description == plan.Description {
			return true
		}
	}
	return false
}

// UpsertPlan registers or replaces a maintenance plan.
func (r *Registry) UpsertPlan(plan models.MaintenancePlan) error {
	if strings.TrimSpace(plan.ID) == "" {
		plan.ID = uuid.NewString()
	}
	r.mu.Lock()
	if _, exists := r.plans[plan.ID]; !exists {
		r.planOrder = append(r.planOrder, plan.ID)
	}
	stored := plan
	r.plans[plan.ID] = &stored
	r.mu.Unlock()
	r.markDirty(db.CollPlans, plan.ID)
	return nil
}

// UpsertPart registers or replaces an inventory item.
func (r *Registry) UpsertPart(part models.SparePart) error {
	if strings.TrimSpace(part.ID) == "" {
		part.ID = uuid.NewString()
	}
	r.mu.Lock()
	if _, exists := r.parts[part.ID]; !exists {
		r.partOrder = append(r.partOrder, part.ID)
	}
	stored := part
	r.parts[part.ID] = &stored
	r.mu.Unlock()
	r.markDirty(db.CollInventory, part.ID)
	return nil
}

// AdjustStock applies a manual stock correction (delta may be negative).
func (r *Registry) AdjustStock(partID string, delta decimal.Decimal) (models.SparePart, error) {
	r.mu.Lock()
	part, ok := r.parts[partID]
	if !ok {
		r.mu.Unlock()
		return models.SparePart{}, fmt.Errorf("%w: %s", ErrPartNotFound, partID)
	}
	part.CurrentStock = part.CurrentStock.Add(delta)
	updated := *part
	r.mu.Unlock()
	r.markDirty(db.CollInventory, partID)
	return updated, nil
}

// PartsBelowMinimum lists inventory items due for replenishment.
func (r *Registry) PartsBelowMinimum() []models.SparePart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var low []models.SparePart
	for _, id := range r.partOrder {
		if p, ok := r.parts[id]; ok && p.BelowMinimum() {
			low = append(low, *p)
		}
	}
	return low
}

// UpsertEquipmentType registers or replaces a type classifier.
func (r *Registry) UpsertEquipmentType(et models.EquipmentType) error {
	if strings.TrimSpace(et.ID) == "" {
		et.ID = uuid.NewString()
	}
	r.mu.Lock()
	if _, exists := r.types[et.ID]; !exists {
		r.typeOrder = append(r.typeOrder, et.ID)
	}
	stored := et
	r.types[et.ID] = &stored
	r.mu.Unlock()
	r.markDirty(db.CollEquipmentTypes, et.ID)
	return nil
}
