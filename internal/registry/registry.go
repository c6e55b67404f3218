package registry

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/induspec/plant-maintenance/internal/db"
	"github.com/induspec/plant-maintenance/internal/metrics"
	"github.com/induspec/plant-maintenance/internal/models"
)

// ChangeSink receives change notifications for the background sync
// layer. Implementations must not block.
type ChangeSink interface {
	MarkDirty(collection, id string)
	MarkDeleted(collection, id string)
}

// Registry is the in-memory authoritative state of the plant: equipment,
// maintenance events, inventory, plans and settings. All mutation goes
// through intention-revealing methods that enforce the single-event
// invariant; the schedule and the work-order list are projections.
type Registry struct {
	mu        sync.RWMutex
	equipment map[string]*models.Equipment
	eqOrder   []string
	events    map[string]*MaintenanceEvent
	parts     map[string]*models.SparePart
	partOrder []string
	plans     map[string]*models.MaintenancePlan
	planOrder []string
	types     map[string]*models.EquipmentType
	typeOrder []string
	settings  models.AppSettings
	seq       int
	sink      ChangeSink
	log       *log.Entry
}

// New returns an empty registry. sink may be nil when no background
// sync is wired (tests, offline tools).
func New(sink ChangeSink) *Registry {
	return &Registry{
		equipment: make(map[string]*models.Equipment),
		events:    make(map[string]*MaintenanceEvent),
		parts:     make(map[string]*models.SparePart),
		plans:     make(map[string]*models.MaintenancePlan),
		types:     make(map[string]*models.EquipmentType),
		settings:  models.AppSettings{ID: models.SettingsRowID, SyncEnabled: true},
		sink:      sink,
		log:       log.WithField("component", "registry"),
	}
}

// SetSink wires the change sink after construction. The sink needs the
// registry as its record source, so the two are connected in two steps.
func (r *Registry) SetSink(sink ChangeSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// Snapshot is the legacy two-collection shape exchanged with the
// external store and the local cache.
type Snapshot struct {
	Equipment      []models.Equipment       `json:"equipment"`
	WorkOrders     []models.WorkOrder       `json:"work_orders"`
	Inventory      []models.SparePart       `json:"inventory"`
	Plans          []models.MaintenancePlan `json:"maintenance_plans"`
	EquipmentTypes []models.EquipmentType   `json:"equipment_types"`
	Settings       *models.AppSettings      `json:"app_settings,omitempty"`
}

// Load ingests a snapshot, merging embedded schedule tasks and the flat
// work-order list into single events. The schedule is authoritative for
// calendar placement, the order record for full detail; an order with
// no embedded counterpart is reconciled the same way a loose save would
// be.
func (r *Registry) Load(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eq := range snap.Equipment {
		stored := eq
		tasks := stored.Schedule
		stored.Schedule = nil
		if _, ok := r.equipment[stored.ID]; !ok {
			r.eqOrder = append(r.eqOrder, stored.ID)
		}
		r.equipment[stored.ID] = &stored

		for _, task := range tasks {
			r.ingestTask(stored.ID, task)
		}
	}

	for _, order := range snap.WorkOrders {
		r.ingestOrder(order)
	}

	for _, part := range snap.Inventory {
		stored := part
		if _, ok := r.parts[stored.ID]; !ok {
			r.partOrder = append(r.partOrder, stored.ID)
		}
		r.parts[stored.ID] = &stored
	}
	for _, plan := range snap.Plans {
		stored := plan
		if _, ok := r.plans[stored.ID]; !ok {
			r.planOrder = append(r.planOrder, stored.ID)
		}
		r.plans[stored.ID] = &stored
	}
	for _, et := range snap.EquipmentTypes {
		stored := et
		if _, ok := r.types[stored.ID]; !ok {
			r.typeOrder = append(r.typeOrder, stored.ID)
		}
		r.types[stored.ID] = &stored
	}
	if snap.Settings != nil {
		r.settings = *snap.Settings
		r.settings.ID = models.SettingsRowID
	}
}

func (r *Registry) ingestTask(equipmentID string, task models.MaintenanceTask) {
	if task.ID == "" {
		return
	}
	if _, exists := r.events[task.ID]; exists {
		return
	}
	r.seq++
	r.events[task.ID] = &MaintenanceEvent{
		ID:                 task.ID,
		EquipmentID:        equipmentID,
		Year:               task.Year,
		Month:              task.Month,
		Status:             task.Status,
		Type:               task.Type,
		Description:        task.Description,
		OSNumber:           task.OSNumber,
		ScheduledDate:      task.StartDate,
		RequestDate:        task.RequestDate,
		EndDate:            task.EndDate,
		RootCause:          task.RootCause,
		CorrectiveCategory: task.CorrectiveCategory,
		MaterialsUsed:      task.MaterialsUsed,
		PurchaseRequests:   task.PurchaseRequests,
		seq:                r.seq,
	}
}

func (r *Registry) ingestOrder(order models.WorkOrder) {
	if order.ID == "" {
		return
	}
	if ev := r.findEvent(order.ID); ev != nil {
		if ev.Version > order.Version {
			// Another session pushed an older snapshot of this record.
			// Local state wins; the conflict is surfaced, not silent.
			r.log.WithFields(log.Fields{
				"order":          order.ID,
				"local_version":  ev.Version,
				"remote_version": order.Version,
			}).Warn("stale work-order record ignored on load")
			return
		}
		// The order record carries the full detail; the task keeps its
		// identity and calendar slot.
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
		ev.StockApplied = order.StockApplied
		if order.Version > ev.Version {
			ev.Version = order.Version
		}
		return
	}
	year, month := calendarSlot(order.ScheduledDate)
	r.seq++
	r.events[order.ID] = &MaintenanceEvent{
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
		StockApplied:       order.StockApplied,
		Version:            order.Version,
		seq:                r.seq,
	}
}

// findEvent locates the event representing a work-order identifier, by
// primary key first, then by O.S. number.
func (r *Registry) findEvent(orderID string) *MaintenanceEvent {
	if orderID == "" {
		return nil
	}
	if ev, ok := r.events[orderID]; ok {
		return ev
	}
	for _, ev := range r.events {
		if ev.matches(orderID) {
			return ev
		}
	}
	return nil
}

// EquipmentView returns the equipment with its projected schedule.
func (r *Registry) EquipmentView(id string) (models.Equipment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.equipmentView(id)
}

func (r *Registry) equipmentView(id string) (models.Equipment, bool) {
	eq, ok := r.equipment[id]
	if !ok {
		return models.Equipment{}, false
	}
	view := *eq
	view.Schedule = r.scheduleOf(id)
	return view, true
}

func (r *Registry) scheduleOf(equipmentID string) []models.MaintenanceTask {
	var evs []*MaintenanceEvent
	for _, ev := range r.events {
		if ev.EquipmentID == equipmentID {
			evs = append(evs, ev)
		}
	}
	sortEvents(evs)
	tasks := make([]models.MaintenanceTask, 0, len(evs))
	for _, ev := range evs {
		tasks = append(tasks, ev.task())
	}
	return tasks
}

// EquipmentList returns every registered equipment with projected
// schedules, in registration order.
func (r *Registry) EquipmentList() []models.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.equipmentList()
}

func (r *Registry) equipmentList() []models.Equipment {
	list := make([]models.Equipment, 0, len(r.eqOrder))
	for _, id := range r.eqOrder {
		if view, ok := r.equipmentView(id); ok {
			list = append(list, view)
		}
	}
	return list
}

// WorkOrders returns the flat work-order list: every event carrying an
// O.S. number, in creation order.
func (r *Registry) WorkOrders() []models.WorkOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workOrders()
}

func (r *Registry) workOrders() []models.WorkOrder {
	var evs []*MaintenanceEvent
	for _, ev := range r.events {
		if ev.OSNumber != "" {
			evs = append(evs, ev)
		}
	}
	sortEvents(evs)
	orders := make([]models.WorkOrder, 0, len(evs))
	for _, ev := range evs {
		orders = append(orders, ev.order())
	}
	return orders
}

// WorkOrder returns the order projection for one identifier.
func (r *Registry) WorkOrder(id string) (models.WorkOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev := r.findEvent(id)
	if ev == nil || ev.OSNumber == "" {
		return models.WorkOrder{}, false
	}
	return ev.order(), true
}

// standaloneOrders are orders not represented on any registered
// equipment's schedule. Together with the projected schedules they form
// disjoint inputs for the metrics engine.
func (r *Registry) standaloneOrders() []models.WorkOrder {
	var evs []*MaintenanceEvent
	for _, ev := range r.events {
		if ev.OSNumber == "" {
			continue
		}
		if _, embedded := r.equipment[ev.EquipmentID]; embedded {
			continue
		}
		evs = append(evs, ev)
	}
	sortEvents(evs)
	orders := make([]models.WorkOrder, 0, len(evs))
	for _, ev := range evs {
		orders = append(orders, ev.order())
	}
	return orders
}

// MetricsRange computes reliability reports over a date interval.
func (r *Registry) MetricsRange(start, end string) []metrics.EquipmentReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return metrics.ComputeRange(r.equipmentList(), r.standaloneOrders(), start, end)
}

// MetricsYear computes reliability reports over one calendar year.
func (r *Registry) MetricsYear(year int) []metrics.EquipmentReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return metrics.ComputeYear(r.equipmentList(), r.standaloneOrders(), year)
}

// SpareParts returns the inventory in registration order.
func (r *Registry) SpareParts() []models.SparePart {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]models.SparePart, 0, len(r.partOrder))
	for _, id := range r.partOrder {
		if p, ok := r.parts[id]; ok {
			list = append(list, *p)
		}
	}
	return list
}

// Plans returns the maintenance plans in registration order.
func (r *Registry) Plans() []models.MaintenancePlan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]models.MaintenancePlan, 0, len(r.planOrder))
	for _, id := range r.planOrder {
		if p, ok := r.plans[id]; ok {
			list = append(list, *p)
		}
	}
	return list
}

// EquipmentTypes returns the registered type classifiers.
func (r *Registry) EquipmentTypes() []models.EquipmentType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]models.EquipmentType, 0, len(r.typeOrder))
	for _, id := range r.typeOrder {
		if et, ok := r.types[id]; ok {
			list = append(list, *et)
		}
	}
	return list
}

// Settings returns the settings singleton.
func (r *Registry) Settings() models.AppSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// UpdateSettings replaces the settings singleton.
func (r *Registry) UpdateSettings(settings models.AppSettings) {
	r.mu.Lock()
	settings.ID = models.SettingsRowID
	r.settings = settings
	r.mu.Unlock()
	r.markDirty(db.CollSettings, models.SettingsRowID)
}

// Export captures the full state in the legacy two-collection shape,
// for the local cache and for bulk pushes.
func (r *Registry) Export() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	settings := r.settings
	snap := Snapshot{
		Equipment:  r.equipmentList(),
		WorkOrders: r.workOrders(),
		Settings:   &settings,
	}
	for _, id := range r.partOrder {
		if p, ok := r.parts[id]; ok {
			snap.Inventory = append(snap.Inventory, *p)
		}
	}
	for _, id := range r.planOrder {
		if p, ok := r.plans[id]; ok {
			snap.Plans = append(snap.Plans, *p)
		}
	}
	for _, id := range r.typeOrder {
		if et, ok := r.types[id]; ok {
			snap.EquipmentTypes = append(snap.EquipmentTypes, *et)
		}
	}
	return snap
}

// Records resolves dirty ids back to store records at flush time, so
// the outbox always pushes the latest state of each row.
func (r *Registry) Records(collection string, ids []string) []db.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]db.Record, 0, len(ids))
	for _, id := range ids {
		switch collection {
		case db.CollEquipment:
			if view, ok := r.equipmentView(id); ok {
				records = append(records, db.Record{ID: id, Doc: view})
			}
		case db.CollWorkOrders:
			if ev := r.findEvent(id); ev != nil && ev.OSNumber != "" {
				records = append(records, db.Record{ID: ev.OSNumber, Doc: ev.order()})
			}
		case db.CollInventory:
			if p, ok := r.parts[id]; ok {
				records = append(records, db.Record{ID: id, Doc: *p})
			}
		case db.CollPlans:
			if p, ok := r.plans[id]; ok {
				records = append(records, db.Record{ID: id, Doc: *p})
			}
		case db.CollEquipmentTypes:
			if et, ok := r.types[id]; ok {
				records = append(records, db.Record{ID: id, Doc: *et})
			}
		case db.CollSettings:
			records = append(records, db.Record{ID: models.SettingsRowID, Doc: r.settings})
		}
	}
	return records
}

func (r *Registry) markDirty(collection, id string) {
	if r.sink != nil {
		r.sink.MarkDirty(collection, id)
	}
}

func (r *Registry) markDeleted(collection, id string) {
	if r.sink != nil {
		r.sink.MarkDeleted(collection, id)
	}
}

func sortEvents(evs []*MaintenanceEvent) {
	sort.Slice(evs, func(i, j int) bool { return evs[i].seq < evs[j].seq })
}
