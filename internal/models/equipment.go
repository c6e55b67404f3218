package models

// TaskStatus represents the lifecycle state of a maintenance event.
type TaskStatus string

const (
	StatusScheduled    TaskStatus = "scheduled"
	StatusExecuted     TaskStatus = "executed"
	StatusDelayed      TaskStatus = "delayed"
	StatusDeactivated  TaskStatus = "deactivated"
	StatusWaitingParts TaskStatus = "waiting_parts"
	StatusNone         TaskStatus = ""
)

// MaintenanceType classifies the kind of maintenance work.
type MaintenanceType string

const (
	TypePreventive       MaintenanceType = "preventive"
	TypePredictive       MaintenanceType = "predictive"
	TypeCorrective       MaintenanceType = "corrective"
	TypeOverhaul         MaintenanceType = "overhaul"
	TypePeriodicReview   MaintenanceType = "periodic_review"
	TypeServiceProvision MaintenanceType = "service_provision"
	TypeBuilding         MaintenanceType = "building"
	TypeImprovement      MaintenanceType = "improvement"
)

// MonthNames holds the calendar month labels used on schedule tasks.
var MonthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MaintenanceTask is a schedule entry embedded in an equipment's yearly
// calendar. Date fields are ISO strings because historical data is known
// to be incomplete or malformed; parsing is tolerant downstream.
type MaintenanceTask struct {
	ID                 string            `bson:"id" json:"id"`
	Year               int               `bson:"year" json:"year"`
	Month              string            `bson:"month" json:"month"`
	Status             TaskStatus        `bson:"status" json:"status"`
	Type               MaintenanceType   `bson:"type,omitempty" json:"type,omitempty"`
	Description        string            `bson:"description" json:"description"`
	OSNumber           string            `bson:"os_number,omitempty" json:"os_number,omitempty"`
	StartDate          string            `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate            string            `bson:"end_date,omitempty" json:"end_date,omitempty"`
	RequestDate        string            `bson:"request_date,omitempty" json:"request_date,omitempty"`
	RootCause          string            `bson:"root_cause,omitempty" json:"root_cause,omitempty"`
	CorrectiveCategory string            `bson:"corrective_category,omitempty" json:"corrective_category,omitempty"`
	MaterialsUsed      []MaterialUsage   `bson:"materials_used,omitempty" json:"materials_used,omitempty"`
	PurchaseRequests   []PurchaseRequest `bson:"purchase_requests,omitempty" json:"purchase_requests,omitempty"`
	ManHours           float64           `bson:"man_hours,omitempty" json:"man_hours,omitempty"`
}

// Equipment is a registered plant asset with its embedded schedule. The
// schedule is owned exclusively by the equipment; tasks are never shared.
type Equipment struct {
	ID       string            `bson:"_id" json:"id"`
	Name     string            `bson:"name" json:"name"`
	Location string            `bson:"location" json:"location"`
	Active   bool              `bson:"active" json:"active"`
	Critical bool              `bson:"critical" json:"critical"`
	Family   string            `bson:"family,omitempty" json:"family,omitempty"`
	Schedule []MaintenanceTask `bson:"schedule" json:"schedule"`
}

// EquipmentType is a family/type classifier for equipment.
type EquipmentType struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// FindTask returns the index of the schedule task matching the given
// work-order identifier by os_number or by task id, or -1.
func (e *Equipment) FindTask(orderID string) int {
	for i := range e.Schedule {
		t := &e.Schedule[i]
		if (t.OSNumber != "" && t.OSNumber == orderID) || t.ID == orderID {
			return i
		}
	}
	return -1
}
