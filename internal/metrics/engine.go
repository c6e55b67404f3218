package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/induspec/plant-maintenance/internal/models"
	"github.com/induspec/plant-maintenance/internal/timeutil"
)

// CauseUnspecified is the fallback failure-cause label.
const CauseUnspecified = "Não especificado"

// CauseCount is one entry of the failure-cause ranking.
type CauseCount struct {
	Cause string `json:"cause"`
	Count int    `json:"count"`
}

// EquipmentReport holds the reliability indicators of one equipment over
// the analysed interval. MTBF is nil when there were no failures:
// "no data" is not the same as "infinite uptime between failures".
type EquipmentReport struct {
	EquipmentID          string       `json:"equipment_id"`
	EquipmentName        string       `json:"equipment_name"`
	TotalFailures        int          `json:"total_failures"`
	TotalCorrectiveHours float64      `json:"total_corrective_hours"`
	TotalAvailableHours  float64      `json:"total_available_hours"`
	MTTR                 float64      `json:"mttr"`
	MTBF                 *float64     `json:"mtbf"`
	Availability         float64      `json:"availability"`
	TopCauses            []CauseCount `json:"top_causes"`
	HasRecurrence        bool         `json:"has_recurrence"`
}

// failureEvent is one corrective intervention counted by the engine.
type failureEvent struct {
	downtime float64
	cause    string
}

// ComputeRange computes reliability indicators for every equipment over
// the closed interval [start, end], end taken as end-of-day. Available
// time is the wall-clock span of the interval. An unparsable or
// inverted range yields an empty result, not an error.
func ComputeRange(equipment []models.Equipment, orders []models.WorkOrder, start, end string) []EquipmentReport {
	s, ok := timeutil.Parse(start)
	if !ok {
		return []EquipmentReport{}
	}
	e, ok := timeutil.Parse(end)
	if !ok {
		return []EquipmentReport{}
	}
	e = timeutil.EndOfDay(e)
	if e.Before(s) {
		return []EquipmentReport{}
	}
	td := e.Sub(s).Hours()
	return compute(equipment, orders, s, e, td)
}

// ComputeYear computes reliability indicators for every equipment over
// one calendar year. Available time is the exact hour count of the
// year, leap years included.
func ComputeYear(equipment []models.Equipment, orders []models.WorkOrder, year int) []EquipmentReport {
	s := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	e := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return compute(equipment, orders, s, e, timeutil.YearHours(year))
}

// EquipmentYear computes the single-equipment yearly report used by the
// equipment detail view.
func EquipmentYear(eq models.Equipment, orders []models.WorkOrder, year int) EquipmentReport {
	reports := ComputeYear([]models.Equipment{eq}, orders, year)
	return reports[0]
}

func compute(equipment []models.Equipment, orders []models.WorkOrder, start, end time.Time, td float64) []EquipmentReport {
	reports := make([]EquipmentReport, 0, len(equipment))
	for _, eq := range equipment {
		events := collectFailures(eq, orders, start, end)
		reports = append(reports, buildReport(eq, events, td))
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].TotalFailures > reports[j].TotalFailures
	})
	return reports
}

// collectFailures gathers corrective executed events from the two
// sources: embedded schedule tasks (by start date) and standalone work
// orders referencing the equipment (by scheduled date). The sources are
// disjoint under the reconciliation invariant, so no dedup pass runs.
func collectFailures(eq models.Equipment, orders []models.WorkOrder, start, end time.Time) []failureEvent {
	var events []failureEvent
	for _, task := range eq.Schedule {
		if task.Type != models.TypeCorrective || task.Status != models.StatusExecuted {
			continue
		}
		if !inRange(task.StartDate, start, end) {
			continue
		}
		events = append(events, failureEvent{
			downtime: timeutil.HoursBetween(task.StartDate, task.EndDate),
			cause:    causeLabel(task.RootCause, task.CorrectiveCategory, task.Description),
		})
	}
	for _, order := range orders {
		if order.EquipmentID != eq.ID {
			continue
		}
		if order.Type != models.TypeCorrective || order.Status != models.StatusExecuted {
			continue
		}
		if !inRange(order.ScheduledDate, start, end) {
			continue
		}
		events = append(events, failureEvent{
			downtime: timeutil.HoursBetween(order.ScheduledDate, order.EndDate),
			cause:    causeLabel(order.RootCause, order.CorrectiveCategory, order.Description),
		})
	}
	return events
}

func buildReport(eq models.Equipment, events []failureEvent, td float64) EquipmentReport {
	report := EquipmentReport{
		EquipmentID:         eq.ID,
		EquipmentName:       eq.Name,
		TotalFailures:       len(events),
		TotalAvailableHours: td,
		TopCauses:           []CauseCount{},
	}

	if len(events) == 0 {
		// No failures means fully available; MTBF stays nil because
		// there is no interval between failures to average.
		report.Availability = 100
		return report
	}

	var tm float64
	causes := make(map[string]int)
	for _, ev := range events {
		tm += ev.downtime
		causes[ev.cause]++
	}
	p := float64(len(events))

	report.TotalCorrectiveHours = tm
	report.MTTR = tm / p

	operational := td - tm
	if operational < 0 {
		operational = 0
	}
	mtbf := operational / p
	report.MTBF = &mtbf

	if mtbf+report.MTTR > 0 {
		report.Availability = 100 * mtbf / (mtbf + report.MTTR)
	}

	report.TopCauses = topCauses(causes, 3)
	for _, c := range report.TopCauses {
		if c.Count > 1 {
			report.HasRecurrence = true
			break
		}
	}
	return report
}

func inRange(value string, start, end time.Time) bool {
	t, ok := timeutil.Parse(value)
	if !ok {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// causeLabel derives the failure-cause label with fixed priority:
// root cause, then corrective category, then the description.
func causeLabel(rootCause, category, description string) string {
	if label := strings.TrimSpace(rootCause); label != "" {
		return label
	}
	if label := strings.TrimSpace(category); label != "" {
		return label
	}
	if label := strings.TrimSpace(description); label != "" {
		return label
	}
	return CauseUnspecified
}

func topCauses(counts map[string]int, limit int) []CauseCount {
	ranked := make([]CauseCount, 0, len(counts))
	for cause, count := range counts {
		ranked = append(ranked, CauseCount{Cause: cause, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Cause < ranked[j].Cause
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
