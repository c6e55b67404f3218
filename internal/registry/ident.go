package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/induspec/plant-maintenance/internal/models"
)

// NextOrderNumber computes the next collision-free O.S. number: the
// highest numeric value found among embedded task O.S. numbers and
// standalone order ids, plus one, zero-padded to four digits.
// Non-digit characters are stripped before parsing; identifiers with no
// digits at all are ignored rather than rejected, so mixed historical
// numbering schemes degrade gracefully.
func NextOrderNumber(equipment []models.Equipment, orders []models.WorkOrder) string {
	max := 0
	consider := func(id string) {
		digits := stripNonDigits(id)
		if digits == "" {
			return
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return
		}
		if n > max {
			max = n
		}
	}
	for _, eq := range equipment {
		for _, task := range eq.Schedule {
			if task.OSNumber != "" {
				consider(task.OSNumber)
			}
		}
	}
	for _, order := range orders {
		consider(order.ID)
	}
	return fmt.Sprintf("%04d", max+1)
}

// NextOrder computes the next O.S. number over the registry's state.
func (r *Registry) NextOrder() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NextOrderNumber(r.equipmentList(), r.workOrders())
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
