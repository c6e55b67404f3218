package models

import "github.com/shopspring/decimal"

// SparePart is an inventory item. CurrentStock may go negative when
// consumption outruns purchasing; purchase lead time is tracked
// separately, so no floor is enforced here.
type SparePart struct {
	ID           string          `bson:"_id" json:"id"`
	Name         string          `bson:"name" json:"name"`
	Code         string          `bson:"code,omitempty" json:"code,omitempty"`
	Unit         string          `bson:"unit,omitempty" json:"unit,omitempty"`
	Location     string          `bson:"location,omitempty" json:"location,omitempty"`
	CurrentStock decimal.Decimal `bson:"current_stock" json:"current_stock"`
	MinStock     decimal.Decimal `bson:"min_stock,omitempty" json:"min_stock,omitempty"`
}

// BelowMinimum reports whether the part needs replenishment.
func (p *SparePart) BelowMinimum() bool {
	return p.CurrentStock.LessThan(p.MinStock)
}
