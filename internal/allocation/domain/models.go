package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CostCenterAllocation splits part of a posted line's amount onto a cost
// center for internal reporting. Allocations never touch account balances.
type CostCenterAllocation struct {
	ID            snowflake.ID     `gorm:"primaryKey"`
	ShopID        snowflake.ID     `gorm:"not null"`
	JournalLineID snowflake.ID     `gorm:"not null;index:ix_allocations_line"`
	CostCenterID  snowflake.ID     `gorm:"not null;index:ix_allocations_cost_center"`
	Amount        decimal.Decimal  `gorm:"type:numeric(20,4);not null"`
	Percentage    *decimal.Decimal `gorm:"type:numeric(7,4)"`
	CreatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CostCenterAllocation) TableName() string { return "cost_center_allocations" }

// LineAllocations is the read-side view of one line's splits: how much of
// the line is spoken for and what remains unallocated.
type LineAllocations struct {
	LineAmount  decimal.Decimal
	Allocated   decimal.Decimal
	Unallocated decimal.Decimal
	Allocations []CostCenterAllocation
}
