package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, allocations []CostCenterAllocation) error
	ListByLine(ctx context.Context, db *gorm.DB, shopID, journalLineID snowflake.ID) ([]CostCenterAllocation, error)
}
