package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CostCenter is an internal reporting dimension. Allocations reference it;
// nothing in the ledger does.
type CostCenter struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	ShopID    snowflake.ID `gorm:"not null;uniqueIndex:ux_cost_centers_shop_code,priority:1"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_cost_centers_shop_code,priority:2"`
	Name      string       `gorm:"type:text;not null"`
	IsActive  bool         `gorm:"not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CostCenter) TableName() string { return "cost_centers" }

// Registry is the cost-center lookup the allocation engine consumes.
type Registry interface {
	Create(ctx context.Context, db *gorm.DB, cc *CostCenter) error
	FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*CostCenter, error)
	List(ctx context.Context, db *gorm.DB, shopID snowflake.ID) ([]CostCenter, error)
}

var (
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidName   = errors.New("invalid_name")
	ErrDuplicateCode = errors.New("duplicate_code")
	ErrNotFound      = errors.New("cost_center_not_found")
)
