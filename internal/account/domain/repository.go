package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error

	// Update writes name, parent_id, is_active, and updated_at. It never
	// touches the balance column; that moves only via ApplyBalanceDelta.
	Update(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*Account, error)
	FindByCode(ctx context.Context, db *gorm.DB, shopID snowflake.ID, code string) (*Account, error)
	List(ctx context.Context, db *gorm.DB, shopID snowflake.ID, filter ListFilter) ([]Account, error)
	CountActiveChildren(ctx context.Context, db *gorm.DB, shopID, parentID snowflake.ID) (int64, error)

	// ApplyBalanceDelta moves an account balance server-side so concurrent
	// postings never lose updates. With requireActive it refuses inactive
	// accounts in the same statement. Returns false when no row qualified.
	ApplyBalanceDelta(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal, requireActive bool) (bool, error)

	// SumPostedLines recomputes the signed balance from posted journal lines
	// up to and including asOf.
	SumPostedLines(ctx context.Context, db *gorm.DB, shopID, accountID snowflake.ID, normal NormalBalance, asOf time.Time) (decimal.Decimal, error)
}
