package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	ParentID      *snowflake.ID
}

type ListFilter struct {
	Type       AccountType
	ParentID   *snowflake.ID
	ActiveOnly bool
}

// Service owns the chart of accounts. Balance mutation is deliberately
// absent: the journal engine applies deltas through the Repository.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Account, error)
	Reparent(ctx context.Context, id snowflake.ID, parentID *snowflake.ID) (*Account, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
	Activate(ctx context.Context, id snowflake.ID) error
	Get(ctx context.Context, id snowflake.ID) (*Account, error)
	List(ctx context.Context, filter ListFilter) ([]Account, error)
	GetBalance(ctx context.Context, id snowflake.ID, asOf *time.Time) (decimal.Decimal, error)

	// SeedDefaultChart creates any missing accounts from the starter chart
	// and returns the ones it created. Idempotent per shop.
	SeedDefaultChart(ctx context.Context) ([]Account, error)
}

var (
	ErrInvalidShop          = errors.New("invalid_shop")
	ErrInvalidCode          = errors.New("invalid_code")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidType          = errors.New("invalid_account_type")
	ErrInvalidNormalBalance = errors.New("invalid_normal_balance")
	ErrDuplicateCode        = errors.New("duplicate_code")
	ErrNotFound             = errors.New("account_not_found")
	ErrParentNotFound       = errors.New("parent_not_found")
	ErrParentInactive       = errors.New("parent_inactive")
	ErrCyclicParent         = errors.New("cyclic_parent")
	ErrHasActiveChildren    = errors.New("has_active_children")
)
