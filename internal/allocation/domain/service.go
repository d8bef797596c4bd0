package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SplitInput carries either a fixed amount or a percentage of the line's
// value, never both.
type SplitInput struct {
	CostCenterID snowflake.ID
	Amount       *decimal.Decimal
	Percentage   *decimal.Decimal
}

// Service splits posted expense lines across cost centers. Allocating short
// of the full line amount is allowed; the remainder is simply unallocated.
type Service interface {
	Allocate(ctx context.Context, journalLineID snowflake.ID, splits []SplitInput) ([]CostCenterAllocation, error)
	ListForLine(ctx context.Context, journalLineID snowflake.ID) (*LineAllocations, error)
}

var (
	ErrInvalidShop         = errors.New("invalid_shop")
	ErrEmptySplits         = errors.New("empty_splits")
	ErrUnderspecifiedSplit = errors.New("underspecified_split")
	ErrAmbiguousSplit      = errors.New("ambiguous_split")
	ErrNegativeSplit       = errors.New("negative_split")
	ErrOverAllocated       = errors.New("over_allocated")
	ErrCostCenterNotFound  = errors.New("cost_center_not_found")
	ErrLineNotFound        = errors.New("journal_line_not_found")
	ErrLineNotPosted       = errors.New("line_not_posted")
)
