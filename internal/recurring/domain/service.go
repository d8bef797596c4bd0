package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type LineInput struct {
	AccountID snowflake.ID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

type CreateRequest struct {
	Name       string
	Frequency  Frequency
	DayOfMonth int
	Month      int
	StartDate  time.Time
	EndDate    *time.Time
	Lines      []LineInput
}

// TemplateWithLines bundles a template with its ordered lines.
type TemplateWithLines struct {
	Template RecurringTransaction
	Lines    []RecurringTransactionLine
}

// RunReport summarizes one scheduler pass.
type RunReport struct {
	TemplatesSeen int
	Executed      int
	Failed        int
	AlreadyDone   int
}

// Service owns recurring templates and materializes them into posted journal
// entries. RunDue is safe to invoke concurrently from multiple workers: the
// execution table's unique index arbitrates, not application state.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*TemplateWithLines, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
	Get(ctx context.Context, id snowflake.ID) (*TemplateWithLines, error)
	ListExecutions(ctx context.Context, id snowflake.ID) ([]RecurringExecution, error)

	// RunDue materializes every due date up to now across all shops, walking
	// active templates in batches of batchSize until none remain. A
	// non-positive batchSize falls back to a default.
	RunDue(ctx context.Context, now time.Time, batchSize int) (RunReport, error)
}

var (
	ErrInvalidShop      = errors.New("invalid_shop")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidFrequency = errors.New("invalid_frequency")
	ErrInvalidAnchor    = errors.New("invalid_anchor")
	ErrInvalidStartDate = errors.New("invalid_start_date")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrEmptyLines       = errors.New("empty_template_lines")
	ErrUnbalancedLines  = errors.New("unbalanced_template")
	ErrNotFound         = errors.New("recurring_transaction_not_found")
)
