package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertTemplate(ctx context.Context, db *gorm.DB, tmpl *RecurringTransaction, lines []RecurringTransactionLine) error
	UpdateTemplate(ctx context.Context, db *gorm.DB, tmpl *RecurringTransaction) error
	FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*RecurringTransaction, []RecurringTransactionLine, error)

	// ListActive returns up to limit active templates with id greater than
	// afterID, in id order, across all shops; the scheduler is a system-wide
	// trigger, not a per-tenant one, and pages through with the last id of
	// the previous batch.
	ListActive(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]RecurringTransaction, error)
	FindLines(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]RecurringTransactionLine, error)

	// InsertExecution relies on the unique (recurring_transaction_id,
	// execution_date) index via ON CONFLICT DO NOTHING; false means another
	// run already claimed the due date.
	InsertExecution(ctx context.Context, db *gorm.DB, exec *RecurringExecution) (bool, error)
	UpdateExecution(ctx context.Context, db *gorm.DB, id snowflake.ID, status ExecutionStatus, entryID *snowflake.ID, notes string, at time.Time) error
	ListExecutions(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]RecurringExecution, error)
}
