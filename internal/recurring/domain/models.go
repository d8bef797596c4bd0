package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Frequency is the cadence at which a template materializes into entries.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// RecurringTransaction is a balanced journal template. TotalDebit and
// TotalCredit are recomputed from the lines on every write; they are a
// display convenience, never authoritative.
type RecurringTransaction struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	ShopID      snowflake.ID    `gorm:"not null;index"`
	Name        string          `gorm:"type:text;not null"`
	Frequency   Frequency       `gorm:"type:text;not null"`
	DayOfMonth  int             `gorm:"not null;default:0"`
	Month       int             `gorm:"not null;default:0"`
	StartDate   time.Time       `gorm:"not null"`
	EndDate     *time.Time
	IsActive    bool            `gorm:"not null;default:true;index"`
	TotalDebit  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	TotalCredit decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RecurringTransaction) TableName() string { return "recurring_transactions" }

// RecurringTransactionLine is one template line for generated entries.
type RecurringTransactionLine struct {
	ID                     snowflake.ID    `gorm:"primaryKey"`
	RecurringTransactionID snowflake.ID    `gorm:"not null;index"`
	LineNumber             int             `gorm:"not null"`
	AccountID              snowflake.ID    `gorm:"not null"`
	Debit                  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Credit                 decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	CreatedAt              time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RecurringTransactionLine) TableName() string { return "recurring_transaction_lines" }

// ExecutionStatus tracks one materialization attempt for one due date.
type ExecutionStatus string

const (
	ExecutionStatusPending  ExecutionStatus = "pending"
	ExecutionStatusExecuted ExecutionStatus = "executed"
	ExecutionStatusSkipped  ExecutionStatus = "skipped"
	ExecutionStatusFailed   ExecutionStatus = "failed"
)

// RecurringExecution is the idempotency record: at most one row exists per
// (recurring_transaction_id, execution_date), enforced by a unique index.
type RecurringExecution struct {
	ID                     snowflake.ID    `gorm:"primaryKey"`
	RecurringTransactionID snowflake.ID    `gorm:"not null;uniqueIndex:ux_recurring_executions_txn_date,priority:1"`
	ExecutionDate          time.Time       `gorm:"not null;uniqueIndex:ux_recurring_executions_txn_date,priority:2"`
	Status                 ExecutionStatus `gorm:"type:text;not null;default:'pending'"`
	JournalEntryID         *snowflake.ID
	Notes                  string          `gorm:"type:text;not null;default:''"`
	CreatedAt              time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RecurringExecution) TableName() string { return "recurring_executions" }
