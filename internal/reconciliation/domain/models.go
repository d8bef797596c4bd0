package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Status is the reconciliation lifecycle. Records are never deleted; a
// discrepancy is corrected by new journal entries and re-reconciled, not
// by editing the record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusMatched     Status = "matched"
	StatusReconciled  Status = "reconciled"
	StatusDiscrepancy Status = "discrepancy"
)

// Reconciliation ties an imported bank-statement line to the ledger. The
// unique index on JournalLineID keeps a ledger line from being claimed by
// two statement lines.
type Reconciliation struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	ShopID         snowflake.ID    `gorm:"not null;index:ix_reconciliations_shop_account,priority:1"`
	AccountID      snowflake.ID    `gorm:"not null;index:ix_reconciliations_shop_account,priority:2"`
	JournalLineID  *snowflake.ID   `gorm:"uniqueIndex:ux_reconciliations_line,where:journal_line_id IS NOT NULL"`
	BankReference  string          `gorm:"type:text;not null;default:''"`
	StatementDate  time.Time       `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	OpeningBalance decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	ClosingBalance decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Delta          decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Status         Status          `gorm:"type:text;not null;default:'pending';index:ix_reconciliations_status"`
	ReconciledBy   *string         `gorm:"type:text"`
	ReconciledAt   *time.Time
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Reconciliation) TableName() string { return "reconciliations" }

// MatchCandidate is a posted, unclaimed ledger line scored against a
// statement line for operator review.
type MatchCandidate struct {
	LineID    snowflake.ID
	EntryID   snowflake.ID
	AccountID snowflake.ID
	EntryDate time.Time
	Reference string
	Memo      string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Score     int
}
