package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryStatus is the journal entry state machine: draft -> posted -> void.
// Void is terminal and reachable only from posted.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "draft"
	EntryStatusPosted EntryStatus = "posted"
	EntryStatusVoid   EntryStatus = "void"
)

// JournalEntry is the immutable-once-posted header of a double-entry posting.
// Corrections are new reversal entries, never edits.
type JournalEntry struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	ShopID       snowflake.ID  `gorm:"not null;index"`
	Reference    string        `gorm:"type:text;not null;default:'';index"`
	EntryDate    time.Time     `gorm:"not null"`
	Description  string        `gorm:"type:text;not null;default:''"`
	Status       EntryStatus   `gorm:"type:text;not null;default:'draft';index"`
	PostedBy     *string       `gorm:"type:text"`
	PostedAt     *time.Time
	VoidedAt     *time.Time
	ReversalOfID *snowflake.ID `gorm:"index"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (JournalEntry) TableName() string { return "journal_entries" }

// JournalLine is a single debit or credit against an account. Exactly one of
// Debit/Credit is positive; the other is zero.
type JournalLine struct {
	ID         snowflake.ID    `gorm:"primaryKey"`
	EntryID    snowflake.ID    `gorm:"not null;index"`
	LineNumber int             `gorm:"not null"`
	AccountID  snowflake.ID    `gorm:"not null;index"`
	Debit      decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Credit     decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Memo       string          `gorm:"type:text;not null;default:''"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (JournalLine) TableName() string { return "journal_lines" }

// Amount returns the magnitude of the line, whichever side carries it.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}
