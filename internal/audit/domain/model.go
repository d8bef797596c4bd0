package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered a ledger action.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

const (
	ActionJournalPosted     = "journal.posted"
	ActionJournalVoided     = "journal.voided"
	ActionRecurringExecuted = "recurring.executed"
	ActionRecurringFailed   = "recurring.failed"
	ActionReconciled        = "reconciliation.reconciled"
	ActionDiscrepancyFound  = "reconciliation.discrepancy"
	ActionLineAllocated     = "allocation.created"
)

// AuditLog captures an immutable record of an accounting action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ShopID     *snowflake.ID     `gorm:"index"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
