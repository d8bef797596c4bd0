package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Record describes a single action to append to the audit trail.
type Record struct {
	ShopID     snowflake.ID
	ActorType  ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service appends to and reads the audit trail. RecordTx participates in a
// caller-owned transaction so the trail row commits with the ledger write.
type Service interface {
	RecordTx(ctx context.Context, tx *gorm.DB, rec Record) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrMissingHandle = errors.New("missing_transaction")
	ErrInvalidShop   = errors.New("invalid_shop")
	ErrInvalidTarget = errors.New("invalid_target")
)
