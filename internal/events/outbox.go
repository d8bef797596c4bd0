package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TypeJournalPosted     = "journal.posted"
	TypeJournalVoided     = "journal.voided"
	TypeRecurringExecuted = "recurring.executed"
	TypeRecurringFailed   = "recurring.failed"
	TypeReconciled        = "reconciliation.reconciled"
	TypeDiscrepancy       = "reconciliation.discrepancy"
)

// Event describes a ledger event to store in the outbox. Reporting and
// dashboard modules drain the table out of process.
type Event struct {
	ShopID    snowflake.ID
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Outbox inserts ledger events into the ledger_events table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction so the event
// commits together with the ledger write it announces.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	if event.ShopID == 0 {
		return errors.New("invalid_shop_id")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	dedupe := strings.TrimSpace(event.DedupeKey)
	var dedupeValue any
	if dedupe != "" {
		dedupeValue = dedupe
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO ledger_events (id, shop_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, FALSE, ?)
		 ON CONFLICT (shop_id, dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		event.ShopID,
		name,
		payload,
		dedupeValue,
		now,
	).Error
}
