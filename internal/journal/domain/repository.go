package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertEntry(ctx context.Context, db *gorm.DB, entry *JournalEntry, lines []JournalLine) error
	FindEntryByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*JournalEntry, []JournalLine, error)
	FindLineByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*JournalLine, *JournalEntry, error)
	ListEntries(ctx context.Context, db *gorm.DB, shopID snowflake.ID, filter ListFilter) ([]JournalEntry, error)

	// MarkPosted and MarkVoid are the status check-and-set transitions. Both
	// report false when the entry was not in the required source status,
	// which is how a lost race surfaces.
	MarkPosted(ctx context.Context, db *gorm.DB, id snowflake.ID, postedBy string, at time.Time) (bool, error)
	MarkVoid(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)

	// DeleteDraft removes a draft header and its lines; false when the entry
	// was not a draft.
	DeleteDraft(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (bool, error)
}
