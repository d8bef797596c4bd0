package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rec *Reconciliation) error

	// Update persists a status transition. Claiming a line can trip the
	// unique journal_line_id index; the error surfaces to the caller.
	Update(ctx context.Context, db *gorm.DB, rec *Reconciliation) error

	// LineClaimed reports whether any reconciliation already holds the line.
	LineClaimed(ctx context.Context, db *gorm.DB, journalLineID snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*Reconciliation, error)
	List(ctx context.Context, db *gorm.DB, shopID snowflake.ID, filter ListFilter) ([]Reconciliation, error)

	// CandidateLines returns posted lines on the account dated within
	// [from, to] that no reconciliation has claimed yet.
	CandidateLines(ctx context.Context, db *gorm.DB, shopID, accountID snowflake.ID, from, to time.Time) ([]MatchCandidate, error)
}
