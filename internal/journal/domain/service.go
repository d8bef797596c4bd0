package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LineInput is a caller-supplied journal line before persistence.
type LineInput struct {
	AccountID snowflake.ID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

type CreateDraftRequest struct {
	Reference   string
	Date        time.Time
	Description string
	Lines       []LineInput
}

type ListFilter struct {
	Status    EntryStatus
	AccountID snowflake.ID
	Reference string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// EntryWithLines bundles a header with its ordered lines.
type EntryWithLines struct {
	Entry JournalEntry
	Lines []JournalLine
}

// Service creates, posts, and voids journal entries. Post is the single
// atomic operation of the core: balance mutation and the draft->posted
// transition commit together or not at all.
type Service interface {
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*EntryWithLines, error)
	Post(ctx context.Context, entryID snowflake.ID, postedBy string) (*EntryWithLines, error)
	Void(ctx context.Context, entryID snowflake.ID, reason, voidedBy string) (*EntryWithLines, error)
	DiscardDraft(ctx context.Context, entryID snowflake.ID) error
	GetEntry(ctx context.Context, entryID snowflake.ID) (*EntryWithLines, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
}

var (
	ErrInvalidShop     = errors.New("invalid_shop")
	ErrInvalidDate     = errors.New("invalid_entry_date")
	ErrEmptyLines      = errors.New("empty_lines")
	ErrZeroAmountLine  = errors.New("zero_amount_line")
	ErrNegativeAmount  = errors.New("negative_amount")
	ErrBothSidesSet    = errors.New("both_sides_set")
	ErrUnbalanced      = errors.New("unbalanced_entry")
	ErrAccountNotFound = errors.New("account_not_found")
	ErrInactiveAccount = errors.New("inactive_account_referenced")
	ErrEntryNotFound   = errors.New("entry_not_found")
	ErrAlreadyPosted   = errors.New("already_posted")
	ErrNotPosted       = errors.New("not_posted")
	ErrNotDraft        = errors.New("not_draft")
)
