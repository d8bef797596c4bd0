package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ImportRequest struct {
	AccountID     snowflake.ID
	BankReference string
	StatementDate time.Time
	Amount        decimal.Decimal
}

type ListFilter struct {
	AccountID snowflake.ID
	Status    Status
	Limit     int
}

// Service matches imported bank-statement lines against posted ledger lines
// and settles statement balances against the ledger. It reads the journal,
// never writes it.
type Service interface {
	ImportStatementLine(ctx context.Context, req ImportRequest) (*Reconciliation, error)
	Match(ctx context.Context, reconciliationID, journalLineID snowflake.ID) (*Reconciliation, error)

	// SuggestMatches ranks posted, unclaimed lines on the reconciliation's
	// account within +/- window of the statement date.
	SuggestMatches(ctx context.Context, reconciliationID snowflake.ID, window time.Duration) ([]MatchCandidate, error)

	// Reconcile compares the ledger balance as of the statement date against
	// the bank's closing balance. A mismatch is a Discrepancy outcome with
	// the delta recorded, not an error.
	Reconcile(ctx context.Context, reconciliationID snowflake.ID, opening, closing decimal.Decimal, reconciledBy string) (*Reconciliation, error)
	List(ctx context.Context, filter ListFilter) ([]Reconciliation, error)
}

var (
	ErrInvalidShop          = errors.New("invalid_shop")
	ErrInvalidStatementDate = errors.New("invalid_statement_date")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrNotFound             = errors.New("reconciliation_not_found")
	ErrLineNotFound         = errors.New("journal_line_not_found")
	ErrAlreadyMatched       = errors.New("already_matched")
	ErrAccountMismatch      = errors.New("line_belongs_to_different_account")
	ErrLineNotPosted        = errors.New("line_not_posted")
	ErrAlreadyReconciled    = errors.New("already_reconciled")
)
