package testutil

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenDB opens a named in-memory sqlite database. Passing t.Name() gives
// each test its own database; the shared cache keeps it alive across the
// pool's connections for the duration of the test.
func OpenDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

// Node returns a snowflake generator for test fixtures.
func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

var ledgerSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		normal_balance TEXT NOT NULL,
		parent_id BIGINT,
		balance NUMERIC NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_shop_code ON accounts (shop_id, code)`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		entry_date TIMESTAMP NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		posted_by TEXT,
		posted_at TIMESTAMP,
		voided_at TIMESTAMP,
		reversal_of_id BIGINT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS journal_lines (
		id BIGINT PRIMARY KEY,
		entry_id BIGINT NOT NULL,
		line_number INTEGER NOT NULL,
		account_id BIGINT NOT NULL,
		debit NUMERIC NOT NULL DEFAULT 0,
		credit NUMERIC NOT NULL DEFAULT 0,
		memo TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS recurring_transactions (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		frequency TEXT NOT NULL,
		day_of_month INTEGER NOT NULL DEFAULT 0,
		month INTEGER NOT NULL DEFAULT 0,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		total_debit NUMERIC NOT NULL DEFAULT 0,
		total_credit NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS recurring_transaction_lines (
		id BIGINT PRIMARY KEY,
		recurring_transaction_id BIGINT NOT NULL,
		line_number INTEGER NOT NULL,
		account_id BIGINT NOT NULL,
		debit NUMERIC NOT NULL DEFAULT 0,
		credit NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS recurring_executions (
		id BIGINT PRIMARY KEY,
		recurring_transaction_id BIGINT NOT NULL,
		execution_date TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		journal_entry_id BIGINT,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_recurring_executions_txn_date
		ON recurring_executions (recurring_transaction_id, execution_date)`,
	`CREATE TABLE IF NOT EXISTS reconciliations (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		account_id BIGINT NOT NULL,
		journal_line_id BIGINT,
		bank_reference TEXT NOT NULL DEFAULT '',
		statement_date TIMESTAMP NOT NULL,
		amount NUMERIC NOT NULL DEFAULT 0,
		opening_balance NUMERIC NOT NULL DEFAULT 0,
		closing_balance NUMERIC NOT NULL DEFAULT 0,
		delta NUMERIC NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		reconciled_by TEXT,
		reconciled_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_reconciliations_line
		ON reconciliations (journal_line_id) WHERE journal_line_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS cost_centers (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cost_centers_shop_code ON cost_centers (shop_id, code)`,
	`CREATE TABLE IF NOT EXISTS cost_center_allocations (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		journal_line_id BIGINT NOT NULL,
		cost_center_id BIGINT NOT NULL,
		amount NUMERIC NOT NULL,
		percentage NUMERIC,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT,
		actor_type TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_events (
		id BIGINT PRIMARY KEY,
		shop_id BIGINT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		dedupe_key TEXT,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_ledger_events_dedupe ON ledger_events (shop_id, dedupe_key)`,
}

// CreateLedgerSchema creates every accounting table in the sqlite dialect.
func CreateLedgerSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, stmt := range ledgerSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
}
