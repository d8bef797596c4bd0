package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
	accountrepo "github.com/shopbooks/shopbooks/internal/account/repository"
	accountservice "github.com/shopbooks/shopbooks/internal/account/service"
	auditrepo "github.com/shopbooks/shopbooks/internal/audit/repository"
	auditservice "github.com/shopbooks/shopbooks/internal/audit/service"
	"github.com/shopbooks/shopbooks/internal/clock"
	"github.com/shopbooks/shopbooks/internal/events"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	journalrepo "github.com/shopbooks/shopbooks/internal/journal/repository"
	journalservice "github.com/shopbooks/shopbooks/internal/journal/service"
	"github.com/shopbooks/shopbooks/internal/reconciliation/domain"
	"github.com/shopbooks/shopbooks/internal/reconciliation/repository"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
	"github.com/shopbooks/shopbooks/internal/testutil"
)

type reconFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	shopID  snowflake.ID
	journal journaldomain.Service
	svc     domain.Service
}

func setupRecon(t *testing.T) *reconFixture {
	t.Helper()
	db := testutil.OpenDB(t, t.Name())
	testutil.CreateLedgerSchema(t, db)
	node := testutil.Node(t)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	outbox := events.NewOutbox(db, node)
	accounts := accountrepo.Provide()
	journalRepo := journalrepo.Provide()

	accountSvc := accountservice.NewService(accountservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  accounts,
	})
	journalSvc := journalservice.NewService(journalservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.SystemClock{},
		Repo:        journalRepo,
		AccountRepo: accounts,
		AuditSvc:    auditSvc,
		Outbox:      outbox,
	})
	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		JournalRepo: journalRepo,
		AccountSvc:  accountSvc,
		AuditSvc:    auditSvc,
		Outbox:      outbox,
	})

	return &reconFixture{
		db:      db,
		node:    node,
		shopID:  node.Generate(),
		journal: journalSvc,
		svc:     svc,
	}
}

func (f *reconFixture) ctx() context.Context {
	ctx := shopcontext.WithShopID(context.Background(), f.shopID)
	return shopcontext.WithActor(ctx, "user", "bookkeeper")
}

func (f *reconFixture) newAccount(t *testing.T, code string, normal accountdomain.NormalBalance) *accountdomain.Account {
	t.Helper()
	accountType := accountdomain.AccountTypeAsset
	if normal == accountdomain.NormalBalanceCredit {
		accountType = accountdomain.AccountTypeRevenue
	}
	account := &accountdomain.Account{
		ID:            f.node.Generate(),
		ShopID:        f.shopID,
		Code:          code,
		Name:          "Account " + code,
		Type:          accountType,
		NormalBalance: normal,
		Balance:       decimal.Zero,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := accountrepo.Provide().Insert(context.Background(), f.db, account); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return account
}

func (f *reconFixture) postEntry(t *testing.T, date time.Time, reference string, lines []journaldomain.LineInput) *journaldomain.EntryWithLines {
	t.Helper()
	draft, err := f.journal.CreateDraft(f.ctx(), journaldomain.CreateDraftRequest{
		Reference: reference,
		Date:      date,
		Lines:     lines,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	posted, err := f.journal.Post(f.ctx(), draft.Entry.ID, "bookkeeper")
	if err != nil {
		t.Fatalf("post entry: %v", err)
	}
	return posted
}

// lineOn returns the posted line hitting the given account.
func lineOn(t *testing.T, entry *journaldomain.EntryWithLines, accountID snowflake.ID) journaldomain.JournalLine {
	t.Helper()
	for _, line := range entry.Lines {
		if line.AccountID == accountID {
			return line
		}
	}
	t.Fatalf("entry %s has no line on account %s", entry.Entry.ID, accountID)
	return journaldomain.JournalLine{}
}

func TestReconcileFlagsDiscrepancyWithDelta(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)
	sales := f.newAccount(t, "4000", accountdomain.NormalBalanceCredit)

	f.postEntry(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), "INV-1", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(1000)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(1000)},
	})
	f.postEntry(t, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), "INV-2", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(500)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(500)},
	})

	rec, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     cash.ID,
		BankReference: "STMT-JAN",
		StatementDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(1450),
	})
	if err != nil {
		t.Fatalf("import statement line: %v", err)
	}

	// Ledger says 1500, the bank says 1450. Not an error: the 50 delta is
	// recorded and the record is flagged for correcting entries.
	got, err := f.svc.Reconcile(f.ctx(), rec.ID, decimal.Zero, decimal.NewFromInt(1450), "bookkeeper")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got.Status != domain.StatusDiscrepancy {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusDiscrepancy)
	}
	if !got.Delta.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("delta = %s, want 50", got.Delta)
	}
	if got.ReconciledBy == nil || *got.ReconciledBy != "bookkeeper" {
		t.Fatalf("reconciled_by = %v, want bookkeeper", got.ReconciledBy)
	}
}

func TestReconcileSettlesWhenBalancesAgree(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)
	sales := f.newAccount(t, "4000", accountdomain.NormalBalanceCredit)

	f.postEntry(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), "INV-1", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(1500)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(1500)},
	})

	rec, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     cash.ID,
		StatementDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("import statement line: %v", err)
	}

	got, err := f.svc.Reconcile(f.ctx(), rec.ID, decimal.Zero, decimal.NewFromInt(1500), "bookkeeper")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got.Status != domain.StatusReconciled {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusReconciled)
	}
	if !got.Delta.IsZero() {
		t.Fatalf("delta = %s, want 0", got.Delta)
	}

	// A settled record stays settled.
	if _, err := f.svc.Reconcile(f.ctx(), rec.ID, decimal.Zero, decimal.NewFromInt(1500), "bookkeeper"); !errors.Is(err, domain.ErrAlreadyReconciled) {
		t.Fatalf("second reconcile err = %v, want %v", err, domain.ErrAlreadyReconciled)
	}
}

func TestReconcileAfterDiscrepancyCorrection(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)
	sales := f.newAccount(t, "4000", accountdomain.NormalBalanceCredit)

	f.postEntry(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), "INV-1", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(1400)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(1400)},
	})

	rec, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     cash.ID,
		StatementDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(1500),
	})
	if err != nil {
		t.Fatalf("import statement line: %v", err)
	}

	got, err := f.svc.Reconcile(f.ctx(), rec.ID, decimal.Zero, decimal.NewFromInt(1500), "bookkeeper")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got.Status != domain.StatusDiscrepancy {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusDiscrepancy)
	}

	// Book the missing deposit, then run the reconciliation again.
	f.postEntry(t, time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC), "INV-2", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(100)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(100)},
	})
	got, err = f.svc.Reconcile(f.ctx(), rec.ID, decimal.Zero, decimal.NewFromInt(1500), "bookkeeper")
	if err != nil {
		t.Fatalf("re-reconcile: %v", err)
	}
	if got.Status != domain.StatusReconciled {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusReconciled)
	}
}

func TestMatchClaimsPostedLineOnce(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)
	sales := f.newAccount(t, "4000", accountdomain.NormalBalanceCredit)

	entry := f.postEntry(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), "INV-7", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(700)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(700)},
	})
	cashLine := lineOn(t, entry, cash.ID)
	salesLine := lineOn(t, entry, sales.ID)

	importLine := func(ref string) *domain.Reconciliation {
		rec, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
			AccountID:     cash.ID,
			BankReference: ref,
			StatementDate: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
			Amount:        decimal.NewFromInt(700),
		})
		if err != nil {
			t.Fatalf("import statement line: %v", err)
		}
		return rec
	}

	rec := importLine("DEP-1")
	if _, err := f.svc.Match(f.ctx(), rec.ID, salesLine.ID); !errors.Is(err, domain.ErrAccountMismatch) {
		t.Fatalf("cross-account match err = %v, want %v", err, domain.ErrAccountMismatch)
	}

	got, err := f.svc.Match(f.ctx(), rec.ID, cashLine.ID)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got.Status != domain.StatusMatched {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusMatched)
	}
	if got.JournalLineID == nil || *got.JournalLineID != cashLine.ID {
		t.Fatalf("journal_line_id = %v, want %s", got.JournalLineID, cashLine.ID)
	}

	// Statement line already claimed a ledger line.
	if _, err := f.svc.Match(f.ctx(), rec.ID, cashLine.ID); !errors.Is(err, domain.ErrAlreadyMatched) {
		t.Fatalf("rematch err = %v, want %v", err, domain.ErrAlreadyMatched)
	}

	// Ledger line already claimed by another statement line.
	other := importLine("DEP-2")
	if _, err := f.svc.Match(f.ctx(), other.ID, cashLine.ID); !errors.Is(err, domain.ErrAlreadyMatched) {
		t.Fatalf("claimed-line match err = %v, want %v", err, domain.ErrAlreadyMatched)
	}
}

func TestMatchRejectsDraftLines(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)
	sales := f.newAccount(t, "4000", accountdomain.NormalBalanceCredit)

	draft, err := f.journal.CreateDraft(f.ctx(), journaldomain.CreateDraftRequest{
		Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Lines: []journaldomain.LineInput{
			{AccountID: cash.ID, Debit: decimal.NewFromInt(700)},
			{AccountID: sales.ID, Credit: decimal.NewFromInt(700)},
		},
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	rec, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     cash.ID,
		StatementDate: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("import statement line: %v", err)
	}

	draftLine := lineOn(t, draft, cash.ID)
	if _, err := f.svc.Match(f.ctx(), rec.ID, draftLine.ID); !errors.Is(err, domain.ErrLineNotPosted) {
		t.Fatalf("match draft line err = %v, want %v", err, domain.ErrLineNotPosted)
	}
}

func TestSuggestMatchesRanksExactAmountFirst(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)
	sales := f.newAccount(t, "4000", accountdomain.NormalBalanceCredit)

	exact := f.postEntry(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), "INV-42", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(700)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(700)},
	})
	f.postEntry(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "INV-43", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromFloat(123.45)},
		{AccountID: sales.ID, Credit: decimal.NewFromFloat(123.45)},
	})
	f.postEntry(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "INV-44", []journaldomain.LineInput{
		{AccountID: cash.ID, Debit: decimal.NewFromInt(700)},
		{AccountID: sales.ID, Credit: decimal.NewFromInt(700)},
	})

	rec, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     cash.ID,
		BankReference: "INV-42",
		StatementDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("import statement line: %v", err)
	}

	candidates, err := f.svc.SuggestMatches(f.ctx(), rec.ID, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("suggest matches: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(candidates))
	}
	top := candidates[0]
	if top.LineID != lineOn(t, exact, cash.ID).ID {
		t.Fatalf("top candidate line = %s, want the same-amount same-week line", top.LineID)
	}
	if top.Score <= candidates[1].Score {
		t.Fatalf("top score %d not above runner-up %d", top.Score, candidates[1].Score)
	}

	// Claimed lines drop out of the candidate pool.
	if _, err := f.svc.Match(f.ctx(), rec.ID, top.LineID); err != nil {
		t.Fatalf("match: %v", err)
	}
	rec2, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     cash.ID,
		StatementDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("import statement line: %v", err)
	}
	candidates, err = f.svc.SuggestMatches(f.ctx(), rec2.ID, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("suggest matches: %v", err)
	}
	for _, c := range candidates {
		if c.LineID == top.LineID {
			t.Fatalf("claimed line %s still suggested", c.LineID)
		}
	}
}

func TestImportValidatesAccountAndDate(t *testing.T) {
	f := setupRecon(t)
	cash := f.newAccount(t, "1000", accountdomain.NormalBalanceDebit)

	if _, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID: cash.ID,
		Amount:    decimal.NewFromInt(10),
	}); !errors.Is(err, domain.ErrInvalidStatementDate) {
		t.Fatalf("zero date err = %v, want %v", err, domain.ErrInvalidStatementDate)
	}

	if _, err := f.svc.ImportStatementLine(f.ctx(), domain.ImportRequest{
		AccountID:     f.node.Generate(),
		StatementDate: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(10),
	}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("unknown account err = %v, want %v", err, domain.ErrAccountNotFound)
	}
}

type matchRepoStub struct {
	domain.Repository

	rec       domain.Reconciliation
	updateErr error
	claimed   bool
}

func (s *matchRepoStub) FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*domain.Reconciliation, error) {
	rec := s.rec
	return &rec, nil
}

func (s *matchRepoStub) Update(ctx context.Context, db *gorm.DB, rec *domain.Reconciliation) error {
	return s.updateErr
}

func (s *matchRepoStub) LineClaimed(ctx context.Context, db *gorm.DB, journalLineID snowflake.ID) (bool, error) {
	return s.claimed, nil
}

type lineRepoStub struct {
	journaldomain.Repository

	line  journaldomain.JournalLine
	entry journaldomain.JournalEntry
}

func (s *lineRepoStub) FindLineByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*journaldomain.JournalLine, *journaldomain.JournalEntry, error) {
	line, entry := s.line, s.entry
	return &line, &entry, nil
}

// A failed claim write only means "already matched" when another
// reconciliation actually holds the line; other storage failures pass
// through untouched.
func TestMatchSurfacesStorageErrors(t *testing.T) {
	node := testutil.Node(t)
	shopID := node.Generate()
	accountID := node.Generate()
	lineID := node.Generate()

	storageErr := errors.New("connection_reset")
	repoStub := &matchRepoStub{
		rec: domain.Reconciliation{
			ID:        node.Generate(),
			ShopID:    shopID,
			AccountID: accountID,
			Status:    domain.StatusPending,
		},
		updateErr: storageErr,
	}
	svc := NewService(Params{
		Log:  zap.NewNop(),
		Repo: repoStub,
		JournalRepo: &lineRepoStub{
			line:  journaldomain.JournalLine{ID: lineID, AccountID: accountID},
			entry: journaldomain.JournalEntry{ShopID: shopID, Status: journaldomain.EntryStatusPosted},
		},
	})
	ctx := shopcontext.WithShopID(context.Background(), shopID)

	if _, err := svc.Match(ctx, repoStub.rec.ID, lineID); !errors.Is(err, storageErr) {
		t.Fatalf("match err = %v, want the storage error", err)
	}

	repoStub.claimed = true
	if _, err := svc.Match(ctx, repoStub.rec.ID, lineID); !errors.Is(err, domain.ErrAlreadyMatched) {
		t.Fatalf("match err = %v, want %v", err, domain.ErrAlreadyMatched)
	}
}
