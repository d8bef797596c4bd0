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

	"github.com/shopbooks/shopbooks/internal/account/domain"
	"github.com/shopbooks/shopbooks/internal/account/repository"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
	"github.com/shopbooks/shopbooks/internal/testutil"
)

type accountFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	shopID snowflake.ID
	svc    domain.Service
}

func setupAccounts(t *testing.T) *accountFixture {
	t.Helper()
	db := testutil.OpenDB(t, t.Name())
	testutil.CreateLedgerSchema(t, db)
	node := testutil.Node(t)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return &accountFixture{db: db, node: node, shopID: node.Generate(), svc: svc}
}

func (f *accountFixture) ctx() context.Context {
	return shopcontext.WithShopID(context.Background(), f.shopID)
}

func (f *accountFixture) create(t *testing.T, code string, parentID *snowflake.ID) *domain.Account {
	t.Helper()
	account, err := f.svc.Create(f.ctx(), domain.CreateRequest{
		Code:          code,
		Name:          "Account " + code,
		Type:          domain.AccountTypeAsset,
		NormalBalance: domain.NormalBalanceDebit,
		ParentID:      parentID,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", code, err)
	}
	return account
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	f := setupAccounts(t)
	f.create(t, "1000", nil)

	_, err := f.svc.Create(f.ctx(), domain.CreateRequest{
		Code:          "1000",
		Name:          "Another Cash",
		Type:          domain.AccountTypeAsset,
		NormalBalance: domain.NormalBalanceDebit,
	})
	if !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code, got %v", err)
	}
}

func TestCreateValidatesShape(t *testing.T) {
	f := setupAccounts(t)

	cases := []struct {
		name string
		req  domain.CreateRequest
		want error
	}{
		{
			name: "blank code",
			req:  domain.CreateRequest{Name: "x", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalBalanceDebit},
			want: domain.ErrInvalidCode,
		},
		{
			name: "blank name",
			req:  domain.CreateRequest{Code: "1", Type: domain.AccountTypeAsset, NormalBalance: domain.NormalBalanceDebit},
			want: domain.ErrInvalidName,
		},
		{
			name: "bad type",
			req:  domain.CreateRequest{Code: "1", Name: "x", Type: "goodwill", NormalBalance: domain.NormalBalanceDebit},
			want: domain.ErrInvalidType,
		},
		{
			name: "bad normal balance",
			req:  domain.CreateRequest{Code: "1", Name: "x", Type: domain.AccountTypeAsset, NormalBalance: "sideways"},
			want: domain.ErrInvalidNormalBalance,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Create(f.ctx(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("Create = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReparentDetectsCycles(t *testing.T) {
	f := setupAccounts(t)
	root := f.create(t, "1000", nil)
	child := f.create(t, "1100", &root.ID)
	grandchild := f.create(t, "1110", &child.ID)

	if _, err := f.svc.Reparent(f.ctx(), root.ID, &grandchild.ID); !errors.Is(err, domain.ErrCyclicParent) {
		t.Fatalf("expected cyclic parent, got %v", err)
	}
	if _, err := f.svc.Reparent(f.ctx(), root.ID, &root.ID); !errors.Is(err, domain.ErrCyclicParent) {
		t.Fatalf("expected self-parent rejection, got %v", err)
	}

	sibling := f.create(t, "2000", nil)
	if _, err := f.svc.Reparent(f.ctx(), grandchild.ID, &sibling.ID); err != nil {
		t.Fatalf("legal reparent failed: %v", err)
	}
}

func TestDeactivateBlocksOnActiveChildren(t *testing.T) {
	f := setupAccounts(t)
	parent := f.create(t, "1000", nil)
	child := f.create(t, "1100", &parent.ID)

	if err := f.svc.Deactivate(f.ctx(), parent.ID); !errors.Is(err, domain.ErrHasActiveChildren) {
		t.Fatalf("expected active children rejection, got %v", err)
	}

	if err := f.svc.Deactivate(f.ctx(), child.ID); err != nil {
		t.Fatalf("deactivate child: %v", err)
	}
	if err := f.svc.Deactivate(f.ctx(), parent.ID); err != nil {
		t.Fatalf("deactivate parent after children: %v", err)
	}

	if err := f.svc.Activate(f.ctx(), child.ID); !errors.Is(err, domain.ErrParentInactive) {
		t.Fatalf("expected inactive parent rejection, got %v", err)
	}
	if err := f.svc.Activate(f.ctx(), parent.ID); err != nil {
		t.Fatalf("activate parent: %v", err)
	}
	if err := f.svc.Activate(f.ctx(), child.ID); err != nil {
		t.Fatalf("activate child under active parent: %v", err)
	}
}

func TestGetBalanceAsOfRecomputesFromPostedLines(t *testing.T) {
	f := setupAccounts(t)
	cash := f.create(t, "1000", nil)

	f.insertPostedEntry(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), cash.ID, decimal.NewFromInt(500), decimal.Zero)
	f.insertPostedEntry(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), cash.ID, decimal.Zero, decimal.NewFromInt(200))
	f.insertDraftEntry(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), cash.ID, decimal.NewFromInt(9000))

	asOf := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	got, err := f.svc.GetBalance(f.ctx(), cash.ID, &asOf)
	if err != nil {
		t.Fatalf("get balance as of: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("as-of balance = %s, want 500 (draft and later entries excluded)", got)
	}

	asOf = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	got, err = f.svc.GetBalance(f.ctx(), cash.ID, &asOf)
	if err != nil {
		t.Fatalf("get balance as of: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("as-of balance = %s, want 300", got)
	}
}

func (f *accountFixture) insertPostedEntry(t *testing.T, date time.Time, accountID snowflake.ID, debit, credit decimal.Decimal) {
	t.Helper()
	f.insertEntry(t, date, accountID, debit, credit, journaldomain.EntryStatusPosted)
}

func (f *accountFixture) insertDraftEntry(t *testing.T, date time.Time, accountID snowflake.ID, debit decimal.Decimal) {
	t.Helper()
	f.insertEntry(t, date, accountID, debit, decimal.Zero, journaldomain.EntryStatusDraft)
}

func (f *accountFixture) insertEntry(t *testing.T, date time.Time, accountID snowflake.ID, debit, credit decimal.Decimal, status journaldomain.EntryStatus) {
	t.Helper()
	now := time.Now().UTC()
	entry := journaldomain.JournalEntry{
		ID:        f.node.Generate(),
		ShopID:    f.shopID,
		EntryDate: date,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.db.Create(&entry).Error; err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	line := journaldomain.JournalLine{
		ID:         f.node.Generate(),
		EntryID:    entry.ID,
		LineNumber: 1,
		AccountID:  accountID,
		Debit:      debit,
		Credit:     credit,
		CreatedAt:  now,
	}
	if err := f.db.Create(&line).Error; err != nil {
		t.Fatalf("insert line: %v", err)
	}
}

func TestSeedDefaultChartIsIdempotent(t *testing.T) {
	f := setupAccounts(t)

	created, err := f.svc.SeedDefaultChart(f.ctx())
	if err != nil {
		t.Fatalf("seed chart: %v", err)
	}
	if len(created) == 0 {
		t.Fatal("expected starter accounts to be created")
	}

	again, err := f.svc.SeedDefaultChart(f.ctx())
	if err != nil {
		t.Fatalf("seed chart again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second seed created %d accounts, want 0", len(again))
	}

	// A pre-existing code survives untouched.
	rent, err := f.svc.Get(f.ctx(), findByCode(t, created, "6100").ID)
	if err != nil {
		t.Fatalf("get rent account: %v", err)
	}
	if rent.ParentID == nil || *rent.ParentID != findByCode(t, created, "6000").ID {
		t.Fatalf("rent parent = %v, want operating expenses", rent.ParentID)
	}
}

func findByCode(t *testing.T, accounts []domain.Account, code string) domain.Account {
	t.Helper()
	for _, account := range accounts {
		if account.Code == code {
			return account
		}
	}
	t.Fatalf("no account with code %s", code)
	return domain.Account{}
}

func TestUpdateNeverWritesBackStaleBalance(t *testing.T) {
	f := setupAccounts(t)
	repo := repository.Provide()
	account := f.create(t, "1000", nil)

	// Snapshot taken before a posting lands, as a concurrent Deactivate
	// would hold one.
	stale := *account
	stale.IsActive = false
	stale.UpdatedAt = time.Now().UTC()

	ok, err := repo.ApplyBalanceDelta(context.Background(), f.db, account.ID, decimal.NewFromInt(100), true)
	if err != nil || !ok {
		t.Fatalf("apply delta: ok=%v err=%v", ok, err)
	}

	if err := repo.Update(context.Background(), f.db, &stale); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded, err := f.svc.Get(f.ctx(), account.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("expected account deactivated")
	}
	if !reloaded.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance = %s, want 100 (posted delta must survive metadata updates)", reloaded.Balance)
	}
}
