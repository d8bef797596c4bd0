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
	"github.com/shopbooks/shopbooks/internal/allocation/domain"
	"github.com/shopbooks/shopbooks/internal/allocation/repository"
	auditrepo "github.com/shopbooks/shopbooks/internal/audit/repository"
	auditservice "github.com/shopbooks/shopbooks/internal/audit/service"
	"github.com/shopbooks/shopbooks/internal/clock"
	costcenterdomain "github.com/shopbooks/shopbooks/internal/costcenter/domain"
	costcenterrepo "github.com/shopbooks/shopbooks/internal/costcenter/repository"
	"github.com/shopbooks/shopbooks/internal/events"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	journalrepo "github.com/shopbooks/shopbooks/internal/journal/repository"
	journalservice "github.com/shopbooks/shopbooks/internal/journal/service"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
	"github.com/shopbooks/shopbooks/internal/testutil"
)

type allocationFixture struct {
	db          *gorm.DB
	node        *snowflake.Node
	shopID      snowflake.ID
	journal     journaldomain.Service
	costCenters costcenterdomain.Registry
	svc         domain.Service
}

func setupAllocation(t *testing.T) *allocationFixture {
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
	accounts := accountrepo.Provide()
	journalRepo := journalrepo.Provide()
	costCenters := costcenterrepo.Provide()

	journalSvc := journalservice.NewService(journalservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.SystemClock{},
		Repo:        journalRepo,
		AccountRepo: accounts,
		AuditSvc:    auditSvc,
		Outbox:      events.NewOutbox(db, node),
	})
	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.Provide(),
		JournalRepo: journalRepo,
		CostCenters: costCenters,
		AuditSvc:    auditSvc,
	})

	return &allocationFixture{
		db:          db,
		node:        node,
		shopID:      node.Generate(),
		journal:     journalSvc,
		costCenters: costCenters,
		svc:         svc,
	}
}

func (f *allocationFixture) ctx() context.Context {
	ctx := shopcontext.WithShopID(context.Background(), f.shopID)
	return shopcontext.WithActor(ctx, "user", "controller")
}

func (f *allocationFixture) newCostCenter(t *testing.T, code string) *costcenterdomain.CostCenter {
	t.Helper()
	cc := &costcenterdomain.CostCenter{
		ID:        f.node.Generate(),
		ShopID:    f.shopID,
		Code:      code,
		Name:      "Cost Center " + code,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.costCenters.Create(context.Background(), f.db, cc); err != nil {
		t.Fatalf("create cost center: %v", err)
	}
	return cc
}

// postedExpenseLine posts a two-line entry and returns the expense-side
// line carrying the given amount.
func (f *allocationFixture) postedExpenseLine(t *testing.T, amount decimal.Decimal) journaldomain.JournalLine {
	t.Helper()
	expense := &accountdomain.Account{
		ID:            f.node.Generate(),
		ShopID:        f.shopID,
		Code:          "5000-" + f.node.Generate().String(),
		Name:          "Utilities",
		Type:          accountdomain.AccountTypeExpense,
		NormalBalance: accountdomain.NormalBalanceDebit,
		Balance:       decimal.Zero,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	cash := &accountdomain.Account{
		ID:            f.node.Generate(),
		ShopID:        f.shopID,
		Code:          "1000-" + f.node.Generate().String(),
		Name:          "Cash",
		Type:          accountdomain.AccountTypeAsset,
		NormalBalance: accountdomain.NormalBalanceDebit,
		Balance:       decimal.Zero,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	repo := accountrepo.Provide()
	if err := repo.Insert(context.Background(), f.db, expense); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if err := repo.Insert(context.Background(), f.db, cash); err != nil {
		t.Fatalf("insert account: %v", err)
	}

	draft, err := f.journal.CreateDraft(f.ctx(), journaldomain.CreateDraftRequest{
		Date: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		Lines: []journaldomain.LineInput{
			{AccountID: expense.ID, Debit: amount},
			{AccountID: cash.ID, Credit: amount},
		},
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	posted, err := f.journal.Post(f.ctx(), draft.Entry.ID, "controller")
	if err != nil {
		t.Fatalf("post entry: %v", err)
	}
	for _, line := range posted.Lines {
		if line.AccountID == expense.ID {
			return line
		}
	}
	t.Fatal("posted entry missing expense line")
	return journaldomain.JournalLine{}
}

func amountSplit(ccID snowflake.ID, amount decimal.Decimal) domain.SplitInput {
	return domain.SplitInput{CostCenterID: ccID, Amount: &amount}
}

func percentSplit(ccID snowflake.ID, pct decimal.Decimal) domain.SplitInput {
	return domain.SplitInput{CostCenterID: ccID, Percentage: &pct}
}

func TestAllocateSplitsByAmountAndPercentage(t *testing.T) {
	f := setupAllocation(t)
	line := f.postedExpenseLine(t, decimal.NewFromInt(1000))
	retail := f.newCostCenter(t, "RETAIL")
	online := f.newCostCenter(t, "ONLINE")

	allocations, err := f.svc.Allocate(f.ctx(), line.ID, []domain.SplitInput{
		amountSplit(retail.ID, decimal.NewFromInt(400)),
		percentSplit(online.ID, decimal.NewFromInt(35)),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(allocations))
	}
	if !allocations[0].Amount.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("amount split = %s, want 400", allocations[0].Amount)
	}
	// 35% of 1000.
	if !allocations[1].Amount.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("percent split = %s, want 350", allocations[1].Amount)
	}

	view, err := f.svc.ListForLine(f.ctx(), line.ID)
	if err != nil {
		t.Fatalf("list for line: %v", err)
	}
	if !view.Allocated.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("allocated = %s, want 750", view.Allocated)
	}
	if !view.Unallocated.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unallocated = %s, want 250", view.Unallocated)
	}
}

func TestAllocateRoundsPercentageToCents(t *testing.T) {
	f := setupAllocation(t)
	line := f.postedExpenseLine(t, decimal.NewFromFloat(100.33))
	retail := f.newCostCenter(t, "RETAIL")

	allocations, err := f.svc.Allocate(f.ctx(), line.ID, []domain.SplitInput{
		percentSplit(retail.ID, decimal.NewFromInt(33)),
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	// 33% of 100.33 is 33.1089, rounded half-up to cents.
	if !allocations[0].Amount.Equal(decimal.NewFromFloat(33.11)) {
		t.Fatalf("amount = %s, want 33.11", allocations[0].Amount)
	}
}

func TestAllocateRejectsOverAllocation(t *testing.T) {
	f := setupAllocation(t)
	line := f.postedExpenseLine(t, decimal.NewFromInt(1000))
	retail := f.newCostCenter(t, "RETAIL")
	online := f.newCostCenter(t, "ONLINE")

	if _, err := f.svc.Allocate(f.ctx(), line.ID, []domain.SplitInput{
		amountSplit(retail.ID, decimal.NewFromInt(700)),
		percentSplit(online.ID, decimal.NewFromInt(40)),
	}); !errors.Is(err, domain.ErrOverAllocated) {
		t.Fatalf("err = %v, want %v", err, domain.ErrOverAllocated)
	}

	// The cap counts what earlier calls already allocated.
	if _, err := f.svc.Allocate(f.ctx(), line.ID, []domain.SplitInput{
		amountSplit(retail.ID, decimal.NewFromInt(900)),
	}); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if _, err := f.svc.Allocate(f.ctx(), line.ID, []domain.SplitInput{
		amountSplit(online.ID, decimal.NewFromInt(200)),
	}); !errors.Is(err, domain.ErrOverAllocated) {
		t.Fatalf("err = %v, want %v", err, domain.ErrOverAllocated)
	}

	// A failed call leaves nothing behind.
	view, err := f.svc.ListForLine(f.ctx(), line.ID)
	if err != nil {
		t.Fatalf("list for line: %v", err)
	}
	if !view.Allocated.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("allocated = %s, want 900", view.Allocated)
	}
}

func TestAllocateValidatesSplitShape(t *testing.T) {
	f := setupAllocation(t)
	line := f.postedExpenseLine(t, decimal.NewFromInt(1000))
	retail := f.newCostCenter(t, "RETAIL")
	amount := decimal.NewFromInt(100)
	pct := decimal.NewFromInt(10)
	negative := decimal.NewFromInt(-5)

	cases := []struct {
		name   string
		splits []domain.SplitInput
		want   error
	}{
		{"no splits", nil, domain.ErrEmptySplits},
		{"neither side", []domain.SplitInput{{CostCenterID: retail.ID}}, domain.ErrUnderspecifiedSplit},
		{"both sides", []domain.SplitInput{{CostCenterID: retail.ID, Amount: &amount, Percentage: &pct}}, domain.ErrAmbiguousSplit},
		{"negative amount", []domain.SplitInput{{CostCenterID: retail.ID, Amount: &negative}}, domain.ErrNegativeSplit},
		{"negative percentage", []domain.SplitInput{{CostCenterID: retail.ID, Percentage: &negative}}, domain.ErrNegativeSplit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Allocate(f.ctx(), line.ID, tc.splits); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAllocateRequiresPostedLineAndKnownCostCenter(t *testing.T) {
	f := setupAllocation(t)
	retail := f.newCostCenter(t, "RETAIL")

	if _, err := f.svc.Allocate(f.ctx(), f.node.Generate(), []domain.SplitInput{
		amountSplit(retail.ID, decimal.NewFromInt(10)),
	}); !errors.Is(err, domain.ErrLineNotFound) {
		t.Fatalf("unknown line err = %v, want %v", err, domain.ErrLineNotFound)
	}

	line := f.postedExpenseLine(t, decimal.NewFromInt(1000))
	if _, err := f.svc.Allocate(f.ctx(), line.ID, []domain.SplitInput{
		amountSplit(f.node.Generate(), decimal.NewFromInt(10)),
	}); !errors.Is(err, domain.ErrCostCenterNotFound) {
		t.Fatalf("unknown cost center err = %v, want %v", err, domain.ErrCostCenterNotFound)
	}
}
