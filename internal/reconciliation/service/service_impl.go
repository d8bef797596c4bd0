package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
	auditdomain "github.com/shopbooks/shopbooks/internal/audit/domain"
	"github.com/shopbooks/shopbooks/internal/events"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	"github.com/shopbooks/shopbooks/internal/reconciliation/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	JournalRepo journaldomain.Repository
	AccountSvc  accountdomain.Service
	AuditSvc    auditdomain.Service
	Outbox      *events.Outbox
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	journalRepo journaldomain.Repository
	accountSvc  accountdomain.Service
	auditSvc    auditdomain.Service
	outbox      *events.Outbox
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("reconciliation.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		journalRepo: p.JournalRepo,
		accountSvc:  p.AccountSvc,
		auditSvc:    p.AuditSvc,
		outbox:      p.Outbox,
	}
}

func (s *Service) ImportStatementLine(ctx context.Context, req domain.ImportRequest) (*domain.Reconciliation, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.StatementDate.IsZero() {
		return nil, domain.ErrInvalidStatementDate
	}

	if _, err := s.accountSvc.Get(ctx, req.AccountID); err != nil {
		if err == accountdomain.ErrNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.Reconciliation{
		ID:            s.genID.Generate(),
		ShopID:        shopID,
		AccountID:     req.AccountID,
		BankReference: strings.TrimSpace(req.BankReference),
		StatementDate: req.StatementDate.UTC(),
		Amount:        req.Amount,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Match(ctx context.Context, reconciliationID, journalLineID snowflake.ID) (*domain.Reconciliation, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByID(ctx, s.db, shopID, reconciliationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if rec.JournalLineID != nil {
		return nil, domain.ErrAlreadyMatched
	}

	line, entry, err := s.journalRepo.FindLineByID(ctx, s.db, journalLineID)
	if err != nil {
		return nil, err
	}
	if line == nil || entry.ShopID != shopID {
		return nil, domain.ErrLineNotFound
	}
	if line.AccountID != rec.AccountID {
		return nil, domain.ErrAccountMismatch
	}
	if entry.Status != journaldomain.EntryStatusPosted {
		return nil, domain.ErrLineNotPosted
	}

	rec.JournalLineID = &journalLineID
	rec.Status = domain.StatusMatched
	rec.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, rec); err != nil {
		// The unique index on journal_line_id rejects a line another
		// statement line already claimed; anything else is a storage
		// failure and surfaces as such.
		if claimed, claimErr := s.repo.LineClaimed(ctx, s.db, journalLineID); claimErr == nil && claimed {
			return nil, domain.ErrAlreadyMatched
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) SuggestMatches(ctx context.Context, reconciliationID snowflake.ID, window time.Duration) ([]domain.MatchCandidate, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByID(ctx, s.db, shopID, reconciliationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}

	from := rec.StatementDate.Add(-window)
	to := rec.StatementDate.Add(window)
	candidates, err := s.repo.CandidateLines(ctx, s.db, shopID, rec.AccountID, from, to)
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidates[i].Score = scoreCandidate(rec, candidates[i])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

func (s *Service) Reconcile(ctx context.Context, reconciliationID snowflake.ID, opening, closing decimal.Decimal, reconciledBy string) (*domain.Reconciliation, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByID(ctx, s.db, shopID, reconciliationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	// A discrepancy may be re-reconciled after correcting entries land;
	// a reconciled record is settled.
	if rec.Status == domain.StatusReconciled {
		return nil, domain.ErrAlreadyReconciled
	}

	asOf := rec.StatementDate
	computed, err := s.accountSvc.GetBalance(ctx, rec.AccountID, &asOf)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec.OpeningBalance = opening
	rec.ClosingBalance = closing
	rec.Delta = computed.Sub(closing)
	rec.ReconciledBy = &reconciledBy
	rec.ReconciledAt = &now
	rec.UpdatedAt = now

	eventType := events.TypeReconciled
	action := auditdomain.ActionReconciled
	if rec.Delta.IsZero() {
		rec.Status = domain.StatusReconciled
	} else {
		rec.Status = domain.StatusDiscrepancy
		eventType = events.TypeDiscrepancy
		action = auditdomain.ActionDiscrepancyFound
		s.log.Warn("reconciliation discrepancy",
			zap.String("reconciliation_id", rec.ID.String()),
			zap.String("account_id", rec.AccountID.String()),
			zap.String("delta", rec.Delta.String()),
		)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, rec); err != nil {
			return err
		}
		if err := s.auditSvc.RecordTx(ctx, tx, auditdomain.Record{
			ShopID:     shopID,
			ActorType:  auditdomain.ActorTypeUser,
			ActorID:    reconciledBy,
			Action:     action,
			TargetType: "reconciliation",
			TargetID:   rec.ID.String(),
			Metadata: map[string]any{
				"account_id":      rec.AccountID.String(),
				"statement_date":  rec.StatementDate.Format("2006-01-02"),
				"closing_balance": closing.String(),
				"computed":        computed.String(),
				"delta":           rec.Delta.String(),
			},
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			ShopID: shopID,
			Type:   eventType,
			Payload: map[string]any{
				"reconciliation_id": rec.ID.String(),
				"account_id":        rec.AccountID.String(),
				"delta":             rec.Delta.String(),
			},
			DedupeKey: eventType + ":" + rec.ID.String() + ":" + now.Format(time.RFC3339),
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Reconciliation, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, shopID, filter)
}

// scoreCandidate ranks a ledger line against a statement line: exact amount
// dominates, then date proximity, then a reference substring hit.
func scoreCandidate(rec *domain.Reconciliation, c domain.MatchCandidate) int {
	score := 0

	amount := c.Debit
	if c.Credit.IsPositive() {
		amount = c.Credit
	}
	if amount.Equal(rec.Amount.Abs()) {
		score += 60
	}

	days := int(rec.StatementDate.Sub(c.EntryDate).Hours() / 24)
	if days < 0 {
		days = -days
	}
	if days <= 30 {
		score += 30 - days
	}

	ref := strings.ToLower(strings.TrimSpace(rec.BankReference))
	if ref != "" {
		if strings.Contains(strings.ToLower(c.Reference), ref) ||
			strings.Contains(strings.ToLower(c.Memo), ref) {
			score += 10
		}
	}
	return score
}

func (s *Service) shopIDFromContext(ctx context.Context) (snowflake.ID, error) {
	if shopID, ok := shopcontext.ShopIDFromContext(ctx); ok {
		return shopID, nil
	}
	return 0, domain.ErrInvalidShop
}
