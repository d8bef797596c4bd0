package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
	auditdomain "github.com/shopbooks/shopbooks/internal/audit/domain"
	"github.com/shopbooks/shopbooks/internal/clock"
	"github.com/shopbooks/shopbooks/internal/events"
	"github.com/shopbooks/shopbooks/internal/journal/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	AccountRepo accountdomain.Repository
	AuditSvc    auditdomain.Service
	Outbox      *events.Outbox
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	accountRepo accountdomain.Repository
	auditSvc    auditdomain.Service
	outbox      *events.Outbox
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("journal.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		auditSvc:    p.AuditSvc,
		outbox:      p.Outbox,
	}
}

func (s *Service) CreateDraft(ctx context.Context, req domain.CreateDraftRequest) (*domain.EntryWithLines, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	if err := domain.ValidateLines(req.Lines); err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		account, err := s.accountRepo.FindByID(ctx, s.db, shopID, line.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, domain.ErrAccountNotFound
		}
	}

	now := s.clock.Now()
	entry := &domain.JournalEntry{
		ID:          s.genID.Generate(),
		ShopID:      shopID,
		Reference:   strings.TrimSpace(req.Reference),
		EntryDate:   req.Date.UTC(),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.EntryStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	lines := s.buildLines(entry.ID, req.Lines, now)

	if err := s.repo.InsertEntry(ctx, s.db, entry, lines); err != nil {
		return nil, err
	}
	return &domain.EntryWithLines{Entry: *entry, Lines: lines}, nil
}

// Post atomically flips a draft to posted and applies every line to its
// account balance. The status check-and-set guarantees that two concurrent
// posts of the same draft produce one success and one ErrAlreadyPosted.
func (s *Service) Post(ctx context.Context, entryID snowflake.ID, postedBy string) (*domain.EntryWithLines, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var posted *domain.EntryWithLines
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, lines, err := s.repo.FindEntryByID(ctx, tx, shopID, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrEntryNotFound
		}
		if entry.Status != domain.EntryStatusDraft {
			return domain.ErrAlreadyPosted
		}
		if err := domain.ValidateBalanced(domain.LineInputsOf(lines)); err != nil {
			return err
		}

		now := s.clock.Now()
		ok, err := s.repo.MarkPosted(ctx, tx, entry.ID, postedBy, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyPosted
		}

		if err := s.applyLines(ctx, tx, shopID, lines, true); err != nil {
			return err
		}

		entry.Status = domain.EntryStatusPosted
		entry.PostedBy = &postedBy
		entry.PostedAt = &now
		entry.UpdatedAt = now

		if err := s.recordAudit(ctx, tx, shopID, auditdomain.ActionJournalPosted, postedBy, entry); err != nil {
			return err
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			ShopID:    shopID,
			Type:      events.TypeJournalPosted,
			Payload:   map[string]any{"entry_id": entry.ID.String(), "reference": entry.Reference},
			DedupeKey: fmt.Sprintf("%s:%s", events.TypeJournalPosted, entry.ID),
		}); err != nil {
			return err
		}

		posted = &domain.EntryWithLines{Entry: *entry, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// Void reverses a posted entry with a new mirrored entry and marks the
// original void. The original's lines are never touched; both entries stay
// visible in history.
func (s *Service) Void(ctx context.Context, entryID snowflake.ID, reason, voidedBy string) (*domain.EntryWithLines, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var reversal *domain.EntryWithLines
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, lines, err := s.repo.FindEntryByID(ctx, tx, shopID, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrEntryNotFound
		}
		if entry.Status != domain.EntryStatusPosted {
			return domain.ErrNotPosted
		}

		now := s.clock.Now()
		ok, err := s.repo.MarkVoid(ctx, tx, entry.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotPosted
		}

		description := fmt.Sprintf("Reversal of %s", entry.ID)
		if reason = strings.TrimSpace(reason); reason != "" {
			description = fmt.Sprintf("%s: %s", description, reason)
		}

		original := entry.ID
		reversalEntry := &domain.JournalEntry{
			ID:           s.genID.Generate(),
			ShopID:       shopID,
			Reference:    entry.Reference,
			EntryDate:    now,
			Description:  description,
			Status:       domain.EntryStatusPosted,
			PostedBy:     &voidedBy,
			PostedAt:     &now,
			ReversalOfID: &original,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		mirrored := make([]domain.JournalLine, 0, len(lines))
		for _, line := range lines {
			mirrored = append(mirrored, domain.JournalLine{
				ID:         s.genID.Generate(),
				EntryID:    reversalEntry.ID,
				LineNumber: line.LineNumber,
				AccountID:  line.AccountID,
				Debit:      line.Credit,
				Credit:     line.Debit,
				Memo:       line.Memo,
				CreatedAt:  now,
			})
		}

		if err := s.repo.InsertEntry(ctx, tx, reversalEntry, mirrored); err != nil {
			return err
		}
		// Reversals must always land, even against an account deactivated
		// since the original posting. Voiding is the only path that skips
		// the active check.
		if err := s.applyLines(ctx, tx, shopID, mirrored, false); err != nil {
			return err
		}

		if err := s.recordAudit(ctx, tx, shopID, auditdomain.ActionJournalVoided, voidedBy, entry); err != nil {
			return err
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			ShopID: shopID,
			Type:   events.TypeJournalVoided,
			Payload: map[string]any{
				"entry_id":    entry.ID.String(),
				"reversal_id": reversalEntry.ID.String(),
				"reason":      reason,
			},
			DedupeKey: fmt.Sprintf("%s:%s", events.TypeJournalVoided, entry.ID),
		}); err != nil {
			return err
		}

		reversal = &domain.EntryWithLines{Entry: *reversalEntry, Lines: mirrored}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

func (s *Service) DiscardDraft(ctx context.Context, entryID snowflake.ID) error {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, _, err := s.repo.FindEntryByID(ctx, tx, shopID, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrEntryNotFound
		}
		ok, err := s.repo.DeleteDraft(ctx, tx, shopID, entryID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotDraft
		}
		return nil
	})
}

func (s *Service) GetEntry(ctx context.Context, entryID snowflake.ID) (*domain.EntryWithLines, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	entry, lines, err := s.repo.FindEntryByID(ctx, s.db, shopID, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}
	return &domain.EntryWithLines{Entry: *entry, Lines: lines}, nil
}

func (s *Service) ListEntries(ctx context.Context, filter domain.ListFilter) ([]domain.JournalEntry, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, s.db, shopID, filter)
}

// applyLines moves each line's amount onto its account balance, signed by
// the account's normal balance.
func (s *Service) applyLines(ctx context.Context, tx *gorm.DB, shopID snowflake.ID, lines []domain.JournalLine, requireActive bool) error {
	for _, line := range lines {
		account, err := s.accountRepo.FindByID(ctx, tx, shopID, line.AccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrAccountNotFound
		}
		if requireActive && !account.IsActive {
			return domain.ErrInactiveAccount
		}

		delta := accountdomain.SignedDelta(account.NormalBalance, line.Debit, line.Credit)
		applied, err := s.accountRepo.ApplyBalanceDelta(ctx, tx, account.ID, delta, requireActive)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrInactiveAccount
		}
	}
	return nil
}

func (s *Service) buildLines(entryID snowflake.ID, inputs []domain.LineInput, at time.Time) []domain.JournalLine {
	lines := make([]domain.JournalLine, 0, len(inputs))
	for i, input := range inputs {
		lines = append(lines, domain.JournalLine{
			ID:         s.genID.Generate(),
			EntryID:    entryID,
			LineNumber: i + 1,
			AccountID:  input.AccountID,
			Debit:      input.Debit,
			Credit:     input.Credit,
			Memo:       strings.TrimSpace(input.Memo),
			CreatedAt:  at,
		})
	}
	return lines
}

func (s *Service) recordAudit(ctx context.Context, tx *gorm.DB, shopID snowflake.ID, action, actor string, entry *domain.JournalEntry) error {
	actorType := auditdomain.ActorTypeUser
	if ctxType, _ := shopcontext.ActorFromContext(ctx); ctxType == string(auditdomain.ActorTypeSystem) {
		actorType = auditdomain.ActorTypeSystem
	}
	return s.auditSvc.RecordTx(ctx, tx, auditdomain.Record{
		ShopID:     shopID,
		ActorType:  actorType,
		ActorID:    actor,
		Action:     action,
		TargetType: "journal_entry",
		TargetID:   entry.ID.String(),
		Metadata: map[string]any{
			"reference": entry.Reference,
			"status":    string(entry.Status),
		},
	})
}

func (s *Service) shopIDFromContext(ctx context.Context) (snowflake.ID, error) {
	if shopID, ok := shopcontext.ShopIDFromContext(ctx); ok {
		return shopID, nil
	}
	return 0, domain.ErrInvalidShop
}
