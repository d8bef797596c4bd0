package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/shopbooks/shopbooks/internal/audit/domain"
	"github.com/shopbooks/shopbooks/internal/events"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	"github.com/shopbooks/shopbooks/internal/recurring/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	JournalSvc journaldomain.Service
	AuditSvc   auditdomain.Service
	Outbox     *events.Outbox
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	journalSvc journaldomain.Service
	auditSvc   auditdomain.Service
	outbox     *events.Outbox
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("recurring.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		journalSvc: p.JournalSvc,
		auditSvc:   p.AuditSvc,
		outbox:     p.Outbox,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.TemplateWithLines, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !domain.ValidFrequency(req.Frequency) {
		return nil, domain.ErrInvalidFrequency
	}
	if err := validateAnchors(req); err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() {
		return nil, domain.ErrInvalidStartDate
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	totalDebit, totalCredit, err := validateTemplateLines(req.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tmpl := &domain.RecurringTransaction{
		ID:          s.genID.Generate(),
		ShopID:      shopID,
		Name:        name,
		Frequency:   req.Frequency,
		DayOfMonth:  req.DayOfMonth,
		Month:       req.Month,
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate,
		IsActive:    true,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	lines := make([]domain.RecurringTransactionLine, 0, len(req.Lines))
	for i, input := range req.Lines {
		lines = append(lines, domain.RecurringTransactionLine{
			ID:                     s.genID.Generate(),
			RecurringTransactionID: tmpl.ID,
			LineNumber:             i + 1,
			AccountID:              input.AccountID,
			Debit:                  input.Debit,
			Credit:                 input.Credit,
			CreatedAt:              now,
		})
	}

	if err := s.repo.InsertTemplate(ctx, s.db, tmpl, lines); err != nil {
		return nil, err
	}
	return &domain.TemplateWithLines{Template: *tmpl, Lines: lines}, nil
}

// Deactivate stops future due-date generation. Executions already created
// are never rewritten or cancelled.
func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return err
	}

	tmpl, _, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return domain.ErrNotFound
	}
	if !tmpl.IsActive {
		return nil
	}

	tmpl.IsActive = false
	tmpl.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateTemplate(ctx, s.db, tmpl)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.TemplateWithLines, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, lines, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.TemplateWithLines{Template: *tmpl, Lines: lines}, nil
}

func (s *Service) ListExecutions(ctx context.Context, id snowflake.ID) ([]domain.RecurringExecution, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, _, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.ListExecutions(ctx, s.db, id)
}

const defaultRunBatchSize = 100

// RunDue walks every active template and materializes each missing due date,
// paging through templates by id so no template past the first batch is ever
// skipped. A failed due date is recorded and skipped over; it never blocks
// later dates, and nothing here retries automatically.
func (s *Service) RunDue(ctx context.Context, now time.Time, batchSize int) (domain.RunReport, error) {
	var report domain.RunReport
	if batchSize <= 0 {
		batchSize = defaultRunBatchSize
	}

	var afterID snowflake.ID
	for {
		templates, err := s.repo.ListActive(ctx, s.db, afterID, batchSize)
		if err != nil {
			return report, err
		}
		report.TemplatesSeen += len(templates)

		for _, tmpl := range templates {
			lines, err := s.repo.FindLines(ctx, s.db, tmpl.ID)
			if err != nil {
				return report, err
			}

			for _, due := range domain.DueDates(tmpl, now) {
				claimed, execID, err := s.claimExecution(ctx, tmpl.ID, due)
				if err != nil {
					return report, err
				}
				if !claimed {
					report.AlreadyDone++
					continue
				}

				if err := s.materialize(ctx, tmpl, lines, execID, due); err != nil {
					report.Failed++
				} else {
					report.Executed++
				}
			}
		}

		if len(templates) < batchSize {
			return report, nil
		}
		afterID = templates[len(templates)-1].ID
	}
}

// claimExecution creates the pending row for a due date. The unique index is
// the actual concurrency guard; losing the insert means another worker owns
// this due date.
func (s *Service) claimExecution(ctx context.Context, templateID snowflake.ID, due time.Time) (bool, snowflake.ID, error) {
	now := time.Now().UTC()
	exec := &domain.RecurringExecution{
		ID:                     s.genID.Generate(),
		RecurringTransactionID: templateID,
		ExecutionDate:          due,
		Status:                 domain.ExecutionStatusPending,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	inserted, err := s.repo.InsertExecution(ctx, s.db, exec)
	if err != nil {
		return false, 0, err
	}
	return inserted, exec.ID, nil
}

func (s *Service) materialize(ctx context.Context, tmpl domain.RecurringTransaction, lines []domain.RecurringTransactionLine, execID snowflake.ID, due time.Time) error {
	shopCtx := shopcontext.WithShopID(ctx, tmpl.ShopID)
	shopCtx = shopcontext.WithActor(shopCtx, string(auditdomain.ActorTypeSystem), "scheduler")

	entry, err := s.postTemplate(shopCtx, tmpl, lines, due)
	if err != nil {
		s.log.Warn("recurring execution failed",
			zap.String("recurring_transaction_id", tmpl.ID.String()),
			zap.Time("due", due),
			zap.Error(err),
		)
		if updateErr := s.repo.UpdateExecution(ctx, s.db, execID, domain.ExecutionStatusFailed, nil, err.Error(), time.Now().UTC()); updateErr != nil {
			return updateErr
		}
		s.publishOutcome(shopCtx, tmpl, due, events.TypeRecurringFailed, nil)
		return err
	}

	entryID := entry.Entry.ID
	if err := s.repo.UpdateExecution(ctx, s.db, execID, domain.ExecutionStatusExecuted, &entryID, "", time.Now().UTC()); err != nil {
		return err
	}
	s.publishOutcome(shopCtx, tmpl, due, events.TypeRecurringExecuted, &entryID)
	return nil
}

func (s *Service) postTemplate(ctx context.Context, tmpl domain.RecurringTransaction, lines []domain.RecurringTransactionLine, due time.Time) (*journaldomain.EntryWithLines, error) {
	inputs := make([]journaldomain.LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, journaldomain.LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}

	draft, err := s.journalSvc.CreateDraft(ctx, journaldomain.CreateDraftRequest{
		Reference:   tmpl.Name,
		Date:        due,
		Description: fmt.Sprintf("%s (%s)", tmpl.Name, due.Format("2006-01-02")),
		Lines:       inputs,
	})
	if err != nil {
		return nil, err
	}
	return s.journalSvc.Post(ctx, draft.Entry.ID, "scheduler")
}

func (s *Service) publishOutcome(ctx context.Context, tmpl domain.RecurringTransaction, due time.Time, eventType string, entryID *snowflake.ID) {
	payload := map[string]any{
		"recurring_transaction_id": tmpl.ID.String(),
		"execution_date":           due.Format("2006-01-02"),
	}
	if entryID != nil {
		payload["journal_entry_id"] = entryID.String()
	}
	err := s.outbox.Publish(ctx, events.Event{
		ShopID:    tmpl.ShopID,
		Type:      eventType,
		Payload:   payload,
		DedupeKey: fmt.Sprintf("%s:%s:%s", eventType, tmpl.ID, due.Format("2006-01-02")),
	})
	if err != nil {
		s.log.Warn("failed to publish scheduler event", zap.Error(err))
	}

	action := auditdomain.ActionRecurringExecuted
	if eventType == events.TypeRecurringFailed {
		action = auditdomain.ActionRecurringFailed
	}
	err = s.auditSvc.RecordTx(ctx, s.db, auditdomain.Record{
		ShopID:     tmpl.ShopID,
		ActorType:  auditdomain.ActorTypeSystem,
		ActorID:    "scheduler",
		Action:     action,
		TargetType: "recurring_transaction",
		TargetID:   tmpl.ID.String(),
		Metadata:   payload,
	})
	if err != nil {
		s.log.Warn("failed to record scheduler audit entry", zap.Error(err))
	}
}

func validateAnchors(req domain.CreateRequest) error {
	if req.DayOfMonth < 0 || req.DayOfMonth > 31 {
		return domain.ErrInvalidAnchor
	}
	if req.Month < 0 || req.Month > 12 {
		return domain.ErrInvalidAnchor
	}
	return nil
}

func validateTemplateLines(lines []domain.LineInput) (decimal.Decimal, decimal.Decimal, error) {
	inputs := make([]journaldomain.LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, journaldomain.LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	if err := journaldomain.ValidateBalanced(inputs); err != nil {
		switch err {
		case journaldomain.ErrEmptyLines:
			return decimal.Zero, decimal.Zero, domain.ErrEmptyLines
		case journaldomain.ErrUnbalanced:
			return decimal.Zero, decimal.Zero, domain.ErrUnbalancedLines
		default:
			return decimal.Zero, decimal.Zero, err
		}
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	return totalDebit, totalCredit, nil
}

func (s *Service) shopIDFromContext(ctx context.Context) (snowflake.ID, error) {
	if shopID, ok := shopcontext.ShopIDFromContext(ctx); ok {
		return shopID, nil
	}
	return 0, domain.ErrInvalidShop
}
