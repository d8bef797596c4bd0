package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/allocation/domain"
	auditdomain "github.com/shopbooks/shopbooks/internal/audit/domain"
	"github.com/shopbooks/shopbooks/internal/cache"
	costcenterdomain "github.com/shopbooks/shopbooks/internal/costcenter/domain"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	JournalRepo journaldomain.Repository
	CostCenters costcenterdomain.Registry
	AuditSvc    auditdomain.Service
}

// costCenterTTL bounds staleness of cached cost-center lookups.
const costCenterTTL = 5 * time.Minute

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	journalRepo journaldomain.Repository
	costCenters costcenterdomain.Registry
	ccCache     cache.Cache[snowflake.ID, *costcenterdomain.CostCenter]
	auditSvc    auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("allocation.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		journalRepo: p.JournalRepo,
		costCenters: p.CostCenters,
		ccCache:     cache.NewTTLCache[snowflake.ID, *costcenterdomain.CostCenter](),
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Allocate(ctx context.Context, journalLineID snowflake.ID, splits []domain.SplitInput) ([]domain.CostCenterAllocation, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return nil, domain.ErrEmptySplits
	}

	line, entry, err := s.journalRepo.FindLineByID(ctx, s.db, journalLineID)
	if err != nil {
		return nil, err
	}
	if line == nil || entry.ShopID != shopID {
		return nil, domain.ErrLineNotFound
	}
	if entry.Status != journaldomain.EntryStatusPosted {
		return nil, domain.ErrLineNotPosted
	}
	lineAmount := line.Amount()

	existing, err := s.repo.ListByLine(ctx, s.db, shopID, journalLineID)
	if err != nil {
		return nil, err
	}
	allocated := decimal.Zero
	for _, a := range existing {
		allocated = allocated.Add(a.Amount)
	}

	now := time.Now().UTC()
	allocations := make([]domain.CostCenterAllocation, 0, len(splits))
	for _, split := range splits {
		amount, err := resolveSplit(split, lineAmount)
		if err != nil {
			return nil, err
		}

		cc, err := s.costCenter(ctx, shopID, split.CostCenterID)
		if err != nil {
			return nil, err
		}
		if cc == nil {
			return nil, domain.ErrCostCenterNotFound
		}

		allocated = allocated.Add(amount)
		allocations = append(allocations, domain.CostCenterAllocation{
			ID:            s.genID.Generate(),
			ShopID:        shopID,
			JournalLineID: journalLineID,
			CostCenterID:  split.CostCenterID,
			Amount:        amount,
			Percentage:    split.Percentage,
			CreatedAt:     now,
		})
	}

	if allocated.GreaterThan(lineAmount) {
		return nil, domain.ErrOverAllocated
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, allocations); err != nil {
			return err
		}
		actorType, actorID := actorFrom(ctx)
		return s.auditSvc.RecordTx(ctx, tx, auditdomain.Record{
			ShopID:     shopID,
			ActorType:  actorType,
			ActorID:    actorID,
			Action:     auditdomain.ActionLineAllocated,
			TargetType: "journal_line",
			TargetID:   journalLineID.String(),
			Metadata: map[string]any{
				"splits":      len(allocations),
				"allocated":   allocated.String(),
				"line_amount": lineAmount.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (s *Service) ListForLine(ctx context.Context, journalLineID snowflake.ID) (*domain.LineAllocations, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	line, entry, err := s.journalRepo.FindLineByID(ctx, s.db, journalLineID)
	if err != nil {
		return nil, err
	}
	if line == nil || entry.ShopID != shopID {
		return nil, domain.ErrLineNotFound
	}
	lineAmount := line.Amount()

	allocations, err := s.repo.ListByLine(ctx, s.db, shopID, journalLineID)
	if err != nil {
		return nil, err
	}

	allocated := decimal.Zero
	for _, a := range allocations {
		allocated = allocated.Add(a.Amount)
	}
	return &domain.LineAllocations{
		LineAmount:  lineAmount,
		Allocated:   allocated,
		Unallocated: lineAmount.Sub(allocated),
		Allocations: allocations,
	}, nil
}

// costCenter resolves a cost center through a short-lived cache. Cost
// centers are created once and read on every split, so a small TTL saves
// a lookup per split without risking meaningful staleness.
func (s *Service) costCenter(ctx context.Context, shopID, id snowflake.ID) (*costcenterdomain.CostCenter, error) {
	if cc, ok := s.ccCache.Get(id); ok && cc.ShopID == shopID {
		return cc, nil
	}
	cc, err := s.costCenters.FindByID(ctx, s.db, shopID, id)
	if err != nil || cc == nil {
		return cc, err
	}
	s.ccCache.Set(id, cc, costCenterTTL)
	return cc, nil
}

// resolveSplit turns a split into a concrete amount. Percentages resolve
// against the line amount rounded to 2 places.
func resolveSplit(split domain.SplitInput, lineAmount decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case split.Amount != nil && split.Percentage != nil:
		return decimal.Zero, domain.ErrAmbiguousSplit
	case split.Amount != nil:
		if !split.Amount.IsPositive() {
			return decimal.Zero, domain.ErrNegativeSplit
		}
		return *split.Amount, nil
	case split.Percentage != nil:
		if !split.Percentage.IsPositive() {
			return decimal.Zero, domain.ErrNegativeSplit
		}
		return lineAmount.Mul(*split.Percentage).Div(decimal.NewFromInt(100)).Round(2), nil
	default:
		return decimal.Zero, domain.ErrUnderspecifiedSplit
	}
}

func actorFrom(ctx context.Context) (auditdomain.ActorType, string) {
	actorType, actorID := shopcontext.ActorFromContext(ctx)
	if actorType == string(auditdomain.ActorTypeSystem) {
		return auditdomain.ActorTypeSystem, actorID
	}
	if actorID == "" {
		actorID = "unknown"
	}
	return auditdomain.ActorTypeUser, actorID
}

func (s *Service) shopIDFromContext(ctx context.Context) (snowflake.ID, error) {
	if shopID, ok := shopcontext.ShopIDFromContext(ctx); ok {
		return shopID, nil
	}
	return 0, domain.ErrInvalidShop
}
