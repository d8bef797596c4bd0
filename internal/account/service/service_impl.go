package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/account/domain"
	"github.com/shopbooks/shopbooks/internal/seed"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Account, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !domain.ValidAccountType(req.Type) {
		return nil, domain.ErrInvalidType
	}
	if !domain.ValidNormalBalance(req.NormalBalance) {
		return nil, domain.ErrInvalidNormalBalance
	}

	if existing, err := s.repo.FindByCode(ctx, s.db, shopID, code); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicateCode
	}

	if req.ParentID != nil {
		if err := s.validateParentChain(ctx, shopID, *req.ParentID, 0); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:            s.genID.Generate(),
		ShopID:        shopID,
		Code:          code,
		Name:          name,
		Type:          req.Type,
		ParentID:      req.ParentID,
		NormalBalance: req.NormalBalance,
		Balance:       decimal.Zero,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, account); err != nil {
		// The unique index is the real guard; map a lost race back to the
		// same rejection the pre-check produces.
		if existing, findErr := s.repo.FindByCode(ctx, s.db, shopID, code); findErr == nil && existing != nil {
			return nil, domain.ErrDuplicateCode
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) Reparent(ctx context.Context, id snowflake.ID, parentID *snowflake.ID) (*domain.Account, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}

	if parentID != nil {
		if *parentID == id {
			return nil, domain.ErrCyclicParent
		}
		if err := s.validateParentChain(ctx, shopID, *parentID, id); err != nil {
			return nil, err
		}
	}

	account.ParentID = parentID
	account.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return err
	}

	account, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNotFound
	}

	children, err := s.repo.CountActiveChildren(ctx, s.db, shopID, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return domain.ErrHasActiveChildren
	}

	if !account.IsActive {
		return nil
	}
	account.IsActive = false
	account.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, account)
}

func (s *Service) Activate(ctx context.Context, id snowflake.ID) error {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return err
	}

	account, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNotFound
	}
	if account.IsActive {
		return nil
	}

	if account.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, s.db, shopID, *account.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrParentNotFound
		}
		if !parent.IsActive {
			return domain.ErrParentInactive
		}
	}

	account.IsActive = true
	account.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, account)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Account, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, shopID, filter)
}

func (s *Service) GetBalance(ctx context.Context, id snowflake.ID, asOf *time.Time) (decimal.Decimal, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	account, err := s.repo.FindByID(ctx, s.db, shopID, id)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, domain.ErrNotFound
	}

	if asOf == nil {
		return account.Balance, nil
	}
	return s.repo.SumPostedLines(ctx, s.db, shopID, id, account.NormalBalance, *asOf)
}

func (s *Service) SeedDefaultChart(ctx context.Context) ([]domain.Account, error) {
	shopID, err := s.shopIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	created, err := seed.EnsureDefaultChart(ctx, s.db, s.genID, shopID)
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		s.log.Info("seeded starter chart",
			zap.String("shop_id", shopID.String()),
			zap.Int("accounts", len(created)),
		)
	}
	return created, nil
}

// validateParentChain checks that the proposed parent exists, is active, and
// that walking its ancestors never reaches forbiddenID. The visited set also
// stops the walk on pre-existing corrupt cycles.
func (s *Service) validateParentChain(ctx context.Context, shopID, parentID, forbiddenID snowflake.ID) error {
	visited := map[snowflake.ID]bool{}
	current := parentID
	first := true
	for current != 0 {
		if current == forbiddenID || visited[current] {
			return domain.ErrCyclicParent
		}
		visited[current] = true

		node, err := s.repo.FindByID(ctx, s.db, shopID, current)
		if err != nil {
			return err
		}
		if node == nil {
			if first {
				return domain.ErrParentNotFound
			}
			return nil
		}
		if first && !node.IsActive {
			return domain.ErrParentInactive
		}
		first = false

		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
	return nil
}

func (s *Service) shopIDFromContext(ctx context.Context) (snowflake.ID, error) {
	if shopID, ok := shopcontext.ShopIDFromContext(ctx); ok {
		return shopID, nil
	}
	return 0, domain.ErrInvalidShop
}
