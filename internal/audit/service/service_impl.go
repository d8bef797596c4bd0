package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/audit/domain"
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
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, rec domain.Record) error {
	if tx == nil {
		return domain.ErrMissingHandle
	}
	action := strings.TrimSpace(rec.Action)
	if action == "" {
		return domain.ErrInvalidAction
	}
	if rec.ActorType == "" {
		return domain.ErrInvalidActor
	}
	targetType := strings.TrimSpace(rec.TargetType)
	if targetType == "" {
		return domain.ErrInvalidTarget
	}

	entry := &domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(rec.ActorType),
		Action:     action,
		TargetType: targetType,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  time.Now().UTC(),
	}
	if rec.ShopID != 0 {
		shopID := rec.ShopID
		entry.ShopID = &shopID
	}
	if actorID := strings.TrimSpace(rec.ActorID); actorID != "" {
		entry.ActorID = &actorID
	}
	if targetID := strings.TrimSpace(rec.TargetID); targetID != "" {
		entry.TargetID = &targetID
	}
	for key, value := range rec.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		entry.Metadata[key] = value
	}

	return s.repo.Insert(ctx, tx, entry)
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	if filter.ShopID == 0 {
		return nil, domain.ErrInvalidShop
	}
	return s.repo.List(ctx, s.db, filter)
}
