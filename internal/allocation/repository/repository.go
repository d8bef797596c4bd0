package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/allocation/domain"
)

type allocationRepository struct{}

func Provide() domain.Repository {
	return &allocationRepository{}
}

func (r *allocationRepository) Insert(ctx context.Context, db *gorm.DB, allocations []domain.CostCenterAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&allocations).Error
}

func (r *allocationRepository) ListByLine(ctx context.Context, db *gorm.DB, shopID, journalLineID snowflake.ID) ([]domain.CostCenterAllocation, error) {
	var allocations []domain.CostCenterAllocation
	err := db.WithContext(ctx).
		Where("shop_id = ? AND journal_line_id = ?", shopID, journalLineID).
		Order("created_at ASC, id ASC").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}
