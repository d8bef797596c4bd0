package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/costcenter/domain"
)

type costCenterRepository struct{}

func Provide() domain.Registry {
	return &costCenterRepository{}
}

func (r *costCenterRepository) Create(ctx context.Context, db *gorm.DB, cc *domain.CostCenter) error {
	cc.Code = strings.TrimSpace(cc.Code)
	cc.Name = strings.TrimSpace(cc.Name)
	if cc.Code == "" {
		return domain.ErrInvalidCode
	}
	if cc.Name == "" {
		return domain.ErrInvalidName
	}
	if err := db.WithContext(ctx).Create(cc).Error; err != nil {
		var existing domain.CostCenter
		lookupErr := db.WithContext(ctx).
			Where("shop_id = ? AND code = ?", cc.ShopID, cc.Code).
			First(&existing).Error
		if lookupErr == nil {
			return domain.ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *costCenterRepository) FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*domain.CostCenter, error) {
	var cc domain.CostCenter
	err := db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&cc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cc, nil
}

func (r *costCenterRepository) List(ctx context.Context, db *gorm.DB, shopID snowflake.ID) ([]domain.CostCenter, error) {
	var centers []domain.CostCenter
	err := db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("code ASC").
		Find(&centers).Error
	if err != nil {
		return nil, err
	}
	return centers, nil
}
