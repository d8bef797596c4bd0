package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/account/domain"
)

type accountRepository struct{}

func Provide() domain.Repository {
	return &accountRepository{}
}

func (r *accountRepository) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Create(account).Error
}

// Update persists the mutable metadata columns only. The balance column is
// derived and written solely through ApplyBalanceDelta; a full-row save here
// could write back a stale balance over a concurrently posted delta.
func (r *accountRepository) Update(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"name":       account.Name,
			"parent_id":  account.ParentID,
			"is_active":  account.IsActive,
			"updated_at": account.UpdatedAt,
		}).Error
}

func (r *accountRepository) FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByCode(ctx context.Context, db *gorm.DB, shopID snowflake.ID, code string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Where("shop_id = ? AND code = ?", shopID, code).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context, db *gorm.DB, shopID snowflake.ID, filter domain.ListFilter) ([]domain.Account, error) {
	query := db.WithContext(ctx).Where("shop_id = ?", shopID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var accounts []domain.Account
	if err := query.Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) CountActiveChildren(ctx context.Context, db *gorm.DB, shopID, parentID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Account{}).
		Where("shop_id = ? AND parent_id = ? AND is_active = ?", shopID, parentID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *accountRepository) ApplyBalanceDelta(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal, requireActive bool) (bool, error) {
	query := `UPDATE accounts SET balance = balance + ?, updated_at = ? WHERE id = ?`
	args := []any{delta, time.Now().UTC(), id}
	if requireActive {
		query += ` AND is_active = ?`
		args = append(args, true)
	}

	result := db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *accountRepository) SumPostedLines(ctx context.Context, db *gorm.DB, shopID, accountID snowflake.ID, normal domain.NormalBalance, asOf time.Time) (decimal.Decimal, error) {
	var rows []struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	// A voided entry still counts: its movement was applied and is undone by
	// its own posted reversal entry. Only drafts never touched the balance.
	err := db.WithContext(ctx).Raw(
		`SELECT jl.debit AS debit, jl.credit AS credit
		 FROM journal_lines jl
		 JOIN journal_entries je ON je.id = jl.entry_id
		 WHERE je.shop_id = ? AND jl.account_id = ? AND je.status IN ('posted', 'void') AND je.entry_date <= ?`,
		shopID,
		accountID,
		asOf,
	).Scan(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	// Summed in Go so the result stays exact regardless of the storage
	// engine's numeric coercion rules.
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(domain.SignedDelta(normal, row.Debit, row.Credit))
	}
	return total, nil
}
