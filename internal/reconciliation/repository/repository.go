package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/reconciliation/domain"
)

type reconciliationRepository struct{}

func Provide() domain.Repository {
	return &reconciliationRepository{}
}

func (r *reconciliationRepository) Insert(ctx context.Context, db *gorm.DB, rec *domain.Reconciliation) error {
	return db.WithContext(ctx).Create(rec).Error
}

func (r *reconciliationRepository) Update(ctx context.Context, db *gorm.DB, rec *domain.Reconciliation) error {
	return db.WithContext(ctx).Save(rec).Error
}

func (r *reconciliationRepository) LineClaimed(ctx context.Context, db *gorm.DB, journalLineID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Reconciliation{}).
		Where("journal_line_id = ?", journalLineID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reconciliationRepository) FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*domain.Reconciliation, error) {
	var rec domain.Reconciliation
	err := db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *reconciliationRepository) List(ctx context.Context, db *gorm.DB, shopID snowflake.ID, filter domain.ListFilter) ([]domain.Reconciliation, error) {
	query := db.WithContext(ctx).Model(&domain.Reconciliation{}).Where("shop_id = ?", shopID)
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var recs []domain.Reconciliation
	if err := query.Order("statement_date DESC, id DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *reconciliationRepository) CandidateLines(ctx context.Context, db *gorm.DB, shopID, accountID snowflake.ID, from, to time.Time) ([]domain.MatchCandidate, error) {
	rows, err := db.WithContext(ctx).Raw(
		`SELECT jl.id, jl.entry_id, jl.account_id, je.entry_date, je.reference, jl.memo, jl.debit, jl.credit
		 FROM journal_lines jl
		 JOIN journal_entries je ON je.id = jl.entry_id
		 WHERE je.shop_id = ?
		   AND jl.account_id = ?
		   AND je.status = ?
		   AND je.entry_date >= ?
		   AND je.entry_date <= ?
		   AND NOT EXISTS (
		       SELECT 1 FROM reconciliations rc WHERE rc.journal_line_id = jl.id
		   )
		 ORDER BY je.entry_date ASC, jl.id ASC`,
		shopID, accountID, "posted", from, to,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.MatchCandidate
	for rows.Next() {
		var c domain.MatchCandidate
		if err := rows.Scan(&c.LineID, &c.EntryID, &c.AccountID, &c.EntryDate, &c.Reference, &c.Memo, &c.Debit, &c.Credit); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
