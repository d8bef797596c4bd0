package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/recurring/domain"
)

type recurringRepository struct{}

func Provide() domain.Repository {
	return &recurringRepository{}
}

func (r *recurringRepository) InsertTemplate(ctx context.Context, db *gorm.DB, tmpl *domain.RecurringTransaction, lines []domain.RecurringTransactionLine) error {
	if err := db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&lines).Error
}

func (r *recurringRepository) UpdateTemplate(ctx context.Context, db *gorm.DB, tmpl *domain.RecurringTransaction) error {
	return db.WithContext(ctx).Save(tmpl).Error
}

func (r *recurringRepository) FindByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*domain.RecurringTransaction, []domain.RecurringTransactionLine, error) {
	var tmpl domain.RecurringTransaction
	err := db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	lines, err := r.FindLines(ctx, db, id)
	if err != nil {
		return nil, nil, err
	}
	return &tmpl, lines, nil
}

func (r *recurringRepository) ListActive(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]domain.RecurringTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var templates []domain.RecurringTransaction
	err := db.WithContext(ctx).
		Where("is_active = ? AND id > ?", true, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *recurringRepository) FindLines(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]domain.RecurringTransactionLine, error) {
	var lines []domain.RecurringTransactionLine
	err := db.WithContext(ctx).
		Where("recurring_transaction_id = ?", templateID).
		Order("line_number ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *recurringRepository) InsertExecution(ctx context.Context, db *gorm.DB, exec *domain.RecurringExecution) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO recurring_executions
		 (id, recurring_transaction_id, execution_date, status, journal_entry_id, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (recurring_transaction_id, execution_date) DO NOTHING`,
		exec.ID,
		exec.RecurringTransactionID,
		exec.ExecutionDate,
		exec.Status,
		exec.JournalEntryID,
		exec.Notes,
		exec.CreatedAt,
		exec.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *recurringRepository) UpdateExecution(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.ExecutionStatus, entryID *snowflake.ID, notes string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE recurring_executions
		 SET status = ?, journal_entry_id = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		entryID,
		notes,
		at,
		id,
	).Error
}

func (r *recurringRepository) ListExecutions(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]domain.RecurringExecution, error) {
	var executions []domain.RecurringExecution
	err := db.WithContext(ctx).
		Where("recurring_transaction_id = ?", templateID).
		Order("execution_date ASC").
		Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}
