package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/shopbooks/shopbooks/internal/journal/domain"
)

type journalRepository struct{}

func Provide() domain.Repository {
	return &journalRepository{}
}

func (r *journalRepository) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.JournalEntry, lines []domain.JournalLine) error {
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&lines).Error
}

func (r *journalRepository) FindEntryByID(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (*domain.JournalEntry, []domain.JournalLine, error) {
	var entry domain.JournalEntry
	err := db.WithContext(ctx).
		Where("shop_id = ? AND id = ?", shopID, id).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var lines []domain.JournalLine
	if err := db.WithContext(ctx).
		Where("entry_id = ?", id).
		Order("line_number ASC").
		Find(&lines).Error; err != nil {
		return nil, nil, err
	}
	return &entry, lines, nil
}

func (r *journalRepository) FindLineByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.JournalLine, *domain.JournalEntry, error) {
	var line domain.JournalLine
	err := db.WithContext(ctx).Where("id = ?", id).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var entry domain.JournalEntry
	if err := db.WithContext(ctx).Where("id = ?", line.EntryID).First(&entry).Error; err != nil {
		return nil, nil, err
	}
	return &line, &entry, nil
}

func (r *journalRepository) ListEntries(ctx context.Context, db *gorm.DB, shopID snowflake.ID, filter domain.ListFilter) ([]domain.JournalEntry, error) {
	query := db.WithContext(ctx).Model(&domain.JournalEntry{}).Where("shop_id = ?", shopID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}
	if filter.AccountID != 0 {
		query = query.Where(
			"id IN (SELECT entry_id FROM journal_lines WHERE account_id = ?)",
			filter.AccountID,
		)
	}
	if filter.From != nil {
		query = query.Where("entry_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("entry_date <= ?", *filter.To)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var entries []domain.JournalEntry
	if err := query.Order("entry_date DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *journalRepository) MarkPosted(ctx context.Context, db *gorm.DB, id snowflake.ID, postedBy string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE journal_entries
		 SET status = ?, posted_by = ?, posted_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.EntryStatusPosted,
		postedBy,
		at,
		at,
		id,
		domain.EntryStatusDraft,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *journalRepository) MarkVoid(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE journal_entries
		 SET status = ?, voided_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.EntryStatusVoid,
		at,
		at,
		id,
		domain.EntryStatusPosted,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *journalRepository) DeleteDraft(ctx context.Context, db *gorm.DB, shopID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM journal_entries WHERE shop_id = ? AND id = ? AND status = ?`,
		shopID,
		id,
		domain.EntryStatusDraft,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM journal_lines WHERE entry_id = ?`, id,
	).Error; err != nil {
		return false, err
	}
	return true, nil
}
