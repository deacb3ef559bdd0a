package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/scraprates/internal/activation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, codes []domain.ActivationCode) error {
	if len(codes) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(codes, 100).Error
}

func (r *repo) ExistingCodes(ctx context.Context, db *gorm.DB, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var existing []string
	err := db.WithContext(ctx).
		Model(&domain.ActivationCode{}).
		Where("code IN ?", codes).
		Pluck("code", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.ActivationCode, error) {
	var c domain.ActivationCode
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, is_used, used_at, used_by, transaction_id, created_at
		 FROM activation_codes WHERE code = ?`,
		code,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) MarkUsed(ctx context.Context, db *gorm.DB, code, usedBy, transactionID string, usedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE activation_codes
		 SET is_used = ?, used_by = ?, used_at = ?, transaction_id = ?
		 WHERE code = ? AND is_used = ?`,
		true,
		usedBy,
		usedAt,
		transactionID,
		code,
		false,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.ActivationCode, error) {
	var codes []domain.ActivationCode
	stmt := db.WithContext(ctx).Model(&domain.ActivationCode{})

	switch filter.Status {
	case domain.StatusUsed:
		stmt = stmt.Where("is_used = ?", true)
	case domain.StatusUnused:
		stmt = stmt.Where("is_used = ?", false)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repo) DeleteUnused(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM activation_codes WHERE is_used = ?`, false)
	return res.RowsAffected, res.Error
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, used bool) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM activation_codes WHERE is_used = ?`,
		used,
	).Scan(&count).Error
	return count, err
}
