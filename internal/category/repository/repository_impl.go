package repository

import (
	"context"
	"database/sql"

	"github.com/smallbiznis/scraprates/internal/category/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO categories (id, name, icon, color, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Icon,
		category.Color,
		category.SortOrder,
		category.CreatedAt,
		category.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, icon, color, sort_order, created_at, updated_at
		 FROM categories WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var items []domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, icon, color, sort_order, created_at, updated_at
		 FROM categories ORDER BY sort_order ASC, created_at DESC, id DESC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Update reports false when no row matched the category id.
func (r *repo) Update(ctx context.Context, db *gorm.DB, category *domain.Category) (bool, error) {
	if category == nil {
		return false, gorm.ErrInvalidData
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE categories
		 SET name = ?, icon = ?, color = ?, sort_order = ?, updated_at = ?
		 WHERE id = ?`,
		category.Name,
		category.Icon,
		category.Color,
		category.SortOrder,
		category.UpdatedAt,
		category.ID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM categories WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MinSortOrder reports false when the table is empty.
func (r *repo) MinSortOrder(ctx context.Context, db *gorm.DB) (int, bool, error) {
	var lowest sql.NullInt64
	err := db.WithContext(ctx).Raw(`SELECT MIN(sort_order) FROM categories`).Scan(&lowest).Error
	if err != nil {
		return 0, false, err
	}
	return int(lowest.Int64), lowest.Valid, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM categories`).Scan(&count).Error
	return count, err
}
