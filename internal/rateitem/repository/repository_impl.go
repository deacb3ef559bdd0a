package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const itemColumns = `id, category_id, name, rate, unit, notes, rate_history, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, item *domain.RateItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rate_items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.CategoryID,
		item.Name,
		item.Rate,
		item.Unit,
		item.Notes,
		item.History,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.RateItem, error) {
	var item domain.RateItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM rate_items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// FindByIDForUpdate locks the row for the rest of the transaction. SQLite
// has no row locks and serializes writers instead.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*domain.RateItem, error) {
	stmt := db.WithContext(ctx).Model(&domain.RateItem{})
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var items []domain.RateItem
	err := stmt.Where("id = ?", id).Limit(1).Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) ListByCategory(ctx context.Context, db *gorm.DB, categoryID int64) ([]domain.RateItem, error) {
	var items []domain.RateItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM rate_items WHERE category_id = ? ORDER BY name ASC, id ASC`,
		categoryID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByCategories(ctx context.Context, db *gorm.DB, categoryIDs []int64) ([]domain.RateItem, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var items []domain.RateItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM rate_items WHERE category_id IN ? ORDER BY name ASC, id ASC`,
		categoryIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.RateItem) error {
	if item == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE rate_items
		 SET name = ?, rate = ?, unit = ?, notes = ?, rate_history = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name,
		item.Rate,
		item.Unit,
		item.Notes,
		item.History,
		item.UpdatedAt,
		item.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM rate_items WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) DeleteByCategory(ctx context.Context, db *gorm.DB, categoryID int64) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM rate_items WHERE category_id = ?`, categoryID)
	return res.RowsAffected, res.Error
}

func (r *repo) CategoryExists(ctx context.Context, db *gorm.DB, categoryID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM categories WHERE id = ?`,
		categoryID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) TouchCategory(ctx context.Context, db *gorm.DB, categoryID int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE categories SET updated_at = ? WHERE id = ?`,
		at,
		categoryID,
	).Error
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM rate_items`).Scan(&count).Error
	return count, err
}
