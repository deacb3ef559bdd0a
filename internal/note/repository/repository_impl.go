package repository

import (
	"context"

	"github.com/smallbiznis/scraprates/internal/note/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, note *domain.ImportantNote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO important_notes (id, content, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		note.ID,
		note.Content,
		note.IsActive,
		note.CreatedAt,
		note.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ImportantNote, error) {
	var n domain.ImportantNote
	err := db.WithContext(ctx).Raw(
		`SELECT id, content, is_active, created_at, updated_at FROM important_notes WHERE id = ?`,
		id,
	).Scan(&n).Error
	if err != nil {
		return nil, err
	}
	if n.ID == 0 {
		return nil, nil
	}
	return &n, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.ImportantNote, error) {
	var notes []domain.ImportantNote
	stmt := db.WithContext(ctx).Model(&domain.ImportantNote{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("created_at desc, id desc").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, note *domain.ImportantNote) error {
	if note == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE important_notes SET content = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		note.Content,
		note.IsActive,
		note.UpdatedAt,
		note.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM important_notes WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
