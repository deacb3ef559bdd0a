package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, note *ImportantNote) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ImportantNote, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]ImportantNote, error)
	Update(ctx context.Context, db *gorm.DB, note *ImportantNote) error
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}
