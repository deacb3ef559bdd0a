package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, item *RateItem) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*RateItem, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*RateItem, error)
	ListByCategory(ctx context.Context, db *gorm.DB, categoryID int64) ([]RateItem, error)
	ListByCategories(ctx context.Context, db *gorm.DB, categoryIDs []int64) ([]RateItem, error)
	Update(ctx context.Context, db *gorm.DB, item *RateItem) error
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	DeleteByCategory(ctx context.Context, db *gorm.DB, categoryID int64) (int64, error)
	CategoryExists(ctx context.Context, db *gorm.DB, categoryID int64) (bool, error)
	TouchCategory(ctx context.Context, db *gorm.DB, categoryID int64, at time.Time) error
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
