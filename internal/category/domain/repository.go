package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, category *Category) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Category, error)
	List(ctx context.Context, db *gorm.DB) ([]Category, error)
	Update(ctx context.Context, db *gorm.DB, category *Category) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
	MinSortOrder(ctx context.Context, db *gorm.DB) (int, bool, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
