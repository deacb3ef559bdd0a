package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, codes []ActivationCode) error
	ExistingCodes(ctx context.Context, db *gorm.DB, codes []string) ([]string, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*ActivationCode, error)
	// MarkUsed flips a code from unused to used and returns the number of
	// rows changed. Zero means the code is missing or already used.
	MarkUsed(ctx context.Context, db *gorm.DB, code, usedBy, transactionID string, usedAt time.Time) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]ActivationCode, error)
	DeleteUnused(ctx context.Context, db *gorm.DB) (int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB, used bool) (int64, error)
}
