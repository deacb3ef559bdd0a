package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/scraprates/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	stmt := db.WithContext(ctx).
		Model(&domain.AuditLog{}).
		Scopes(
			actionScope(filter.Action),
			equalScope("target_type", filter.TargetType),
			equalScope("target_id", filter.TargetID),
			equalScope("actor_type", filter.ActorType),
			equalScope("actor_id", filter.ActorID),
			windowScope(filter),
			cursorScope(filter.Cursor),
		).
		Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// actionScope matches an exact action, or every action under a family when
// the value ends in ".*" (e.g. "activation_code.*").
func actionScope(action string) func(*gorm.DB) *gorm.DB {
	action = strings.TrimSpace(action)
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case action == "":
			return db
		case strings.HasSuffix(action, ".*"):
			return db.Where("action LIKE ?", strings.TrimSuffix(action, "*")+"%")
		default:
			return db.Where("action = ?", action)
		}
	}
}

func equalScope(column, value string) func(*gorm.DB) *gorm.DB {
	value = strings.TrimSpace(value)
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

func windowScope(filter domain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.StartAt != nil {
			db = db.Where("created_at >= ?", filter.StartAt.UTC())
		}
		if filter.EndAt != nil {
			db = db.Where("created_at <= ?", filter.EndAt.UTC())
		}
		return db
	}
}

func cursorScope(cursor *domain.AuditCursor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cursor == nil {
			return db
		}
		return db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
}
