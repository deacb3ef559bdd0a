package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scraprates/pkg/db/pagination"
)

// Actions written by the HTTP layer.
const (
	ActionCategoryCreate  = "category.create"
	ActionCategoryUpdate  = "category.update"
	ActionCategoryDelete  = "category.delete"
	ActionItemCreate      = "rate_item.create"
	ActionItemUpdate      = "rate_item.update"
	ActionItemDelete      = "rate_item.delete"
	ActionCodesGenerate   = "activation_code.generate"
	ActionCodesPurge      = "activation_code.purge_unused"
	ActionCodeConsume     = "activation_code.consume"
	ActionCodeConsumeFail = "activation_code.consume_failed"
	ActionNoteCreate      = "note.create"
	ActionNoteUpdate      = "note.update"
	ActionNoteDelete      = "note.delete"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
)
