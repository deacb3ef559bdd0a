package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Response, error)
	RateForDate(ctx context.Context, id string, date string) (*RateOnDate, error)
}

type CreateRequest struct {
	CategoryID string           `json:"categoryId"`
	Name       string           `json:"name"`
	Rate       *decimal.Decimal `json:"rate"`
	Unit       string           `json:"unit"`
	Notes      *string          `json:"notes"`
}

// UpdateRequest changes only the fields that are present. A non-empty
// CategoryID must name the category that owns the item.
type UpdateRequest struct {
	ID         string           `json:"-"`
	CategoryID string           `json:"categoryId"`
	Name       *string          `json:"name"`
	Rate       *decimal.Decimal `json:"rate"`
	Unit       *string          `json:"unit"`
	Notes      *string          `json:"notes"`
}

type Response struct {
	ID          string              `json:"id"`
	CategoryID  string              `json:"categoryId"`
	Name        string              `json:"name"`
	Rate        decimal.Decimal     `json:"rate"`
	Unit        string              `json:"unit"`
	Notes       *string             `json:"notes,omitempty"`
	RateHistory []ratehistory.Entry `json:"rateHistory"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type RateOnDate struct {
	ItemID string                   `json:"itemId"`
	Date   ratehistory.CalendarDate `json:"date"`
	Rate   decimal.Decimal          `json:"rate"`
	Unit   string                   `json:"unit"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidRate     = errors.New("invalid_rate")
	ErrInvalidUnit     = errors.New("invalid_unit")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrNotFound        = errors.New("not_found")
)

func NewResponse(item *RateItem) Response {
	history := []ratehistory.Entry(item.History)
	if history == nil {
		history = []ratehistory.Entry{}
	}
	return Response{
		ID:          snowflake.ID(item.ID).String(),
		CategoryID:  snowflake.ID(item.CategoryID).String(),
		Name:        item.Name,
		Rate:        item.Rate,
		Unit:        item.Unit,
		Notes:       item.Notes,
		RateHistory: history,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
