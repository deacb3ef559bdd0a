package domain

import (
	"context"
	"errors"
	"time"

	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Color     *string `json:"color"`
	SortOrder *int    `json:"sortOrder"`
}

type UpdateRequest struct {
	ID        string  `json:"-"`
	Name      *string `json:"name"`
	Icon      *string `json:"icon"`
	Color     *string `json:"color"`
	SortOrder *int    `json:"sortOrder"`
}

type Response struct {
	ID        string                    `json:"id"`
	Name      string                    `json:"name"`
	Icon      string                    `json:"icon"`
	Color     string                    `json:"color"`
	SortOrder int                       `json:"sortOrder"`
	Items     []rateitemdomain.Response `json:"items"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidIcon  = errors.New("invalid_icon")
	ErrInvalidColor = errors.New("invalid_color")
	ErrNotFound     = errors.New("not_found")
)
