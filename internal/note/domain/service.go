package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	ListActive(ctx context.Context) ([]Response, error)
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type CreateRequest struct {
	Content  string `json:"content"`
	IsActive *bool  `json:"isActive"`
}

type UpdateRequest struct {
	ID       string  `json:"-"`
	Content  *string `json:"content"`
	IsActive *bool   `json:"isActive"`
}

type Response struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidContent = errors.New("invalid_content")
	ErrNotFound       = errors.New("not_found")
)
