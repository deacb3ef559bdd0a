package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scraprates/pkg/db/pagination"
)

type Service interface {
	Generate(ctx context.Context, count int) ([]Response, error)
	Consume(ctx context.Context, req ConsumeRequest) (*ConsumeResult, error)
	DeleteUnused(ctx context.Context) (int64, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, code string) (*Response, error)
}

type ConsumeRequest struct {
	Code          string `json:"code"`
	PhoneNumber   string `json:"phoneNumber"`
	TransactionID string `json:"transactionId"`
}

type ConsumeResult struct {
	Code        string    `json:"code"`
	ActivatedAt time.Time `json:"activatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ListRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

type ListResponse struct {
	pagination.PageInfo
	Codes []Response `json:"codes"`
}

type Response struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	IsUsed        bool       `json:"isUsed"`
	UsedAt        *time.Time `json:"usedAt,omitempty"`
	UsedBy        *string    `json:"usedBy,omitempty"`
	TransactionID *string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

var (
	ErrInvalidCount         = errors.New("invalid_count")
	ErrInvalidCode          = errors.New("invalid_code")
	ErrInvalidPhoneNumber   = errors.New("invalid_phone_number")
	ErrInvalidTransactionID = errors.New("invalid_transaction_id")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
	ErrCodeNotFound         = errors.New("code_not_found")
	ErrCodeAlreadyUsed      = errors.New("code_already_used")
	ErrGenerationExhausted  = errors.New("code_generation_exhausted")
)
