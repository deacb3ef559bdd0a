package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	activationdomain "github.com/smallbiznis/scraprates/internal/activation/domain"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/config"
	notedomain "github.com/smallbiznis/scraprates/internal/note/domain"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"github.com/smallbiznis/scraprates/pkg/db/pagination"
)

// ActivateResult is the server's answer to a successful activation.
type ActivateResult struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CodePage struct {
	Codes    []activationdomain.Response
	PageInfo pagination.PageInfo
}

func (c *Client) ListCategories(ctx context.Context) ([]categorydomain.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/categories", nil, false, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]categorydomain.Response](resp)
}

func (c *Client) GetCategory(ctx context.Context, id string) (*categorydomain.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil, false, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeData[categorydomain.Response](resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RateOnDate asks the server for an item's rate on a DD-MM-YYYY day.
func (c *Client) RateOnDate(ctx context.Context, itemID, date string) (*rateitemdomain.RateOnDate, error) {
	query := url.Values{}
	if date = strings.TrimSpace(date); date != "" {
		query.Set("date", date)
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(itemID)+"/rate", query, false, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeData[rateitemdomain.RateOnDate](resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentInfo(ctx context.Context) (config.PaymentInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/payment-info", nil, false, nil)
	if err != nil {
		return config.PaymentInfo{}, err
	}
	return decodeData[config.PaymentInfo](resp)
}

func (c *Client) ListNotes(ctx context.Context) ([]notedomain.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/notes", nil, false, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]notedomain.Response](resp)
}

// Activate redeems a code. Rejections come back as *APIError with Code set
// to code_not_found, code_already_used, invalid_request or rate_limited.
func (c *Client) Activate(ctx context.Context, req activationdomain.ConsumeRequest) (*ActivateResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/activate", nil, false, req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Success   bool      `json:"success"`
		Message   string    `json:"message"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("apiclient: decode activation: %w", err)
	}
	if !out.Success {
		return nil, &APIError{Status: resp.status, Message: out.Message}
	}
	return &ActivateResult{Message: out.Message, ExpiresAt: out.ExpiresAt}, nil
}

func (c *Client) GenerateCodes(ctx context.Context, count int) ([]activationdomain.Response, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/admin/activation-codes", nil, true, map[string]int{"count": count})
	if err != nil {
		return nil, err
	}
	return decodeData[[]activationdomain.Response](resp)
}

// ListCodes lists codes filtered by status: all, used or unused.
func (c *Client) ListCodes(ctx context.Context, status, pageToken string, pageSize int) (CodePage, error) {
	query := url.Values{}
	if status = strings.TrimSpace(status); status != "" {
		query.Set("status", status)
	}
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}
	if pageSize > 0 {
		query.Set("page_size", fmt.Sprint(pageSize))
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/admin/activation-codes", query, true, nil)
	if err != nil {
		return CodePage{}, err
	}
	var out struct {
		Data     []activationdomain.Response `json:"data"`
		PageInfo pagination.PageInfo         `json:"page_info"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return CodePage{}, fmt.Errorf("apiclient: decode codes: %w", err)
	}
	return CodePage{Codes: out.Data, PageInfo: out.PageInfo}, nil
}

func (c *Client) PurgeUnusedCodes(ctx context.Context) (int64, error) {
	resp, err := c.do(ctx, http.MethodDelete, "/api/admin/activation-codes/unused", nil, true, nil)
	if err != nil {
		return 0, err
	}
	out, err := decodeData[struct {
		Deleted int64 `json:"deleted"`
	}](resp)
	if err != nil {
		return 0, err
	}
	return out.Deleted, nil
}
