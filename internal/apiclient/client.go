// Package apiclient is a typed client for the scrap rates HTTP API. Every
// call runs through a circuit breaker so a failing server is not hammered
// by retries from the field.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/scraprates/internal/observability/tracing"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrCircuitOpen = errors.New("apiclient: server unavailable, circuit open")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	code := e.Code
	if code == "" {
		code = e.Type
	}
	if e.Message != "" {
		return fmt.Sprintf("apiclient: %d %s: %s", e.Status, code, e.Message)
	}
	return fmt.Sprintf("apiclient: %d %s", e.Status, code)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// AdminSecret is sent as a bearer token on admin calls.
	AdminSecret string
	Timeout     time.Duration

	// FailureThreshold consecutive failures open the breaker for
	// OpenTimeout before a trial request is let through.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTPClient       *http.Client
}

func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:8080",
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

type Client struct {
	base    *url.URL
	secret  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	log     *zap.Logger
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	log = log.Named("apiclient")
	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        base.Host,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state changed",
				zap.String("server", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// client errors say nothing about server health
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
		},
	})

	return &Client{
		base:    base,
		secret:  strings.TrimSpace(cfg.AdminSecret),
		http:    tracing.WrapHTTPClient(httpClient),
		breaker: breaker,
		log:     log,
	}, nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (c *Client) State() string {
	return c.breaker.State().String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, admin bool, in any) (*response, error) {
	var payload []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode request: %w", err)
		}
		payload = raw
	}

	target := *c.base
	target.Path = c.base.Path + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if admin && c.secret != "" {
			req.Header.Set("Authorization", "Bearer "+c.secret)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
		if err != nil {
			return nil, err
		}
		out := &response{status: res.StatusCode, body: body, header: res.Header}
		if res.StatusCode >= http.StatusBadRequest {
			return out, decodeError(out)
		}
		return out, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		}
		return resp, err
	}
	return resp, nil
}

// decodeError understands both the error envelope and the activation
// contract.
func decodeError(resp *response) error {
	apiErr := &APIError{Status: resp.status}

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Errors  []struct {
				Code string `json:"code"`
			} `json:"errors"`
		} `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		apiErr.Message = http.StatusText(resp.status)
		return apiErr
	}

	apiErr.Type = envelope.Error.Type
	apiErr.Message = envelope.Error.Message
	if len(envelope.Error.Errors) > 0 {
		apiErr.Code = envelope.Error.Errors[0].Code
	}
	if envelope.Code != "" {
		apiErr.Code = envelope.Code
	}
	if envelope.Message != "" {
		apiErr.Message = envelope.Message
	}
	return apiErr
}

func decodeData[T any](resp *response) (T, error) {
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		var zero T
		return zero, fmt.Errorf("apiclient: decode response: %w", err)
	}
	return envelope.Data, nil
}
