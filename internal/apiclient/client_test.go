package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	activationdomain "github.com/smallbiznis/scraprates/internal/activation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc, secret string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:          srv.URL,
		AdminSecret:      secret,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestListCategoriesDecodesEnvelope(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categories", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"Copper","icon":"flame","items":[
			{"id":"2","categoryId":"1","name":"Wire","rate":850,"unit":"kg",
			 "rateHistory":[{"date":"15-01-2025","rate":850}]}]}]}`))
	}, "")

	categories, err := client.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Copper", categories[0].Name)
	require.Len(t, categories[0].Items, 1)
	assert.Equal(t, "850", categories[0].Items[0].Rate.String())
	assert.Equal(t, "15-01-2025", categories[0].Items[0].RateHistory[0].Date.String())
}

func TestAdminCallsSendBearer(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		var body map[string]int
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2, body["count"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"id":"1","code":"ABCD23"},{"id":"2","code":"WXYZ67"}]}`))
	}, "s3cret")

	codes, err := client.GenerateCodes(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "ABCD23", codes[0].Code)
}

func TestActivateRejection(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Ghalat code","code":"code_not_found"}`))
	}, "")

	_, err := client.Activate(context.Background(), activationdomain.ConsumeRequest{Code: "ZZZZ22", PhoneNumber: "0300", TransactionID: "T"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "code_not_found", apiErr.Code)
	assert.Equal(t, "Ghalat code", apiErr.Message)
}

func TestActivateSuccess(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","expiresAt":"2025-02-14T08:00:00Z"}`))
	}, "")

	res, err := client.Activate(context.Background(), activationdomain.ConsumeRequest{Code: "ABCD23", PhoneNumber: "0300", TransactionID: "T"})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC), res.ExpiresAt.UTC())
}

func TestValidationErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"validation_error","message":"validation error","errors":[{"field":"count","code":"invalid_count"}]}}`))
	}, "s")

	for i := 0; i < 5; i++ {
		_, err := client.GenerateCodes(context.Background(), 0)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "invalid_count", apiErr.Code)
	}
	assert.EqualValues(t, 5, calls.Load())
	assert.Equal(t, "closed", client.State())
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"internal_error","message":"internal server error"}}`))
	}, "")

	for i := 0; i < 2; i++ {
		_, err := client.ListNotes(context.Background())
		require.Error(t, err)
	}
	_, err := client.ListNotes(context.Background())

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "open", client.State())
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}
