package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	activationrepo "github.com/smallbiznis/scraprates/internal/activation/repository"
	activationservice "github.com/smallbiznis/scraprates/internal/activation/service"
	auditdomain "github.com/smallbiznis/scraprates/internal/audit/domain"
	auditrepo "github.com/smallbiznis/scraprates/internal/audit/repository"
	auditservice "github.com/smallbiznis/scraprates/internal/audit/service"
	"github.com/smallbiznis/scraprates/internal/auth/password"
	"github.com/smallbiznis/scraprates/internal/authorization"
	categoryrepo "github.com/smallbiznis/scraprates/internal/category/repository"
	categoryservice "github.com/smallbiznis/scraprates/internal/category/service"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/migration"
	noterepo "github.com/smallbiznis/scraprates/internal/note/repository"
	noteservice "github.com/smallbiznis/scraprates/internal/note/service"
	"github.com/smallbiznis/scraprates/internal/observability"
	obsmetrics "github.com/smallbiznis/scraprates/internal/observability/metrics"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	rateitemrepo "github.com/smallbiznis/scraprates/internal/rateitem/repository"
	rateitemservice "github.com/smallbiznis/scraprates/internal/rateitem/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminSecret    = "admin-secret"
	operatorSecret = "operator-secret"
)

var cheapHash = password.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type testServer struct {
	engine *gin.Engine
	server *Server
	clock  *clock.FakeClock
	db     *gorm.DB
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migration.Apply(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	adminHash, err := password.HashWith(adminSecret, cheapHash)
	require.NoError(t, err)
	operatorHash, err := password.HashWith(operatorSecret, cheapHash)
	require.NoError(t, err)
	cfg := config.Config{
		Timezone: "UTC",
		Admin: config.AdminConfig{
			AdminPasswordHash:    adminHash,
			OperatorPasswordHash: operatorHash,
		},
	}

	authn, err := authorization.NewAuthenticator(cfg, log)
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepo.Provide(),
	})
	itemRepo := rateitemrepo.Provide()

	paymentInfo, err := config.LoadPaymentInfo(log, t.TempDir())
	require.NoError(t, err)
	httpMetrics, err := obsmetrics.NewHTTPMetricsWith(prometheus.NewRegistry(), "test")
	require.NoError(t, err)

	engine := NewEngine(observability.Config{}, httpMetrics)
	srv := NewServer(ServerParams{
		Gin:      engine,
		Cfg:      cfg,
		Log:      log,
		Clock:    fake,
		Authn:    authn,
		AuthzSvc: authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer, AuditSvc: auditSvc}),
		AuditSvc: auditSvc,
		CategorySvc: categoryservice.New(categoryservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: categoryrepo.Provide(), ItemRepo: itemRepo,
		}),
		RateItemSvc: rateitemservice.New(rateitemservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Config: cfg, Repo: itemRepo,
		}),
		ActivationSvc: activationservice.New(activationservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Config: cfg, Repo: activationrepo.Provide(),
		}),
		NoteSvc: noteservice.New(noteservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: noterepo.Provide(),
		}),
		PaymentInfo: paymentInfo,
	})

	return testServer{engine: engine, server: srv, clock: fake, db: db}
}

func (ts testServer) do(t *testing.T, method, path, secret string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

type categoryBody struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []itemBody `json:"items"`
}

type itemBody struct {
	ID          string              `json:"id"`
	CategoryID  string              `json:"categoryId"`
	Name        string              `json:"name"`
	Rate        decimal.Decimal     `json:"rate"`
	Unit        string              `json:"unit"`
	RateHistory []ratehistory.Entry `json:"rateHistory"`
}

func (ts testServer) createCategory(t *testing.T, name string) categoryBody {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/categories", adminSecret, map[string]any{"name": name, "icon": "flame"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[categoryBody](t, rec)
}

func (ts testServer) createItem(t *testing.T, categoryID, name string, rate int) itemBody {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/admin/items", adminSecret, map[string]any{
		"categoryId": categoryID, "name": name, "rate": rate, "unit": "kg",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[itemBody](t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAdminRoutesRequireCredential(t *testing.T) {
	ts := newTestServer(t)

	for _, secret := range []string{"", "admin123", "wrong"} {
		rec := ts.do(t, http.MethodPost, "/api/admin/categories", secret, map[string]any{"name": "Copper"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "secret %q", secret)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Type)
	}
}

func TestOperatorCannotManageActivationCodes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/activation-codes", operatorSecret, map[string]any{"count": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/audit-logs", operatorSecret, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/categories", operatorSecret, map[string]any{"name": "Brass", "icon": "box"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRateUpdatesFollowHistoryRules(t *testing.T) {
	ts := newTestServer(t)
	category := ts.createCategory(t, "Copper")
	item := ts.createItem(t, category.ID, "Copper Wire", 850)
	require.Len(t, item.RateHistory, 1)

	rec := ts.do(t, http.MethodPut, "/api/admin/items/"+item.ID, adminSecret, map[string]any{"rate": 900})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[itemBody](t, rec)
	require.Len(t, updated.RateHistory, 1, "same day overwrites")
	assert.True(t, updated.RateHistory[0].Rate.Equal(decimal.NewFromInt(900)))

	ts.clock.AdvanceDays(1)
	rec = ts.do(t, http.MethodPut, "/api/admin/items/"+item.ID, adminSecret, map[string]any{"rate": 920})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated = decodeData[itemBody](t, rec)
	require.Len(t, updated.RateHistory, 2)
	assert.Equal(t, "16-01-2025", updated.RateHistory[0].Date.String())
	assert.Equal(t, "15-01-2025", updated.RateHistory[1].Date.String())

	rec = ts.do(t, http.MethodGet, "/api/items/"+item.ID+"/rate?date=15-01-2025", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	onDate := decodeData[struct {
		Rate decimal.Decimal `json:"rate"`
	}](t, rec)
	assert.True(t, onDate.Rate.Equal(decimal.NewFromInt(900)))

	rec = ts.do(t, http.MethodGet, "/api/items/"+item.ID+"/rate?date=2025-01-15", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidRateIsRejected(t *testing.T) {
	ts := newTestServer(t)
	category := ts.createCategory(t, "Iron")

	rec := ts.do(t, http.MethodPost, "/api/admin/items", adminSecret, map[string]any{
		"categoryId": category.ID, "name": "Sariya", "rate": 0, "unit": "kg",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_rate", payload.Errors[0].Code)
}

func TestDeleteCategoryRemovesItems(t *testing.T) {
	ts := newTestServer(t)
	category := ts.createCategory(t, "Aluminium")
	item := ts.createItem(t, category.ID, "Patti", 450)

	rec := ts.do(t, http.MethodDelete, "/api/admin/categories/"+category.ID, adminSecret, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/categories/"+category.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var remaining int64
	require.NoError(t, ts.db.Table("rate_items").Where("id = ?", item.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	rec = ts.do(t, http.MethodDelete, "/api/admin/categories/"+category.ID, adminSecret, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivationFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/activation-codes", adminSecret, map[string]any{"count": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	codes := decodeData[[]struct {
		Code string `json:"code"`
	}](t, rec)
	require.Len(t, codes, 2)

	body := map[string]any{
		"code":          strings.ToLower(codes[0].Code),
		"phoneNumber":   "0300-1234567",
		"transactionId": "TX-1001",
	}
	rec = ts.do(t, http.MethodPost, "/api/activate", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ok activateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.True(t, ok.Success)
	require.NotNil(t, ok.ExpiresAt)
	assert.Equal(t, ts.clock.Now().Add(30*24*time.Hour).Unix(), ok.ExpiresAt.Unix())

	rec = ts.do(t, http.MethodPost, "/api/activate", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var used activateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &used))
	assert.False(t, used.Success)
	assert.Equal(t, codeCodeAlreadyUsed, used.Code)

	body["code"] = "ZZZZZZZZ"
	rec = ts.do(t, http.MethodPost, "/api/activate", "", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var missing activateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &missing))
	assert.Equal(t, codeCodeNotFound, missing.Code)

	rec = ts.do(t, http.MethodPost, "/api/activate", "", map[string]any{"code": codes[1].Code})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var invalid activateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalid))
	assert.Equal(t, codeInvalidRequest, invalid.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/activation-codes?status=used", adminSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	usedCodes := decodeData[[]struct {
		Code   string `json:"code"`
		IsUsed bool   `json:"isUsed"`
	}](t, rec)
	require.Len(t, usedCodes, 1)
	assert.Equal(t, codes[0].Code, usedCodes[0].Code)

	rec = ts.do(t, http.MethodDelete, "/api/admin/activation-codes/unused", adminSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	purged := decodeData[struct {
		Deleted int64 `json:"deleted"`
	}](t, rec)
	assert.EqualValues(t, 1, purged.Deleted)
}

func TestActivationIsAudited(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/activate", "", map[string]any{
		"code": "ABCDEFGH", "phoneNumber": "0300-1234567", "transactionId": "TX-9",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/audit-logs?action="+auditdomain.ActionCodeConsumeFail, adminSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	logs := decodeData[[]auditdomain.AuditLog](t, rec)
	require.Len(t, logs, 1)
	assert.Equal(t, string(auditdomain.ActorTypeSubscriber), logs[0].ActorType)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, "****4567", *logs[0].ActorID)
	assert.NotContains(t, rec.Body.String(), "1234567")
}

func TestNotesVisibility(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/admin/notes", adminSecret, map[string]any{"content": "Market band hai jumme ko"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	hidden := false
	rec = ts.do(t, http.MethodPost, "/api/admin/notes", adminSecret, map[string]any{"content": "draft", "isActive": hidden})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decodeData[[]struct {
		Content string `json:"content"`
	}](t, rec)
	require.Len(t, public, 1)
	assert.Equal(t, "Market band hai jumme ko", public[0].Content)

	rec = ts.do(t, http.MethodGet, "/api/admin/notes", adminSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]any](t, rec), 2)
}

func TestRateSheetAndPaymentInfo(t *testing.T) {
	ts := newTestServer(t)
	category := ts.createCategory(t, "Copper Items")
	ts.createItem(t, category.ID, "Copper Wire", 850)

	rec := ts.do(t, http.MethodGet, "/api/categories/"+category.ID+"/ratesheet.pdf", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "copper-items-15-01-2025.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = ts.do(t, http.MethodGet, "/api/categories/"+category.ID+"/ratesheet.pdf?date=bad", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/payment-info", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeData[config.PaymentInfo](t, rec)
	assert.Equal(t, config.DefaultPaymentInfo().AccountNumber, info.AccountNumber)
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{authorization.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{ErrNotFound, http.StatusNotFound, "not_found"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}

	kind, code := classifyErrorForLog(newValidationError("date", "invalid_date", "bad"))
	assert.Equal(t, "client_error", kind)
	assert.Equal(t, "invalid_date", code)
}
