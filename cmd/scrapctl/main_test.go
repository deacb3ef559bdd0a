package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/localstore"
	"github.com/smallbiznis/scraprates/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogJSON = `{"data":[{"id":"1","name":"Copper","icon":"flame","items":[
	{"id":"2","categoryId":"1","name":"Wire","rate":850,"unit":"kg",
	 "rateHistory":[{"date":"15-01-2025","rate":850},{"date":"14-01-2025","rate":840}]}]}]}`

func newTestApp(t *testing.T) (*app, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	return &app{
		log:   zap.NewNop(),
		clock: clk,
		kv:    localstore.NewMemoryKV(),
	}, clk
}

func execute(t *testing.T, a *app, srvURL string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--server", srvURL, "--timezone", "UTC"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncThenBrowse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/categories", r.URL.Path)
		_, _ = w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(srv.Close)
	a, _ := newTestApp(t)

	out, err := execute(t, a, srv.URL, "sync")
	require.NoError(t, err)
	assert.Equal(t, "synced 1 categories, 1 items\n", out)

	out, err = execute(t, a, srv.URL, "categories", "list", "--items")
	require.NoError(t, err)
	assert.Contains(t, out, "Copper (1 items)")
	assert.Contains(t, out, "Wire  Rs 850/kg")

	out, err = execute(t, a, srv.URL, "items", "history", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "15-01-2025  850")
	assert.Contains(t, out, "14-01-2025  840")

	out, err = execute(t, a, srv.URL, "items", "history", "1", "2", "--date", "14-01-2025")
	require.NoError(t, err)
	assert.Equal(t, "14-01-2025  840\n", out)

	_, err = execute(t, a, srv.URL, "items", "history", "1", "2", "--date", "2025-01-14")
	assert.Error(t, err)
}

func TestEmptyCatalogHint(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := execute(t, a, "http://localhost:1", "categories", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "run scrapctl sync")
}

func TestActivateStoresSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abcd23", body["code"])
		_, _ = w.Write([]byte(`{"success":true,"message":"Subscription activated","expiresAt":"2025-02-14T08:00:00Z"}`))
	}))
	t.Cleanup(srv.Close)
	a, clk := newTestApp(t)

	out, err := execute(t, a, srv.URL, "activate", "--code", "abcd23", "--phone", "03001234567", "--txn", "TX1")
	require.NoError(t, err)
	assert.Contains(t, out, "Subscription activated")
	assert.Contains(t, out, "(30 days)")

	out, err = execute(t, a, srv.URL, "subscription", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status:    active")
	assert.Contains(t, out, "code:      ABCD23")
	assert.NotContains(t, out, "03001234567")

	clk.AdvanceDays(31)
	out, err = execute(t, a, srv.URL, "subscription", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status:    expired")
	assert.Contains(t, out, "days left: 0")
}

func TestActivateRejectedKeepsDeviceInactive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"code already used","code":"code_already_used"}`))
	}))
	t.Cleanup(srv.Close)
	a, _ := newTestApp(t)

	_, err := execute(t, a, srv.URL, "activate", "--code", "ABCD23", "--phone", "0300", "--txn", "TX1")
	require.EqualError(t, err, "code already used")

	out, err := execute(t, a, srv.URL, "subscription", "status")
	require.NoError(t, err)
	assert.Equal(t, "not subscribed\n", out)
}

func TestCodesCommandsUseAdminSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "unused", r.URL.Query().Get("status"))
			_, _ = w.Write([]byte(`{"data":[{"id":"1","code":"ABCD23","isUsed":false}],"page_info":{"next_page_token":"abc","has_more":true}}`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"data":{"deleted":3}}`))
		}
	}))
	t.Cleanup(srv.Close)
	a, _ := newTestApp(t)

	out, err := execute(t, a, srv.URL, "codes", "list", "--status", "unused", "--admin-secret", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "ABCD23  unused")
	assert.Contains(t, out, "--page-token abc")

	out, err = execute(t, a, srv.URL, "codes", "purge", "--admin-secret", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "deleted 3 unused codes\n", out)
}

func TestSettingsSetOnlyChangesGivenFlags(t *testing.T) {
	a, _ := newTestApp(t)
	url := "http://localhost:1"

	_, err := execute(t, a, url, "settings", "set", "--name", "Ali Scrap")
	require.NoError(t, err)
	out, err := execute(t, a, url, "settings", "set", "--unit", "MAUND")
	require.NoError(t, err)

	assert.Contains(t, out, "currency:     Rs")
	assert.Contains(t, out, "default unit: maund")
	assert.Contains(t, out, "display name: Ali Scrap")

	_, err = execute(t, a, url, "settings", "set", "--unit", "bucket")
	assert.ErrorIs(t, err, localstore.ErrInvalidUnit)
}

// firstField returns the id a create command prints before the name.
func firstField(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.NotEmpty(t, fields, out)
	return fields[0]
}

func TestLocalCatalogEditing(t *testing.T) {
	a, clk := newTestApp(t)
	url := "http://localhost:1"

	out, err := execute(t, a, url, "categories", "add", "--name", "Copper", "--color", "#B87333")
	require.NoError(t, err)
	categoryID := firstField(t, out)
	assert.Contains(t, out, "Copper")

	out, err = execute(t, a, url, "items", "add", categoryID, "--name", "Wire", "--rate", "850.555")
	require.NoError(t, err)
	itemID := firstField(t, out)
	assert.Contains(t, out, "Wire  850.56/kg")

	clk.AdvanceDays(1)
	out, err = execute(t, a, url, "items", "update", categoryID, itemID, "--rate", "900", "--name", "Wire (mixed)")
	require.NoError(t, err)
	assert.Contains(t, out, "Wire (mixed)  900/kg")

	out, err = execute(t, a, url, "items", "history", categoryID, itemID)
	require.NoError(t, err)
	assert.Contains(t, out, "16-01-2025  900")
	assert.Contains(t, out, "15-01-2025  850.56")

	out, err = execute(t, a, url, "items", "rate", categoryID, itemID, "--date", "15-01-2025")
	require.NoError(t, err)
	assert.Equal(t, "15-01-2025  850.56\n", out)

	out, err = execute(t, a, url, "items", "rate", categoryID, itemID)
	require.NoError(t, err)
	assert.Equal(t, "16-01-2025  900\n", out)

	_, err = execute(t, a, url, "items", "rate", itemID)
	assert.Error(t, err)

	_, err = execute(t, a, url, "items", "update", categoryID, itemID, "--rate", "lots")
	assert.ErrorIs(t, err, localstore.ErrInvalidRate)

	out, err = execute(t, a, url, "categories", "update", categoryID, "--name", "COPPER")
	require.NoError(t, err)
	assert.Equal(t, categoryID+"  COPPER\n", out)

	out, err = execute(t, a, url, "categories", "show", categoryID)
	require.NoError(t, err)
	assert.Contains(t, out, "COPPER (1 items)")
	assert.Contains(t, out, "Wire (mixed)  900/kg")

	out, err = execute(t, a, url, "items", "delete", categoryID, itemID)
	require.NoError(t, err)
	assert.Equal(t, "deleted item "+itemID+"\n", out)
	_, err = execute(t, a, url, "items", "delete", categoryID, itemID)
	assert.ErrorIs(t, err, localstore.ErrNotFound)

	_, err = execute(t, a, url, "categories", "delete", categoryID)
	require.NoError(t, err)
	_, err = execute(t, a, url, "categories", "update", categoryID, "--name", "GONE")
	assert.ErrorIs(t, err, localstore.ErrNotFound)

	out, err = execute(t, a, url, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "run scrapctl sync")
}

func TestSeedLeavesExistingCatalogAlone(t *testing.T) {
	a, _ := newTestApp(t)
	url := "http://localhost:1"

	out, err := execute(t, a, url, "seed")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("seeded %d categories\n", len(seed.DefaultCatalog)), out)

	out, err = execute(t, a, url, "seed")
	require.NoError(t, err)
	assert.Equal(t, "catalog not empty, nothing seeded\n", out)

	_, err = execute(t, a, url, "categories", "clear")
	assert.Error(t, err)
	out, err = execute(t, a, url, "categories", "clear", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "local catalog cleared\n", out)

	_, err = execute(t, a, url, "categories", "add", "--name", "MY YARD")
	require.NoError(t, err)
	out, err = execute(t, a, url, "seed")
	require.NoError(t, err)
	assert.Equal(t, "catalog not empty, nothing seeded\n", out)

	out, err = execute(t, a, url, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "MY YARD (0 items)")
}

func TestRemoteLookups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/categories/1":
			_, _ = w.Write([]byte(`{"data":{"id":"1","name":"Copper","icon":"flame","items":[
				{"id":"2","categoryId":"1","name":"Wire","rate":850,"unit":"kg","rateHistory":[]}]}}`))
		case "/api/items/2/rate":
			assert.Equal(t, "14-01-2025", r.URL.Query().Get("date"))
			_, _ = w.Write([]byte(`{"data":{"itemId":"2","date":"14-01-2025","rate":840,"unit":"kg"}}`))
		case "/api/payment-info":
			_, _ = w.Write([]byte(`{"data":{"accountNumber":"0329-1238790","accountName":"Scrap Rates",
				"monthlyFee":500,"currency":"Rs","methods":["JazzCash","Easypaisa"]}}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	a, _ := newTestApp(t)

	out, err := execute(t, a, srv.URL, "categories", "show", "1", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "Copper (1 items, server)")
	assert.Contains(t, out, "Wire  850/kg")

	out, err = execute(t, a, srv.URL, "items", "rate", "2", "--remote", "--date", "14-01-2025")
	require.NoError(t, err)
	assert.Equal(t, "14-01-2025  840/kg\n", out)

	out, err = execute(t, a, srv.URL, "payment-info")
	require.NoError(t, err)
	assert.Contains(t, out, "account: 0329-1238790 (Scrap Rates)")
	assert.Contains(t, out, "fee:     Rs 500/month")
	assert.Contains(t, out, "methods: JazzCash, Easypaisa")
}
