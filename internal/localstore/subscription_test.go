package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionLifecycle(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	subs := NewSubscriptionStore(NewMemoryKV(), clk)
	ctx := context.Background()

	rec, err := subs.Get(ctx)
	require.NoError(t, err)
	assert.False(t, rec.IsActive)
	assert.Nil(t, rec.ExpiresAt)

	expires := clk.Now().Add(30 * 24 * time.Hour)
	saved, err := subs.Save(ctx, Activation{PhoneNumber: " 0300-1234567 ", TransactionID: "TX1", Code: "abc234", ExpiresAt: expires})
	require.NoError(t, err)
	assert.True(t, saved.IsActive)
	assert.Equal(t, "ABC234", *saved.UsedCode)
	assert.Equal(t, "0300-1234567", *saved.PhoneNumber)

	active, err := subs.IsActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 30, DaysRemaining(saved.ExpiresAt, clk.Now()))

	clk.AdvanceDays(29)
	clk.Advance(time.Hour)
	assert.Equal(t, 1, DaysRemaining(saved.ExpiresAt, clk.Now()))

	clk.AdvanceDays(1)
	rec, err = subs.Get(ctx)
	require.NoError(t, err)
	assert.False(t, rec.IsActive, "expired record is inactive even though it was stored active")
	assert.Equal(t, 0, DaysRemaining(rec.ExpiresAt, clk.Now()))

	require.NoError(t, subs.Clear(ctx))
	rec, err = subs.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec.UsedCode)
}

func TestSubscriptionSaveValidates(t *testing.T) {
	subs := NewSubscriptionStore(NewMemoryKV(), nil)
	_, err := subs.Save(context.Background(), Activation{PhoneNumber: "0300", Code: "ABC234", ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidActivation)
}

func TestSettingsMergeOverDefaults(t *testing.T) {
	kv := NewMemoryKV()
	settings := NewSettingsStore(kv)
	ctx := context.Background()

	got, err := settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), got)

	require.NoError(t, kv.Set(ctx, KeySettings, []byte(`{"displayName":"Bilal Traders"}`)))
	got, err = settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rs", got.Currency)
	assert.Equal(t, "Bilal Traders", got.DisplayName)

	unit := "TON"
	got, err = settings.Save(ctx, SettingsUpdate{DefaultUnit: &unit})
	require.NoError(t, err)
	assert.Equal(t, "ton", got.DefaultUnit)
	assert.Equal(t, "Bilal Traders", got.DisplayName)

	bad := "barrel"
	_, err = settings.Save(ctx, SettingsUpdate{DefaultUnit: &bad})
	assert.ErrorIs(t, err, ErrInvalidUnit)
}
