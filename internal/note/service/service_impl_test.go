package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/note/domain"
	"github.com/smallbiznis/scraprates/internal/note/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.ImportantNote{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))

	return New(Params{DB: db, Log: zap.NewNop(), GenID: node, Clock: fake, Repo: repository.Provide()}), fake
}

func TestNotesNewestFirstAndActiveFilter(t *testing.T) {
	svc, fake := setup(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.Create(ctx, domain.CreateRequest{Content: "Rates change daily at 10am"})
	require.NoError(t, err)
	fake.Advance(time.Minute)
	_, err = svc.Create(ctx, domain.CreateRequest{Content: "Eid holiday closure", IsActive: &inactive})
	require.NoError(t, err)
	fake.Advance(time.Minute)
	_, err = svc.Create(ctx, domain.CreateRequest{Content: "  Copper demand is up  "})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Copper demand is up", all[0].Content)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, n := range active {
		assert.True(t, n.IsActive)
	}
}

func TestNoteValidationAndUpdate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Content: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidContent)
	_, err = svc.Create(ctx, domain.CreateRequest{Content: strings.Repeat("x", maxContentLength+1)})
	assert.ErrorIs(t, err, domain.ErrInvalidContent)

	created, err := svc.Create(ctx, domain.CreateRequest{Content: "Bring ID card"})
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, "Bring ID card", updated.Content)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, domain.UpdateRequest{ID: "12345", IsActive: &off})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNoteDelete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, domain.CreateRequest{Content: "temp"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Delete(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
