package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/category/repository"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	rateitemrepo "github.com/smallbiznis/scraprates/internal/rateitem/repository"
	rateitemservice "github.com/smallbiznis/scraprates/internal/rateitem/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   domain.Service
	items rateitemdomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
}

func setup(t *testing.T) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.Category{}, &rateitemdomain.RateItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	itemRepo := rateitemrepo.Provide()

	return fixture{
		svc: New(Params{
			DB:       db,
			Log:      zap.NewNop(),
			GenID:    node,
			Clock:    fake,
			Repo:     repository.Provide(),
			ItemRepo: itemRepo,
		}),
		items: rateitemservice.New(rateitemservice.Params{
			DB:     db,
			Log:    zap.NewNop(),
			GenID:  node,
			Clock:  fake,
			Config: config.Config{Timezone: "UTC"},
			Repo:   itemRepo,
		}),
		db:    db,
		clock: fake,
	}
}

func (f fixture) addItem(t *testing.T, categoryID, name string, rate int64) {
	t.Helper()
	r := decimal.NewFromInt(rate)
	_, err := f.items.Create(context.Background(), rateitemdomain.CreateRequest{
		CategoryID: categoryID,
		Name:       name,
		Rate:       &r,
		Unit:       "kg",
	})
	require.NoError(t, err)
}

func TestCreateDefaultsAndFrontPlacement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, domain.CreateRequest{Name: "  LOHA  "})
	require.NoError(t, err)
	assert.Equal(t, "LOHA", first.Name)
	assert.Equal(t, domain.DefaultIcon, first.Icon)
	assert.Equal(t, domain.DefaultColor, first.Color)
	assert.Equal(t, 0, first.SortOrder)
	assert.Empty(t, first.Items)

	f.clock.Advance(time.Minute)
	color := "#e65100"
	second, err := f.svc.Create(ctx, domain.CreateRequest{Name: "COPPER", Icon: "circle", Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "#E65100", second.Color)
	assert.Equal(t, -1, second.SortOrder)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "COPPER", list[0].Name)
	assert.Equal(t, "LOHA", list[1].Name)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, domain.CreateRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	bad := "red"
	_, err = f.svc.Create(ctx, domain.CreateRequest{Name: "GLASS", Color: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidColor)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateKeepsOmittedFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, domain.CreateRequest{Name: "BRASS", Icon: "award"})
	require.NoError(t, err)
	f.addItem(t, created.ID, "Brass Fittings", 550)

	f.clock.Advance(time.Hour)
	name := "BRASS (PEETAL)"
	updated, err := f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &name})
	require.NoError(t, err)

	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "award", updated.Icon)
	assert.Len(t, updated.Items, 1)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	empty := ""
	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Icon: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidIcon)

	_, err = f.svc.Update(ctx, domain.UpdateRequest{ID: "777", Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// vanishingRepo removes the category right after reading it, the way a
// delete committed between the read and the write would.
type vanishingRepo struct {
	domain.Repository
}

func (r vanishingRepo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Category, error) {
	found, err := r.Repository.FindByID(ctx, db, id)
	if err != nil || found == nil {
		return found, err
	}
	if _, err := r.Repository.Delete(ctx, db, id); err != nil {
		return nil, err
	}
	return found, nil
}

func TestUpdateOfVanishedCategoryIsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, domain.CreateRequest{Name: "TIN"})
	require.NoError(t, err)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := New(Params{
		DB:       f.db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    f.clock,
		Repo:     vanishingRepo{Repository: repository.Provide()},
		ItemRepo: rateitemrepo.Provide(),
	})

	name := "TIN CANS"
	resp, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, resp)
}

func TestDeleteCascadesToItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	keep, err := f.svc.Create(ctx, domain.CreateRequest{Name: "PAPER"})
	require.NoError(t, err)
	drop, err := f.svc.Create(ctx, domain.CreateRequest{Name: "BATTERY"})
	require.NoError(t, err)
	f.addItem(t, keep.ID, "Newspaper", 22)
	f.addItem(t, drop.ID, "UPS Battery", 135)
	f.addItem(t, drop.ID, "Dry Cell", 45)

	deleted, err := f.svc.Delete(ctx, drop.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var orphans int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(1) FROM rate_items WHERE category_id NOT IN (SELECT id FROM categories)`,
	).Scan(&orphans).Error)
	assert.Zero(t, orphans)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)

	deleted, err = f.svc.Delete(ctx, drop.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = f.svc.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetReturnsItemsAndTouchedTimestamp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, domain.CreateRequest{Name: "ALUMINUM"})
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	f.addItem(t, created.ID, "Aluminum Sheet", 180)
	f.addItem(t, created.ID, "Aluminum Cans", 160)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Aluminum Cans", got.Items[0].Name)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	_, err = f.svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
