package seed

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&categorydomain.Category{}, &rateitemdomain.RateItem{}))
	return db
}

func TestEnsureCatalogSeedsOnce(t *testing.T) {
	db := setupDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	opts := Options{
		Now:         time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
		Location:    time.UTC,
		HistoryDays: 7,
		Rand:        rand.New(rand.NewSource(1)),
	}

	seeded, err := EnsureCatalog(context.Background(), db, node, opts)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = EnsureCatalog(context.Background(), db, node, opts)
	require.NoError(t, err)
	assert.False(t, seeded)

	var categories []categorydomain.Category
	require.NoError(t, db.Order("sort_order asc").Find(&categories).Error)
	require.Len(t, categories, len(DefaultCatalog))
	assert.Equal(t, "LOHA", categories[0].Name)
	assert.Equal(t, "ZINC", categories[len(categories)-1].Name)

	wantItems := 0
	for _, c := range DefaultCatalog {
		wantItems += len(c.Items)
	}
	var items []rateitemdomain.RateItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, wantItems)
	for _, it := range items {
		require.Len(t, it.History, 7, it.Name)
		assert.True(t, it.History[0].Rate.Equal(it.Rate), it.Name)
		assert.Equal(t, "15-01-2025", it.History[0].Date.String())
	}
}

func TestDefaultCatalogUnitsAreValid(t *testing.T) {
	for _, c := range DefaultCatalog {
		assert.NotEmpty(t, c.Items, c.Name)
		for _, it := range c.Items {
			assert.True(t, rateitemdomain.ValidUnit(it.Unit), it.Name)
		}
	}
}
