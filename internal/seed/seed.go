package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const historyJitterPct = 3

// Options controls a catalog seed run.
type Options struct {
	Now         time.Time
	Location    *time.Location
	HistoryDays int
	Rand        *rand.Rand
}

// EnsureCatalog inserts DefaultCatalog when the categories table is empty.
// It reports whether anything was written.
func EnsureCatalog(ctx context.Context, db *gorm.DB, node *snowflake.Node, opts Options) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	if node == nil {
		return false, errors.New("seed id generator is required")
	}
	if opts.HistoryDays < 1 {
		opts.HistoryDays = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Now.UnixNano()))
	}

	seeded := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&categorydomain.Category{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		now := opts.Now.UTC()
		today := ratehistory.Today(now, opts.Location)
		for i, cat := range DefaultCatalog {
			category := categorydomain.Category{
				ID:        node.Generate().Int64(),
				Name:      cat.Name,
				Icon:      cat.Icon,
				Color:     cat.Color,
				SortOrder: i,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", cat.Name, err)
			}

			for _, it := range cat.Items {
				rate, err := decimal.NewFromString(it.Rate)
				if err != nil {
					return fmt.Errorf("seed item %s: %w", it.Name, err)
				}
				history := ratehistory.Seed(opts.Rand, today, rate, opts.HistoryDays, historyJitterPct)
				item := rateitemdomain.RateItem{
					ID:         node.Generate().Int64(),
					CategoryID: category.ID,
					Name:       it.Name,
					Rate:       rate,
					Unit:       it.Unit,
					History:    datatypes.JSONSlice[ratehistory.Entry](history),
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("seed item %s: %w", it.Name, err)
				}
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
