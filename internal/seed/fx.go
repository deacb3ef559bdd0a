package seed

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scraprates/internal/clock"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockKey = "scraprates:seed:catalog"
	lockTTL = time.Minute
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Locker    *ratelimit.Locker `optional:"true"`
}

var Module = fx.Module("seed",
	fx.Invoke(register),
)

func register(p Params) {
	if !p.Config.Bootstrap.SeedCatalog {
		return
	}
	log := p.Log.Named("seed")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Locker != nil {
				token, ok, err := p.Locker.TryLock(ctx, lockKey, lockTTL)
				if err != nil {
					log.Warn("seed lock unavailable, seeding without it", zap.Error(err))
				} else if !ok {
					log.Info("catalog seed held by another replica")
					return nil
				} else {
					defer func() { _ = p.Locker.Release(context.Background(), lockKey, token) }()
				}
			}

			seeded, err := EnsureCatalog(ctx, p.DB, p.GenID, Options{
				Now:         p.Clock.Now(),
				Location:    p.Config.Location(),
				HistoryDays: p.Config.Bootstrap.SeedHistoryDays,
			})
			if err != nil {
				return err
			}
			if seeded {
				log.Info("default catalog seeded", zap.Int("categories", len(DefaultCatalog)))
			}
			return nil
		},
	})
}
