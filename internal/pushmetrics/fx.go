package pushmetrics

import (
	"context"
	"time"

	activationdomain "github.com/smallbiznis/scraprates/internal/activation/domain"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	"github.com/smallbiznis/scraprates/internal/config"
	"github.com/smallbiznis/scraprates/internal/observability"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minInterval = 30 * time.Second

type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     config.Config
	ObsConfig  observability.Config
	Log        *zap.Logger
	DB         *gorm.DB
	Categories categorydomain.Repository
	Items      rateitemdomain.Repository
	Codes      activationdomain.Repository
}

var Module = fx.Module("push.metrics",
	fx.Invoke(register),
)

func register(p Params) {
	pusher := NewPusher(p.Config, p.Log)
	if pusher == nil {
		return
	}

	log := p.Log.Named("push.metrics")
	gauges := NewCatalogGauges(p.ObsConfig.MetricsNamespace)
	collector := Collector{DB: p.DB, Categories: p.Categories, Items: p.Items, Codes: p.Codes}
	interval := p.Config.Metrics.Interval
	if interval < minInterval {
		interval = minInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	pushOnce := func() {
		if err := collector.Refresh(ctx, gauges); err != nil {
			log.Warn("catalog metrics refresh failed", zap.Error(err))
			return
		}
		if err := pusher.Push(ctx, gauges.Registry()); err != nil {
			log.Warn("catalog metrics push failed", zap.Error(err))
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting catalog metrics push", zap.Duration("interval", interval))
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				pushOnce()
				for {
					select {
					case <-ticker.C:
						pushOnce()
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
