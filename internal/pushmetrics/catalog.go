// Package pushmetrics periodically pushes catalog size gauges to an
// external Prometheus collector.
package pushmetrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	activationdomain "github.com/smallbiznis/scraprates/internal/activation/domain"
	categorydomain "github.com/smallbiznis/scraprates/internal/category/domain"
	rateitemdomain "github.com/smallbiznis/scraprates/internal/rateitem/domain"
	"gorm.io/gorm"
)

type CatalogGauges struct {
	registry   *prometheus.Registry
	categories prometheus.Gauge
	items      prometheus.Gauge
	codes      *prometheus.GaugeVec
}

func NewCatalogGauges(namespace string) *CatalogGauges {
	g := &CatalogGauges{
		registry: prometheus.NewRegistry(),
		categories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_categories",
			Help:      "Number of rate categories.",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_rate_items",
			Help:      "Number of rate items across all categories.",
		}),
		codes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "activation_codes",
			Help:      "Activation codes by status.",
		}, []string{"status"}),
	}
	g.registry.MustRegister(g.categories, g.items, g.codes)
	return g
}

func (g *CatalogGauges) Registry() *prometheus.Registry {
	return g.registry
}

// Collector reads the counts behind the gauges.
type Collector struct {
	DB         *gorm.DB
	Categories categorydomain.Repository
	Items      rateitemdomain.Repository
	Codes      activationdomain.Repository
}

func (c Collector) Refresh(ctx context.Context, g *CatalogGauges) error {
	categories, err := c.Categories.Count(ctx, c.DB)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	items, err := c.Items.Count(ctx, c.DB)
	if err != nil {
		return fmt.Errorf("count rate items: %w", err)
	}
	unused, err := c.Codes.CountByStatus(ctx, c.DB, false)
	if err != nil {
		return fmt.Errorf("count unused codes: %w", err)
	}
	used, err := c.Codes.CountByStatus(ctx, c.DB, true)
	if err != nil {
		return fmt.Errorf("count used codes: %w", err)
	}

	g.categories.Set(float64(categories))
	g.items.Set(float64(items))
	g.codes.WithLabelValues("unused").Set(float64(unused))
	g.codes.WithLabelValues("used").Set(float64(used))
	return nil
}
