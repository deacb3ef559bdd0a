package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Namespace        string
	Environment      string
}

// Activation outcomes used as the "result" label.
const (
	ActivationSucceeded   = "succeeded"
	ActivationNotFound    = "not_found"
	ActivationAlreadyUsed = "already_used"
	ActivationRejected    = "rejected"
	ActivationRateLimited = "rate_limited"
)

// Metrics exposes domain instruments.
type Metrics struct {
	rateUpdates    metric.Int64Counter
	activations    metric.Int64Counter
	codesGenerated metric.Int64Counter
	codesPurged    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	ns := strings.TrimSpace(cfg.Namespace)
	if ns == "" {
		ns = "scraprates"
	}
	meter := provider.Meter(ns)

	rateUpdates, err := meter.Int64Counter(ns+"_rate_updates_total",
		metric.WithDescription("Rate changes recorded into item history."))
	if err != nil {
		return nil, err
	}
	activations, err := meter.Int64Counter(ns+"_activations_total",
		metric.WithDescription("Activation attempts by result."))
	if err != nil {
		return nil, err
	}
	codesGenerated, err := meter.Int64Counter(ns+"_activation_codes_generated_total")
	if err != nil {
		return nil, err
	}
	codesPurged, err := meter.Int64Counter(ns+"_activation_codes_purged_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		rateUpdates:    rateUpdates,
		activations:    activations,
		codesGenerated: codesGenerated,
		codesPurged:    codesPurged,
	}, nil
}

func (m *Metrics) RecordRateUpdate(ctx context.Context, unit string) {
	if m == nil {
		return
	}
	m.rateUpdates.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("unit", strings.TrimSpace(unit)),
	)...))
}

func (m *Metrics) RecordActivation(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.activations.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("result", strings.TrimSpace(result)),
	)...))
}

func (m *Metrics) RecordCodesGenerated(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.codesGenerated.Add(ctx, int64(n))
}

func (m *Metrics) RecordCodesPurged(ctx context.Context, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.codesPurged.Add(ctx, n)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Category and item ids, codes and phone numbers must never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"unit":        {},
	"result":      {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; ok {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}
