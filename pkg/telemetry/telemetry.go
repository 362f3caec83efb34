// Package telemetry exports the monitor's own metrics over OTLP/HTTP.
package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkMetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "dayz-monitor"

// Config configures the exporter. Endpoint and headers come from the standard
// OTEL_EXPORTER_OTLP_* variables read by otlpmetrichttp.
type Config struct {
	MetricsEnabled  bool          `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsInterval time.Duration `envconfig:"METRICS_INTERVAL" default:"60s"`
}

// Setup returns the meter provider to use and its shutdown func.
// With metrics disabled it is a noop provider.
func Setup(ctx context.Context, cfg Config) (metric.MeterProvider, func(), error) {
	if !cfg.MetricsEnabled {
		return noop.NewMeterProvider(), func() {}, nil
	}
	exp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	reader := sdkMetric.NewPeriodicReader(exp, sdkMetric.WithInterval(cfg.MetricsInterval))
	mp := sdkMetric.NewMeterProvider(sdkMetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	return mp, func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mp.Shutdown(shCtx); err != nil {
			log.Printf("metrics shutdown: %v", err)
		}
	}, nil
}

// Metrics implements statusmsg.Metrics.
type Metrics struct {
	ticks         metric.Int64Counter
	queryDuration metric.Float64Histogram
	serverAttr    attribute.KeyValue
}

func NewMetrics(mp metric.MeterProvider, serverName string) (*Metrics, error) {
	meter := mp.Meter(meterName)
	ticks, err := meter.Int64Counter("dayz_monitor.ticks",
		metric.WithDescription("Status update ticks by outcome"))
	if err != nil {
		return nil, err
	}
	queryDuration, err := meter.Float64Histogram("dayz_monitor.query.duration",
		metric.WithDescription("A2S query round-trip time"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		ticks:         ticks,
		queryDuration: queryDuration,
		serverAttr:    attribute.String("server", serverName),
	}, nil
}

func (m *Metrics) ObserveTick(ctx context.Context, outcome string, queryTook time.Duration) {
	m.ticks.Add(ctx, 1, metric.WithAttributes(m.serverAttr, attribute.String("outcome", outcome)))
	// zero means no query was made (send failed before it)
	if queryTook > 0 {
		m.queryDuration.Record(ctx, float64(queryTook)/float64(time.Millisecond), metric.WithAttributes(m.serverAttr))
	}
}
