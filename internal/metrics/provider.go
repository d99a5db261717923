// Package metrics exposes the terminal's OpenTelemetry instruments through a Prometheus
// registry. HTTP traffic and sync and fiscal operations are recorded as they happen.
// Backlog gauges are read at scrape time.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider owns the meter provider and the registry scraped at /metrics.
type Provider struct {
	namespace     string
	meterProvider *sdkmetric.MeterProvider
	exporter      *promexporter.Exporter
	registry      *prometheus.Registry
}

// NewProvider creates a provider whose instrument names are prefixed with namespace
// (e.g. "pdv"). The registry also carries the Go runtime and process collectors so a
// terminal's memory and open files are scraped next to its sync backlog.
func NewProvider(namespace string) (*Provider, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	return &Provider{
		namespace:     namespace,
		meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		exporter:      exporter,
		registry:      registry,
	}, nil
}

// Handler serves the registry in Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// MeterProvider returns the meter provider used by the HTTP and business instruments.
func (p *Provider) MeterProvider() *sdkmetric.MeterProvider {
	return p.meterProvider
}

// GaugeFunc reads the current value of a gauge.
type GaugeFunc func(ctx context.Context) (int64, error)

// RegisterGauge exposes fn as <namespace>_<name>, read on every scrape. When fn fails
// the gauge is left out of that scrape.
func (p *Provider) RegisterGauge(name, description string, fn GaugeFunc) error {
	meter := p.meterProvider.Meter(p.namespace)
	_, err := meter.Int64ObservableGauge(
		instrumentName(p.namespace, name),
		metric.WithDescription(description),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			value, err := fn(ctx)
			if err != nil {
				return nil
			}
			observer.Observe(value)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register %s gauge: %w", name, err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

func instrumentName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "_" + name
}
