package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/webbuild"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal      metric.Int64Counter
	BuildErrorsTotal metric.Int64Counter
	BuildDuration    metric.Float64Histogram
	OutputBytes      metric.Int64Counter

	// Configuration metrics
	DefinesProjected metric.Int64Gauge
	VendorChunks     metric.Int64Gauge

	// Dev server metrics
	RebuildsTriggered metric.Int64Counter
	LintFailuresTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Without InitTelemetry the global no-op provider makes every instrument a no-op.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"webbuild.builds.total",
		metric.WithDescription("Total number of builds started"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"webbuild.builds.errors.total",
		metric.WithDescription("Total number of builds that failed"),
		metric.WithUnit("{build}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"webbuild.builds.duration",
		metric.WithDescription("Duration of builds"),
		metric.WithUnit("ms"),
	)

	m.OutputBytes, _ = meter.Int64Counter(
		"webbuild.output.bytes",
		metric.WithDescription("Total bytes written to the output directory"),
		metric.WithUnit("By"),
	)

	m.DefinesProjected, _ = meter.Int64Gauge(
		"webbuild.defines.projected",
		metric.WithDescription("Environment variables exposed to browser code in the last build"),
		metric.WithUnit("{define}"),
	)

	m.VendorChunks, _ = meter.Int64Gauge(
		"webbuild.chunks.vendor",
		metric.WithDescription("Third-party chunk groups in the last build"),
		metric.WithUnit("{chunk}"),
	)

	m.RebuildsTriggered, _ = meter.Int64Counter(
		"webbuild.devserver.rebuilds.total",
		metric.WithDescription("Total number of rebuilds triggered by file changes or requests"),
		metric.WithUnit("{build}"),
	)

	m.LintFailuresTotal, _ = meter.Int64Counter(
		"webbuild.lint.failures.total",
		metric.WithDescription("Total number of failed lint runs"),
		metric.WithUnit("{run}"),
	)

	return m
}
