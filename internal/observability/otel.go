package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"atscore/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the scoring service instruments. A nil *Metrics records nothing.
type Metrics struct {
	ScoreRequests  metric.Int64Counter
	ScoreDuration  metric.Float64Histogram
	ScoreValue     metric.Float64Histogram
	ProviderErrors metric.Int64Counter
	Fallbacks      metric.Int64Counter
	Enhancements   metric.Int64Counter
	RateLimitHits  metric.Int64Counter
}

// Manager owns the OpenTelemetry providers
type Manager struct {
	config         config.ObservabilityConfig
	version        string
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	metricsHandler http.Handler
	shutdownFuncs  []func(context.Context) error
}

// New sets up tracing and metrics. A disabled config yields a Manager whose
// tracer is a no-op and whose metrics are nil.
func New(cfg config.ObservabilityConfig, version string) (*Manager, error) {
	m := &Manager{config: cfg, version: version}
	if cfg.ServiceVersion != "" {
		m.version = cfg.ServiceVersion
	}
	if !cfg.Enabled {
		return m, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(m.version),
			attribute.String("service.instance.id", cfg.ServiceInstance),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := m.initTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := m.initMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return m, nil
}

func (m *Manager) initTracing(res *resource.Resource) error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case m.config.ConsoleOutput:
		opts := []stdouttrace.Option{}
		if m.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case m.config.OTLP.Enabled:
		exporter, err = m.createOTLPExporter()
	default:
		exporter = noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(m.config.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)
	return nil
}

func (m *Manager) initMetrics(res *resource.Resource) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	readers := 0

	if m.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval()))))
		readers++
	}

	if m.config.OTLP.Enabled {
		reader, err := m.createOTLPMetricsReader()
		if err != nil {
			return fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
		readers++
	}

	if m.config.Prometheus.Enabled {
		reader, handler, err := SetupPrometheusExporter()
		if err != nil {
			return err
		}
		opts = append(opts, sdkmetric.WithReader(reader))
		readers++
		if m.config.Prometheus.Port != "" {
			StartPrometheusServer(handler, m.config.Prometheus.Endpoint, m.config.Prometheus.Port)
		} else {
			m.metricsHandler = handler
		}
	}

	if readers == 0 {
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewManualReader()))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	return m.initCustomMetrics()
}

func (m *Manager) initCustomMetrics() error {
	meter := m.meterProvider.Meter(m.config.ServiceName)
	metrics := &Metrics{}
	var err error

	if metrics.ScoreRequests, err = meter.Int64Counter("atscore_score_requests_total",
		metric.WithDescription("Total number of scoring requests")); err != nil {
		return err
	}
	if metrics.ScoreDuration, err = meter.Float64Histogram("atscore_score_duration_seconds",
		metric.WithDescription("Time spent scoring a resume"),
		metric.WithUnit("s")); err != nil {
		return err
	}
	if metrics.ScoreValue, err = meter.Float64Histogram("atscore_score_total",
		metric.WithDescription("Distribution of total ATS scores"),
		metric.WithExplicitBucketBoundaries(50, 60, 70, 80, 90, 100)); err != nil {
		return err
	}
	if metrics.ProviderErrors, err = meter.Int64Counter("atscore_provider_errors_total",
		metric.WithDescription("Total number of scoring provider failures")); err != nil {
		return err
	}
	if metrics.Fallbacks, err = meter.Int64Counter("atscore_fallbacks_total",
		metric.WithDescription("Total number of scores served by the local fallback")); err != nil {
		return err
	}
	if metrics.Enhancements, err = meter.Int64Counter("atscore_enhancements_total",
		metric.WithDescription("Total number of resume enhancements")); err != nil {
		return err
	}
	if metrics.RateLimitHits, err = meter.Int64Counter("atscore_rate_limit_hits_total",
		metric.WithDescription("Total number of requests rejected by the rate limiter")); err != nil {
		return err
	}

	m.metrics = metrics
	return nil
}

// Metrics returns the instruments, nil when observability is disabled
func (m *Manager) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// MetricsHandler returns the Prometheus handler to mount on the API server,
// or nil when metrics are served elsewhere or disabled.
func (m *Manager) MetricsHandler() http.Handler {
	if m == nil {
		return nil
	}
	return m.metricsHandler
}

// MetricsPath is where MetricsHandler should be mounted
func (m *Manager) MetricsPath() string {
	if m == nil || m.config.Prometheus.Endpoint == "" {
		return "/metrics"
	}
	return m.config.Prometheus.Endpoint
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if m == nil || !m.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(
		m.config.ServiceName,
		otelhttp.WithTracerProvider(m.tracerProvider),
		otelhttp.WithMeterProvider(m.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if m == nil || !m.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops all providers
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TrackScore runs fn inside a span and records request count, duration and errors
func (m *Manager) TrackScore(ctx context.Context, provider string, fn func(context.Context) (float64, error)) error {
	ctx, span := m.Tracer("atscore.score").Start(ctx, "score",
		oteltrace.WithAttributes(attribute.String("provider", provider)))
	defer span.End()

	start := time.Now()
	total, err := fn(ctx)
	duration := time.Since(start).Seconds()

	metrics := m.Metrics()
	attrs := metric.WithAttributes(attribute.String("provider", provider), attribute.Bool("success", err == nil))
	if metrics != nil {
		metrics.ScoreRequests.Add(ctx, 1, attrs)
		metrics.ScoreDuration.Record(ctx, duration, attrs)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if metrics != nil {
			metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
		}
		return err
	}

	span.SetAttributes(attribute.Float64("score.total", total))
	if metrics != nil {
		metrics.ScoreValue.Record(ctx, total, metric.WithAttributes(attribute.String("provider", provider)))
	}
	return nil
}

// RecordFallback counts a score served by the local scorer instead of provider
func (m *Metrics) RecordFallback(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.Fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordEnhancement counts one enhancement
func (m *Metrics) RecordEnhancement(ctx context.Context) {
	if m == nil {
		return
	}
	m.Enhancements.Add(ctx, 1)
}

// RecordRateLimitHit counts one rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitType string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

type noOpSpanExporter struct{}

func (noOpSpanExporter) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (noOpSpanExporter) Shutdown(context.Context) error                         { return nil }

// createOTLPExporter creates an OTLP HTTP trace exporter
func (m *Manager) createOTLPExporter() (trace.SpanExporter, error) {
	otlpConfig := m.config.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

// createOTLPMetricsReader creates an OTLP HTTP metrics reader
func (m *Manager) createOTLPMetricsReader() (sdkmetric.Reader, error) {
	otlpConfig := m.config.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}
	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())), nil
}

func (m *Manager) collectionInterval() time.Duration {
	if m.config.Metrics.CollectionInterval > 0 {
		return m.config.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
