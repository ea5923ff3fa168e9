package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"thumbdeck/internal/config"
)

// InstrumentationName names the tracer and meter of the application.
const InstrumentationName = "thumbdeck"

// Telemetry holds the tracer and meter of one run. Metrics are collected on
// a private prometheus registry so they can be written to a textfile when
// the run ends.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prom.Registry
	Tracer         trace.Tracer
	Metrics        *RunMetrics
	Logger         *slog.Logger
}

// RunMetrics are the counters recorded by a generation run.
type RunMetrics struct {
	RowsProcessed metric.Int64Counter
	RunsFailed    metric.Int64Counter
	SlidesWritten metric.Int64Counter
	RunDuration   metric.Float64Histogram
}

// InitTelemetry sets up tracing and metrics. Spans from the "stdout"
// exporter are written to traceOut.
func InitTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	res := createResource(cfg)
	t := &Telemetry{Logger: logger}

	if err := t.initializeTracing(cfg, res, traceOut); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "Telemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter))
	return t, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg config.TelemetryConfig) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("host.name", hostname),
	)
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, out io.Writer) error {
	switch cfg.TraceExporter {
	case "stdout":
		if out == nil {
			out = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.TracerProvider = tp
		t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	case "", "none":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.Registry = prom.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(t.Registry),
		prometheus.WithNamespace(InstrumentationName),
		prometheus.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	meter := t.MeterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = NewRunMetrics(meter)
	return err
}

// NewRunMetrics creates the run instruments on meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	rowsProcessed, err := meter.Int64Counter(
		"rows_processed",
		metric.WithDescription("Number of table rows turned into slide content"),
	)
	if err != nil {
		return nil, err
	}

	runsFailed, err := meter.Int64Counter(
		"runs_failed",
		metric.WithDescription("Number of aborted generation runs, by error type"),
	)
	if err != nil {
		return nil, err
	}

	slidesWritten, err := meter.Int64Counter(
		"slides_written",
		metric.WithDescription("Number of slides saved, by output kind"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"run_duration",
		metric.WithDescription("Duration of a generation run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RowsProcessed: rowsProcessed,
		RunsFailed:    runsFailed,
		SlidesWritten: slidesWritten,
		RunDuration:   runDuration,
	}, nil
}

// RecordRun records the outcome of one run. errType is empty on success.
func (m *RunMetrics) RecordRun(ctx context.Context, rows int, duration time.Duration, errType string) {
	if m == nil {
		return
	}
	status := "success"
	if errType != "" {
		status = "failure"
		m.RunsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("error_type", errType)))
	}
	m.RowsProcessed.Add(ctx, int64(rows))
	m.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordSlides records slides saved to one output.
func (m *RunMetrics) RecordSlides(ctx context.Context, kind string, slides int) {
	if m == nil {
		return
	}
	m.SlidesWritten.Add(ctx, int64(slides), metric.WithAttributes(attribute.String("output", kind)))
}

// WriteMetrics dumps the collected metrics in the node exporter textfile format.
func (t *Telemetry) WriteMetrics(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	t.Logger.Info("Wrote metrics", slog.String("path", path))
	return nil
}

// Shutdown flushes pending spans and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}
