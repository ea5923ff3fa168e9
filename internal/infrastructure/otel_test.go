package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"thumbdeck/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestInitTelemetry_NoTracing(t *testing.T) {
	tel, err := InitTelemetry(config.TelemetryConfig{ServiceName: "thumbdeck", TraceExporter: "none"}, nil, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	assert.Nil(t, tel.TracerProvider)
	assert.NotNil(t, tel.Tracer)
	assert.NotNil(t, tel.MeterProvider)
	assert.NotNil(t, tel.Registry)
	require.NotNil(t, tel.Metrics)

	ctx, span := tel.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	assert.Empty(t, TraceIDFromContext(ctx))
	span.End()
}

func TestInitTelemetry_UnknownExporter(t *testing.T) {
	_, err := InitTelemetry(config.TelemetryConfig{ServiceName: "thumbdeck", TraceExporter: "jaeger"}, nil, testLogger())
	assert.Error(t, err)
}

func TestInitTelemetry_StdoutSpans(t *testing.T) {
	// shutdown must stop the batch span processor
	defer goleak.VerifyNone(t)

	var out bytes.Buffer
	tel, err := InitTelemetry(config.TelemetryConfig{ServiceName: "thumbdeck", TraceExporter: "stdout"}, &out, testLogger())
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)

	ctx, span := tel.Tracer.Start(context.Background(), "generate")
	assert.True(t, span.IsRecording())
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))

	SetSpanAttributes(ctx, map[string]interface{}{"rows": 3, "output": "thumbnails.pptx", "dry_run": false})
	RecordError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Contains(t, out.String(), `"Name":"generate"`)
	assert.Contains(t, out.String(), "boom")
	assert.Contains(t, out.String(), "thumbnails.pptx")
}

func TestRunMetrics_WriteMetrics(t *testing.T) {
	tel, err := InitTelemetry(config.TelemetryConfig{ServiceName: "thumbdeck", TraceExporter: "none"}, nil, testLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx := context.Background()
	tel.Metrics.RecordRun(ctx, 4, 1500*time.Millisecond, "")
	tel.Metrics.RecordSlides(ctx, "pptx", 4)
	tel.Metrics.RecordRun(ctx, 2, time.Second, "UNKNOWN_LAYOUT")

	path := filepath.Join(t.TempDir(), "metrics", "thumbdeck.prom")
	require.NoError(t, tel.WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "thumbdeck_rows_processed")
	assert.Contains(t, text, "thumbdeck_slides_written")
	assert.Contains(t, text, `output="pptx"`)
	assert.Contains(t, text, `thumbdeck_runs_failed_total{error_type="UNKNOWN_LAYOUT"`)
	assert.NotContains(t, text, `"error.type"`)
	assert.Contains(t, text, "thumbdeck_run_duration")
	assert.Contains(t, text, `status="failure"`)

	families, err := tel.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		switch mf.GetName() {
		case "thumbdeck_rows_processed_total":
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 6.0, mf.GetMetric()[0].GetCounter().GetValue())
		case "thumbdeck_runs_failed_total":
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestRunMetrics_NilSafe(t *testing.T) {
	var m *RunMetrics
	assert.NotPanics(t, func() {
		m.RecordRun(context.Background(), 1, time.Second, "")
		m.RecordSlides(context.Background(), "pptx", 1)
	})
}
