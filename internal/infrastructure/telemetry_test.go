package infrastructure

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namefinder/internal/config"
)

func findFamily(families []*dto.MetricFamily, prefix string) *dto.MetricFamily {
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), prefix) {
			return f
		}
	}
	return nil
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, l := range m.GetLabel() {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}

func TestMetricsExportedThroughRegistry(t *testing.T) {
	tel, err := InitTelemetry(config.TelemetryConfig{MetricsEnabled: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	metrics, err := NewMetrics(tel.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordQuery(ctx, "profile", "ok", 2*time.Millisecond)
	metrics.RecordQuery(ctx, "profile", "ok", 3*time.Millisecond)
	metrics.RecordTableRows(ctx, "calculated", 42)

	families, err := tel.Registry.Gather()
	require.NoError(t, err)

	queries := findFamily(families, "namefinder_queries")
	require.NotNil(t, queries)
	require.Len(t, queries.GetMetric(), 1)
	assert.True(t, hasLabel(queries.GetMetric()[0], "operation", "profile"))
	assert.Equal(t, 2.0, queries.GetMetric()[0].GetCounter().GetValue())

	rows := findFamily(families, "namefinder_table_rows")
	require.NotNil(t, rows)
	assert.Equal(t, 42.0, rows.GetMetric()[0].GetGauge().GetValue())

	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "namefinder_queries")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestTelemetryDisabled(t *testing.T) {
	tel, err := InitTelemetry(config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, tel.TracerProvider)
	assert.Nil(t, tel.MeterProvider)

	metrics, err := NewMetrics(tel.Meter)
	require.NoError(t, err)
	metrics.RecordQuery(context.Background(), "search", "empty", time.Millisecond)

	families, err := tel.Registry.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordQuery(context.Background(), "age", "ok", time.Millisecond)
		m.RecordBuildStage(context.Background(), "load", time.Second)
	})
}
