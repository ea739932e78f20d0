package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the instruments recorded by the build pipeline and the
// query services
type Metrics struct {
	buildStageDuration metric.Float64Histogram
	tableRows          metric.Int64Gauge
	queries            metric.Int64Counter
	queryDuration      metric.Float64Histogram
	batchItems         metric.Int64Counter
	httpRequests       metric.Int64Counter
	httpDuration       metric.Float64Histogram
}

// NewMetrics creates the instruments on meter. A nil meter yields no-op
// instruments.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.buildStageDuration, err = meter.Float64Histogram(
		"namefinder_build_stage_duration",
		metric.WithDescription("Duration of each dataset build stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.tableRows, err = meter.Int64Gauge(
		"namefinder_table_rows",
		metric.WithDescription("Row count of each loaded or derived table"),
	)
	if err != nil {
		return nil, err
	}

	m.queries, err = meter.Int64Counter(
		"namefinder_queries",
		metric.WithDescription("Queries served by operation and outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.queryDuration, err = meter.Float64Histogram(
		"namefinder_query_duration",
		metric.WithDescription("Query latency by operation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.batchItems, err = meter.Int64Counter(
		"namefinder_batch_items",
		metric.WithDescription("Items processed by batch predictions"),
	)
	if err != nil {
		return nil, err
	}

	m.httpRequests, err = meter.Int64Counter(
		"namefinder_http_requests",
		metric.WithDescription("HTTP requests by method, route and status"),
	)
	if err != nil {
		return nil, err
	}

	m.httpDuration, err = meter.Float64Histogram(
		"namefinder_http_request_duration",
		metric.WithDescription("HTTP request latency by route"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// NopMetrics returns instruments that record nothing
func NopMetrics() *Metrics {
	m, _ := NewMetrics(nil)
	return m
}

// RecordBuildStage records how long a build stage took
func (m *Metrics) RecordBuildStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.buildStageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordTableRows records the size of a table
func (m *Metrics) RecordTableRows(ctx context.Context, table string, rows int) {
	if m == nil {
		return
	}
	m.tableRows.Record(ctx, int64(rows), metric.WithAttributes(attribute.String("table", table)))
}

// RecordQuery records one query. outcome is one of "ok", "empty",
// "invalid", "unavailable" or "error".
func (m *Metrics) RecordQuery(ctx context.Context, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.queries.Add(ctx, 1, attrs)
	m.queryDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordBatchItems records the items of a batch by match status
func (m *Metrics) RecordBatchItems(ctx context.Context, operation string, matched, unmatched int) {
	if m == nil {
		return
	}
	m.batchItems.Add(ctx, int64(matched), metric.WithAttributes(
		attribute.String("operation", operation), attribute.Bool("matched", true)))
	m.batchItems.Add(ctx, int64(unmatched), metric.WithAttributes(
		attribute.String("operation", operation), attribute.Bool("matched", false)))
}

// RecordHTTPRequest records one served HTTP request. route is the matched
// route pattern, never the raw path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", status),
	))
	m.httpDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("route", route)))
}
