package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics are recorded by the HTTP middleware for every request.
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics registers the HTTP instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}

// QueryMetrics describe dashboard queries against the loaded table.
// A nil *QueryMetrics records nothing.
type QueryMetrics struct {
	RequestsTotal  metric.Int64Counter
	Duration       metric.Float64Histogram
	ResultRows     metric.Int64Histogram
	EmptyResults   metric.Int64Counter
	Degraded       metric.Int64Counter
	DatasetRecords metric.Int64Gauge
}

// NewQueryMetrics registers the query instruments on meter.
func NewQueryMetrics(meter metric.Meter) (*QueryMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"query_requests_total",
		metric.WithDescription("Total number of dataset queries by operation and status"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"query_duration_seconds",
		metric.WithDescription("Dataset query duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	resultRows, err := meter.Int64Histogram(
		"query_result_rows",
		metric.WithDescription("Number of rows or groups returned by a query"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return nil, err
	}

	emptyResults, err := meter.Int64Counter(
		"query_empty_results_total",
		metric.WithDescription("Queries that matched no records"),
	)
	if err != nil {
		return nil, err
	}

	degraded, err := meter.Int64Counter(
		"query_degraded_total",
		metric.WithDescription("Queries refused or trimmed because the dataset lacks a column"),
	)
	if err != nil {
		return nil, err
	}

	datasetRecords, err := meter.Int64Gauge(
		"dataset_records",
		metric.WithDescription("Number of records in the loaded dataset"),
	)
	if err != nil {
		return nil, err
	}

	return &QueryMetrics{
		RequestsTotal:  requestsTotal,
		Duration:       duration,
		ResultRows:     resultRows,
		EmptyResults:   emptyResults,
		Degraded:       degraded,
		DatasetRecords: datasetRecords,
	}, nil
}

// Record notes a finished query. rows is ignored when err is non-nil.
func (m *QueryMetrics) Record(ctx context.Context, operation string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)

	m.RequestsTotal.Add(ctx, 1, attrs)
	m.Duration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		return
	}

	op := metric.WithAttributes(attribute.String("operation", operation))
	m.ResultRows.Record(ctx, int64(rows), op)
	if rows == 0 {
		m.EmptyResults.Add(ctx, 1, op)
	}
}

// RecordDegraded notes a query that could not use feature.
func (m *QueryMetrics) RecordDegraded(ctx context.Context, operation, feature string) {
	if m == nil {
		return
	}
	m.Degraded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("feature", feature),
	))
}

// SetDatasetRecords publishes the size of the loaded table.
func (m *QueryMetrics) SetDatasetRecords(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.DatasetRecords.Record(ctx, int64(n))
}
