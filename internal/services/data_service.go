package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"regpulse/internal/analytics"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/exporter"
	"regpulse/internal/infrastructure"
	"regpulse/pkg/contracts/domain"
)

// Result is a list answer. Count and Empty let clients render a "no data"
// state without inspecting Items.
type Result[T any] struct {
	Items    []T            `json:"items"`
	Count    int            `json:"count"`
	Empty    bool           `json:"empty"`
	Disabled []domain.Field `json:"disabled,omitempty"`
}

func newResult[T any](items []T, disabled []domain.Field) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Count: len(items), Empty: len(items) == 0, Disabled: disabled}
}

// DatasetInfo describes the loaded table.
type DatasetInfo struct {
	Records   int                   `json:"records"`
	Features  map[domain.Field]bool `json:"features"`
	Columns   []domain.Field        `json:"columns"`
	Skipped   []string              `json:"skipped,omitempty"`
	Coercions map[domain.Field]int  `json:"coercions,omitempty"`
	Source    string                `json:"source"`
	LoadedAt  time.Time             `json:"loadedAt"`
}

// Facets lists the selectable values of every facet and the full year range.
type Facets struct {
	Options map[domain.Field][]string `json:"options"`
	Years   *domain.YearRange         `json:"years,omitempty"`
}

// CompareInput selects records by name or by id. Exactly one list may be set.
type CompareInput struct {
	Names []string
	IDs   []int
}

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Export is an encoded download.
type Export struct {
	Data        []byte
	ContentType string
	Filename    string
	Rows        int
}

// DatasetStatus is reported by the readiness probe.
type DatasetStatus struct {
	Loaded   bool      `json:"loaded"`
	Records  int       `json:"records"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type dataset struct {
	table    domain.Table
	source   string
	loadedAt time.Time
}

// DataService owns the canonical table and answers dashboard queries
// against it. The table is set once and never mutated, so queries run
// concurrently without locking.
type DataService struct {
	data    atomic.Pointer[dataset]
	loadErr atomic.Pointer[error]

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.QueryMetrics
	export  exporter.WriteOptions
}

// DataServiceOption configures a DataService.
type DataServiceOption func(*DataService)

// WithTracer sets the tracer used for query spans.
func WithTracer(tracer trace.Tracer) DataServiceOption {
	return func(ds *DataService) { ds.tracer = tracer }
}

// WithQueryMetrics sets the query instruments.
func WithQueryMetrics(m *infrastructure.QueryMetrics) DataServiceOption {
	return func(ds *DataService) { ds.metrics = m }
}

// WithExportOptions sets the CSV export options.
func WithExportOptions(opts exporter.WriteOptions) DataServiceOption {
	return func(ds *DataService) { ds.export = opts }
}

// NewDataService creates a data service with no dataset. Queries fail with
// ErrDatasetUnavailable until Load or SetTable succeeds.
func NewDataService(logger *slog.Logger, opts ...DataServiceOption) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	ds := &DataService{
		logger: logger.With(slog.String("component", "data_service")),
		tracer: otel.Tracer(infrastructure.MeterName),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Load reads and normalises src and installs the result. A failure is kept
// for the readiness probe.
func (ds *DataService) Load(ctx context.Context, loader *dataprocessing.Loader, src dataprocessing.Source) error {
	ctx, span := ds.tracer.Start(ctx, "data.load")
	defer span.End()

	start := time.Now()
	table, err := loader.Load(ctx, src)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		ds.loadErr.Store(&err)
		ds.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", describeSource(src)),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}

	ds.install(ctx, table, describeSource(src))
	ds.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", describeSource(src)),
		slog.Int("records", table.Len()),
		slog.Bool("cost_impact", table.Features.CostImpact()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// SetTable installs an already normalised table.
func (ds *DataService) SetTable(t domain.Table, source string) {
	ds.install(context.Background(), t, source)
}

func (ds *DataService) install(ctx context.Context, t domain.Table, source string) {
	ds.data.Store(&dataset{table: t, source: source, loadedAt: time.Now()})
	ds.loadErr.Store(nil)
	ds.metrics.SetDatasetRecords(ctx, t.Len())
}

func describeSource(src dataprocessing.Source) string {
	if src.SpreadsheetID != "" {
		return "sheets:" + src.SpreadsheetID
	}
	return src.Path
}

// Status reports whether a dataset is loaded.
func (ds *DataService) Status() DatasetStatus {
	if d := ds.data.Load(); d != nil {
		return DatasetStatus{Loaded: true, Records: d.table.Len(), Source: d.source, LoadedAt: d.loadedAt}
	}
	status := DatasetStatus{}
	if errp := ds.loadErr.Load(); errp != nil {
		status.Error = (*errp).Error()
	}
	return status
}

// Table returns the canonical table.
func (ds *DataService) Table() (domain.Table, error) {
	d := ds.data.Load()
	if d == nil {
		return domain.Table{}, ErrDatasetUnavailable
	}
	return d.table, nil
}

// query runs fn against the canonical table, optionally narrowed by f,
// inside a span and with query metrics recorded.
func query[T any](ctx context.Context, ds *DataService, op string, f *analytics.Filter, fn func(domain.Table) ([]T, error)) (Result[T], error) {
	ctx, span := ds.tracer.Start(ctx, "data."+op, trace.WithAttributes(attribute.String("query.operation", op)))
	defer span.End()

	start := time.Now()
	res, err := runQuery(ctx, ds, op, f, fn)
	ds.finish(ctx, op, res.Count, start, err)
	return res, err
}

func runQuery[T any](ctx context.Context, ds *DataService, op string, f *analytics.Filter, fn func(domain.Table) ([]T, error)) (Result[T], error) {
	t, err := ds.Table()
	if err != nil {
		return Result[T]{}, err
	}

	var disabled []domain.Field
	if f != nil {
		t, disabled, err = ds.narrow(ctx, op, t, *f)
		if err != nil {
			return Result[T]{}, err
		}
	}

	items, err := fn(t)
	if err != nil {
		return Result[T]{}, mapError(err)
	}
	return newResult(items, disabled), nil
}

func (ds *DataService) narrow(ctx context.Context, op string, t domain.Table, f analytics.Filter) (domain.Table, []domain.Field, error) {
	if err := f.Validate(); err != nil {
		return domain.Table{}, nil, mapError(err)
	}
	disabled := f.Disabled(t)
	for _, field := range disabled {
		ds.metrics.RecordDegraded(ctx, op, string(field))
		ds.logger.DebugContext(ctx, "filter predicate skipped, column absent",
			slog.String("operation", op),
			slog.String("field", string(field)))
	}
	return analytics.ApplyFilters(t, f), disabled, nil
}

func (ds *DataService) finish(ctx context.Context, op string, rows int, start time.Time, err error) {
	duration := time.Since(start)
	ds.metrics.Record(ctx, op, rows, duration, err)

	if err == nil {
		infrastructure.AddSpanEvent(ctx, "query.completed", attribute.Int("rows", rows))
		ds.logger.DebugContext(ctx, "query completed",
			slog.String("operation", op),
			slog.Int("rows", rows),
			slog.Duration("duration", duration))
		return
	}

	infrastructure.RecordError(ctx, err)
	var fe *FeatureError
	if errors.As(err, &fe) {
		ds.metrics.RecordDegraded(ctx, op, string(fe.Feature))
	}
	level := slog.LevelWarn
	if errors.Is(err, ErrDatasetUnavailable) {
		level = slog.LevelError
	}
	ds.logger.Log(ctx, level, "query failed",
		slog.String("operation", op),
		slog.String("error", err.Error()))
}

// Info describes the loaded dataset and its available features.
func (ds *DataService) Info(ctx context.Context) (DatasetInfo, error) {
	d := ds.data.Load()
	if d == nil {
		return DatasetInfo{}, ErrDatasetUnavailable
	}
	t := d.table
	return DatasetInfo{
		Records:   t.Len(),
		Features:  t.Features.Map(),
		Columns:   t.Columns(),
		Skipped:   t.Skipped,
		Coercions: t.Coercions,
		Source:    d.source,
		LoadedAt:  d.loadedAt,
	}, nil
}

// Facets returns the options of every facet over the full table. Facets
// whose column is absent have no options.
func (ds *DataService) Facets(ctx context.Context) (Facets, error) {
	t, err := ds.Table()
	if err != nil {
		return Facets{}, err
	}
	out := Facets{Options: make(map[domain.Field][]string, len(domain.FacetFields))}
	for _, f := range domain.FacetFields {
		out.Options[f] = analytics.FacetOptions(t, f)
	}
	if yr, ok := analytics.FullYearRange(t); ok {
		out.Years = &yr
	}
	return out, nil
}

// Summary returns the headline counters of the filtered table.
func (ds *DataService) Summary(ctx context.Context, f analytics.Filter) (domain.Summary, error) {
	res, err := query(ctx, ds, "summary", &f, func(t domain.Table) ([]domain.Summary, error) {
		return []domain.Summary{analytics.Summarize(t)}, nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return res.Items[0], nil
}

// Records returns the filtered records in table order.
func (ds *DataService) Records(ctx context.Context, f analytics.Filter) (Result[domain.Record], error) {
	return query(ctx, ds, "records", &f, func(t domain.Table) ([]domain.Record, error) {
		return t.Records, nil
	})
}

// CountByYear counts filtered records per year.
func (ds *DataService) CountByYear(ctx context.Context, f analytics.Filter, order domain.YearOrder) (Result[domain.YearCount], error) {
	switch order {
	case "":
		order = domain.OrderByYear
	case domain.OrderByYear, domain.OrderByCount:
	default:
		return Result[domain.YearCount]{}, fmt.Errorf("%w: unknown order %q", ErrInvalidInput, order)
	}
	return query(ctx, ds, "count_by_year", &f, func(t domain.Table) ([]domain.YearCount, error) {
		return analytics.CountByYear(t, order), nil
	})
}

// CountByCategory counts filtered records per value of field, folding small
// categories into "Others".
func (ds *DataService) CountByCategory(ctx context.Context, f analytics.Filter, field domain.Field) (Result[domain.CategoryCount], error) {
	return query(ctx, ds, "count_by_category", &f, func(t domain.Table) ([]domain.CategoryCount, error) {
		return analytics.CountByCategory(t, field)
	})
}

// CountByField counts filtered records per value of field.
func (ds *DataService) CountByField(ctx context.Context, f analytics.Filter, field domain.Field) (Result[domain.CategoryCount], error) {
	return query(ctx, ds, "count_by_field", &f, func(t domain.Table) ([]domain.CategoryCount, error) {
		return analytics.CountByField(t, field)
	})
}

// CountByCountryYear counts filtered records per (country, year).
func (ds *DataService) CountByCountryYear(ctx context.Context, f analytics.Filter) (Result[domain.CountryYearCount], error) {
	return query(ctx, ds, "count_by_country_year", &f, func(t domain.Table) ([]domain.CountryYearCount, error) {
		return analytics.CountByCountryYear(t), nil
	})
}

// TopByCostImpact returns the n filtered records with the highest score.
func (ds *DataService) TopByCostImpact(ctx context.Context, f analytics.Filter, n int) (Result[domain.Record], error) {
	if n < 0 {
		return Result[domain.Record]{}, fmt.Errorf("%w: n must not be negative", ErrInvalidInput)
	}
	return query(ctx, ds, "top_cost_impact", &f, func(t domain.Table) ([]domain.Record, error) {
		return analytics.TopByCostImpact(t, n)
	})
}

// AverageByGroup averages valueField per value of groupField.
func (ds *DataService) AverageByGroup(ctx context.Context, f analytics.Filter, groupField, valueField domain.Field) (Result[domain.GroupMean], error) {
	return query(ctx, ds, "average_by_group", &f, func(t domain.Table) ([]domain.GroupMean, error) {
		return analytics.AverageByGroup(t, groupField, valueField)
	})
}

// Search returns the records whose field contains q, ignoring case.
func (ds *DataService) Search(ctx context.Context, q string, field domain.Field) (Result[domain.Record], error) {
	return query(ctx, ds, "search", nil, func(t domain.Table) ([]domain.Record, error) {
		found, err := analytics.Search(t, q, field)
		if err != nil {
			return nil, err
		}
		return found.Records, nil
	})
}

// Compare projects the selected records side by side.
func (ds *DataService) Compare(ctx context.Context, in CompareInput) (domain.Comparison, error) {
	if len(in.Names) > 0 && len(in.IDs) > 0 {
		return domain.Comparison{}, fmt.Errorf("%w: select records by name or by id, not both", ErrInvalidInput)
	}

	res, err := query(ctx, ds, "compare", nil, func(t domain.Table) ([]domain.Comparison, error) {
		var c domain.Comparison
		var err error
		if len(in.IDs) > 0 {
			c, err = analytics.CompareIDs(t, in.IDs)
		} else {
			c, err = analytics.Compare(t, in.Names)
		}
		if err != nil {
			return nil, err
		}
		if len(c.Ambiguous) > 0 {
			ds.logger.InfoContext(ctx, "comparison names match several records",
				slog.Any("names", c.Ambiguous))
		}
		return []domain.Comparison{c}, nil
	})
	if err != nil {
		return domain.Comparison{}, err
	}
	return res.Items[0], nil
}

// Export encodes the filtered table.
func (ds *DataService) Export(ctx context.Context, f analytics.Filter, format ExportFormat) (Export, error) {
	var out Export
	switch format {
	case "", ExportCSV:
		format = ExportCSV
		out.ContentType = "text/csv; charset=utf-8"
	case ExportXLSX:
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return Export{}, fmt.Errorf("%w: unknown export format %q", ErrInvalidInput, format)
	}
	out.Filename = "regulations." + string(format)

	res, err := query(ctx, ds, "export_"+string(format), &f, func(t domain.Table) ([]domain.Record, error) {
		var buf bytes.Buffer
		var err error
		if format == ExportXLSX {
			err = exporter.WriteXLSX(&buf, t)
		} else {
			err = exporter.WriteCSV(&buf, t, ds.export)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", format, err)
		}
		out.Data = buf.Bytes()
		return t.Records, nil
	})
	if err != nil {
		return Export{}, err
	}
	out.Rows = res.Count
	return out, nil
}
