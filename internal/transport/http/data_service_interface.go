package http

import (
	"context"

	"regpulse/internal/analytics"
	"regpulse/internal/services"
	"regpulse/pkg/contracts/domain"
)

// DataServiceInterface is the query surface the data handler depends on.
// *services.DataService implements it.
type DataServiceInterface interface {
	Info(ctx context.Context) (services.DatasetInfo, error)
	Facets(ctx context.Context) (services.Facets, error)
	Summary(ctx context.Context, f analytics.Filter) (domain.Summary, error)
	Records(ctx context.Context, f analytics.Filter) (services.Result[domain.Record], error)

	CountByYear(ctx context.Context, f analytics.Filter, order domain.YearOrder) (services.Result[domain.YearCount], error)
	CountByCategory(ctx context.Context, f analytics.Filter, field domain.Field) (services.Result[domain.CategoryCount], error)
	CountByField(ctx context.Context, f analytics.Filter, field domain.Field) (services.Result[domain.CategoryCount], error)
	CountByCountryYear(ctx context.Context, f analytics.Filter) (services.Result[domain.CountryYearCount], error)
	TopByCostImpact(ctx context.Context, f analytics.Filter, n int) (services.Result[domain.Record], error)
	AverageByGroup(ctx context.Context, f analytics.Filter, groupField, valueField domain.Field) (services.Result[domain.GroupMean], error)

	Search(ctx context.Context, q string, field domain.Field) (services.Result[domain.Record], error)
	Compare(ctx context.Context, in services.CompareInput) (domain.Comparison, error)
	Export(ctx context.Context, f analytics.Filter, format services.ExportFormat) (services.Export, error)
}

var _ DataServiceInterface = (*services.DataService)(nil)
