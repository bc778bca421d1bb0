package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regpulse/internal/analytics"
	apierrors "regpulse/internal/errors"
	"regpulse/internal/services"
	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

// MockDataService is a testify mock of DataServiceInterface.
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) Info(ctx context.Context) (services.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(services.DatasetInfo), args.Error(1)
}

func (m *MockDataService) Facets(ctx context.Context) (services.Facets, error) {
	args := m.Called()
	return args.Get(0).(services.Facets), args.Error(1)
}

func (m *MockDataService) Summary(ctx context.Context, f analytics.Filter) (domain.Summary, error) {
	args := m.Called(f)
	return args.Get(0).(domain.Summary), args.Error(1)
}

func (m *MockDataService) Records(ctx context.Context, f analytics.Filter) (services.Result[domain.Record], error) {
	args := m.Called(f)
	return args.Get(0).(services.Result[domain.Record]), args.Error(1)
}

func (m *MockDataService) CountByYear(ctx context.Context, f analytics.Filter, order domain.YearOrder) (services.Result[domain.YearCount], error) {
	args := m.Called(f, order)
	return args.Get(0).(services.Result[domain.YearCount]), args.Error(1)
}

func (m *MockDataService) CountByCategory(ctx context.Context, f analytics.Filter, field domain.Field) (services.Result[domain.CategoryCount], error) {
	args := m.Called(f, field)
	return args.Get(0).(services.Result[domain.CategoryCount]), args.Error(1)
}

func (m *MockDataService) CountByField(ctx context.Context, f analytics.Filter, field domain.Field) (services.Result[domain.CategoryCount], error) {
	args := m.Called(f, field)
	return args.Get(0).(services.Result[domain.CategoryCount]), args.Error(1)
}

func (m *MockDataService) CountByCountryYear(ctx context.Context, f analytics.Filter) (services.Result[domain.CountryYearCount], error) {
	args := m.Called(f)
	return args.Get(0).(services.Result[domain.CountryYearCount]), args.Error(1)
}

func (m *MockDataService) TopByCostImpact(ctx context.Context, f analytics.Filter, n int) (services.Result[domain.Record], error) {
	args := m.Called(f, n)
	return args.Get(0).(services.Result[domain.Record]), args.Error(1)
}

func (m *MockDataService) AverageByGroup(ctx context.Context, f analytics.Filter, groupField, valueField domain.Field) (services.Result[domain.GroupMean], error) {
	args := m.Called(f, groupField, valueField)
	return args.Get(0).(services.Result[domain.GroupMean]), args.Error(1)
}

func (m *MockDataService) Search(ctx context.Context, q string, field domain.Field) (services.Result[domain.Record], error) {
	args := m.Called(q, field)
	return args.Get(0).(services.Result[domain.Record]), args.Error(1)
}

func (m *MockDataService) Compare(ctx context.Context, in services.CompareInput) (domain.Comparison, error) {
	args := m.Called(in)
	return args.Get(0).(domain.Comparison), args.Error(1)
}

func (m *MockDataService) Export(ctx context.Context, f analytics.Filter, format services.ExportFormat) (services.Export, error) {
	args := m.Called(f, format)
	return args.Get(0).(services.Export), args.Error(1)
}

func newTestHandler(t *testing.T) (*MockDataService, http.Handler) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	svc := new(MockDataService)
	t.Cleanup(func() { svc.AssertExpectations(t) })
	h := NewDataHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	return svc, h.Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func usFilter() analytics.Filter {
	return analytics.Filter{Facets: analytics.FacetSelections{domain.FieldCountry: {"US"}}}
}

func TestDataHandler_GetFeatures(t *testing.T) {
	svc, h := newTestHandler(t)
	svc.On("Info").Return(services.DatasetInfo{
		Records:  3,
		Features: map[domain.Field]bool{domain.FieldCountry: true},
		Columns:  []domain.Field{domain.FieldCountry},
		Source:   "regulations.csv",
	}, nil)

	rec := do(t, h, http.MethodGet, "/features", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 3, body["records"])
	assert.Equal(t, map[string]interface{}{"country": true}, body["features"])
}

func TestDataHandler_GetRecords(t *testing.T) {
	svc, h := newTestHandler(t)
	a := domain.Record{ID: 0, Name: "A", Country: "US"}
	b := domain.Record{ID: 1, Name: "B", Country: "US"}
	svc.On("Records", usFilter()).Return(services.Result[domain.Record]{
		Items: []domain.Record{a, b}, Count: 2,
	}, nil)

	rec := do(t, h, http.MethodPost, "/records", `{"facets":{"country":["US"]}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, false, body["empty"])
	assert.Len(t, body["items"], 2)
}

func TestDataHandler_EmptyBodySelectsEverything(t *testing.T) {
	svc, h := newTestHandler(t)
	svc.On("Records", analytics.Filter{}).Return(services.Result[domain.Record]{
		Items: []domain.Record{}, Empty: true,
	}, nil)

	rec := do(t, h, http.MethodPost, "/records", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["empty"])
}

func TestDataHandler_YearRangeFilter(t *testing.T) {
	svc, h := newTestHandler(t)
	want := analytics.Filter{Years: &domain.YearRange{Min: 2020, Max: 2020}}
	svc.On("Summary", want).Return(domain.Summary{Records: 2}, nil)

	rec := do(t, h, http.MethodPost, "/summary", `{"years":{"min":2020,"max":2020}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["records"])
}

func TestDataHandler_RequestValidation(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantField  string
	}{
		{
			name:       "unknown facet",
			method:     http.MethodPost,
			target:     "/records",
			body:       `{"facets":{"description":["x"]}}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "facets[description]",
		},
		{
			name:       "inverted year range",
			method:     http.MethodPost,
			target:     "/records",
			body:       `{"years":{"min":2022,"max":2020}}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "years.max",
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			target:     "/records",
			body:       `{"facets":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "average without group",
			method:     http.MethodPost,
			target:     "/aggregates/average",
			body:       `{"value":"costImpactScore"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "groupBy",
		},
		{
			name:       "average by numeric group",
			method:     http.MethodPost,
			target:     "/aggregates/average",
			body:       `{"groupBy":"year","value":"costImpactScore"}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "groupBy",
		},
		{
			name:       "compare with names and ids",
			method:     http.MethodPost,
			target:     "/compare",
			body:       `{"names":["A","B"],"ids":[0,1]}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "names",
		},
		{
			name:       "compare without selection",
			method:     http.MethodPost,
			target:     "/compare",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown year order",
			method:     http.MethodPost,
			target:     "/aggregates/by-year?order=name",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative top n",
			method:     http.MethodPost,
			target:     "/aggregates/top-cost-impact?n=-1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non numeric top n",
			method:     http.MethodPost,
			target:     "/aggregates/top-cost-impact?n=ten",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown path field",
			method:     http.MethodPost,
			target:     "/aggregates/by-field/colour",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "search numeric field",
			method:     http.MethodGet,
			target:     "/search?q=1&field=year",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown export format",
			method:     http.MethodPost,
			target:     "/export?format=pdf",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestHandler(t)

			rec := do(t, h, tt.method, tt.target, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			assert.EqualValues(t, tt.wantStatus, body["status"])
			if tt.wantField != "" {
				errs, ok := body["errors"].([]interface{})
				require.True(t, ok, "expected per-field errors in %v", body)
				var fields []string
				for _, e := range errs {
					fields = append(fields, e.(map[string]interface{})["field"].(string))
				}
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}

func TestDataHandler_UnsupportedContentType(t *testing.T) {
	_, h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("country=US"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, apierrors.CodeUnsupportedMediaType, decodeBody(t, rec)["error_code"])
}

func TestDataHandler_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantFeature string
	}{
		{
			name:        "missing column",
			err:         &services.FeatureError{Feature: domain.FieldYear, Err: services.ErrFeatureUnavailable},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    apierrors.CodeFeatureUnavailable,
			wantFeature: "year",
		},
		{
			name:        "comparison without cost impact",
			err:         &services.FeatureError{Feature: domain.FieldCostImpactRaw, Err: services.ErrComparisonUnavailable},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    apierrors.CodeComparisonUnavailable,
			wantFeature: "costImpactRaw",
		},
		{
			name:       "invalid input",
			err:        fmt.Errorf("%w: unknown year order %q", services.ErrInvalidInput, "x"),
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.CodeInvalidParameter,
		},
		{
			name:       "dataset not loaded",
			err:        fmt.Errorf("%w: no table", services.ErrDatasetUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apierrors.CodeDatasetUnavailable,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, h := newTestHandler(t)
			svc.On("CountByYear", analytics.Filter{}, domain.OrderByYear).
				Return(services.Result[domain.YearCount]{}, tt.err)

			rec := do(t, h, http.MethodPost, "/aggregates/by-year", "")

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			if tt.wantFeature != "" {
				assert.Equal(t, tt.wantFeature, body["feature"])
			}
		})
	}
}

func TestDataHandler_Aggregates(t *testing.T) {
	t.Run("by year ordered by count", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("CountByYear", analytics.Filter{}, domain.OrderByCount).Return(services.Result[domain.YearCount]{
			Items: []domain.YearCount{{Year: 2020, Count: 2}, {Year: 2021, Count: 1}}, Count: 2,
		}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/by-year?order=count", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, decodeBody(t, rec)["count"])
	})

	t.Run("by category passes the path field", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("CountByCategory", usFilter(), domain.FieldRegulationType).Return(services.Result[domain.CategoryCount]{
			Items: []domain.CategoryCount{{Label: "Environmental", Count: 1}}, Count: 1,
		}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/by-category/regulationType", `{"facets":{"country":["US"]}}`)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("by field", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("CountByField", analytics.Filter{}, domain.FieldIndustry).
			Return(services.Result[domain.CategoryCount]{Items: []domain.CategoryCount{}, Empty: true}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/by-field/industry", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["empty"])
	})

	t.Run("by country and year", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("CountByCountryYear", analytics.Filter{}).Return(services.Result[domain.CountryYearCount]{
			Items: []domain.CountryYearCount{{Country: "US", Year: 2020, Count: 2}}, Count: 1,
		}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/by-country-year", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("top cost impact defaults n", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("TopByCostImpact", analytics.Filter{}, DefaultTopN).
			Return(services.Result[domain.Record]{Items: []domain.Record{}, Empty: true}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/top-cost-impact", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("top cost impact with n", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("TopByCostImpact", analytics.Filter{}, 3).
			Return(services.Result[domain.Record]{Items: []domain.Record{{ID: 0}}, Count: 1}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/top-cost-impact?n=3", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("average", func(t *testing.T) {
		svc, h := newTestHandler(t)
		svc.On("AverageByGroup", usFilter(), domain.FieldCountry, domain.FieldCostImpactAmount).
			Return(services.Result[domain.GroupMean]{Items: []domain.GroupMean{{Group: "US", Mean: 850, Count: 2}}, Count: 1}, nil)

		rec := do(t, h, http.MethodPost, "/aggregates/average",
			`{"facets":{"country":["US"]},"groupBy":"country","value":"costImpactAmount"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		items := decodeBody(t, rec)["items"].([]interface{})
		assert.EqualValues(t, 850, items[0].(map[string]interface{})["mean"])
	})
}

func TestDataHandler_Search(t *testing.T) {
	svc, h := newTestHandler(t)
	svc.On("Search", "a", domain.Field("")).Return(services.Result[domain.Record]{
		Items: []domain.Record{{ID: 0, Name: "A"}}, Count: 1,
	}, nil)

	rec := do(t, h, http.MethodGet, "/search?q=a", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])
}

func TestDataHandler_Compare(t *testing.T) {
	svc, h := newTestHandler(t)
	svc.On("Compare", services.CompareInput{Names: []string{"A", "B"}}).Return(domain.Comparison{
		Fields: []domain.Field{domain.FieldName, domain.FieldCostImpactScore},
		Rows: []domain.ComparisonRow{
			{ID: 0, Values: map[domain.Field]any{domain.FieldName: "A", domain.FieldCostImpactScore: 1}},
			{ID: 1, Values: map[domain.Field]any{domain.FieldName: "B", domain.FieldCostImpactScore: -1}},
		},
	}, nil)

	rec := do(t, h, http.MethodPost, "/compare", `{"names":["A","B"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, false, body["empty"])
	assert.Len(t, body["rows"], 2)
}

func TestDataHandler_Export(t *testing.T) {
	svc, h := newTestHandler(t)
	data := []byte("Regulation Name,Country\nA,US\n")
	svc.On("Export", usFilter(), services.ExportCSV).Return(services.Export{
		Data:        data,
		ContentType: "text/csv; charset=utf-8",
		Filename:    "regulations.csv",
		Rows:        1,
	}, nil)

	rec := do(t, h, http.MethodPost, "/export?format=csv", `{"facets":{"country":["US"]}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="regulations.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1", rec.Header().Get("X-Record-Count"))
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestDataHandler_FacetsAndSummary(t *testing.T) {
	svc, h := newTestHandler(t)
	svc.On("Facets").Return(services.Facets{
		Options: map[domain.Field][]string{domain.FieldCountry: {"FR", "US"}},
		Years:   &domain.YearRange{Min: 2020, Max: 2021},
	}, nil)
	svc.On("Summary", analytics.Filter{}).Return(domain.Summary{Records: 3, Industries: 2, Countries: 2, Regulations: 2}, nil)

	rec := do(t, h, http.MethodGet, "/facets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, map[string]interface{}{"min": float64(2020), "max": float64(2021)}, body["years"])

	rec = do(t, h, http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decodeBody(t, rec)["records"])
}

func TestToAPIError(t *testing.T) {
	plain := errors.New("plain")
	assert.Same(t, plain, toAPIError(plain))

	var apiErr *apierrors.APIError
	require.ErrorAs(t, toAPIError(services.ErrComparisonUnavailable), &apiErr)
	assert.Equal(t, apierrors.CodeComparisonUnavailable, apiErr.ErrorCode)
}
