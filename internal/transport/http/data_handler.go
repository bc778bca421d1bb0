package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/middleware"
	"regpulse/internal/services"
	"regpulse/pkg/contracts/domain"
)

// DefaultTopN is the number of records returned by top-cost-impact when n is omitted.
const DefaultTopN = 10

// maxTopN bounds the n query parameter.
const maxTopN = 10000

// DataHandler serves the dashboard query API under /api/data.
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.Validator
	params       *middleware.QueryParamValidator
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
		validator:    middleware.NewValidator(logger),
		params:       middleware.NewQueryParamValidator(errorHandler),
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "application/json"))

	r.Get("/features", h.GetFeatures)
	r.Get("/facets", h.GetFacets)
	r.Get("/summary", h.GetSummary)
	r.Post("/summary", h.GetSummary)
	r.Post("/records", h.GetRecords)
	r.Get("/search", h.Search)
	r.Post("/compare", h.Compare)
	r.Post("/export", h.Export)

	r.Route("/aggregates", func(r chi.Router) {
		r.Post("/by-year", h.CountByYear)
		r.With(h.FieldCtx).Post("/by-category/{field}", h.CountByCategory)
		r.With(h.FieldCtx).Post("/by-field/{field}", h.CountByField)
		r.Post("/by-country-year", h.CountByCountryYear)
		r.Post("/top-cost-impact", h.TopByCostImpact)
		r.Post("/average", h.AverageByGroup)
	})

	return r
}

type fieldCtxKey struct{}

// FieldCtx validates the {field} path parameter and stores it in the context.
func (h *DataHandler) FieldCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		field := domain.Field(chi.URLParam(r, "field"))
		if !field.Valid() {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("field", fmt.Sprintf("unknown column %q", field)))
			return
		}
		ctx := contextWithField(r.Context(), field)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetFeatures handles GET /api/data/features
func (h *DataHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetFacets handles GET /api/data/facets
func (h *DataHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, facets)
}

// GetSummary handles GET and POST /api/data/summary. GET summarises the
// whole table; POST accepts a FilterRequest.
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), req.Filter())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// GetRecords handles POST /api/data/records
func (h *DataHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	respond(w, r, h, func() (services.Result[domain.Record], error) {
		return h.service.Records(r.Context(), req.Filter())
	})
}

// CountByYear handles POST /api/data/aggregates/by-year?order=year|count
func (h *DataHandler) CountByYear(w http.ResponseWriter, r *http.Request) {
	order, ok := h.params.ValidateEnum(w, r, "order",
		[]string{string(domain.OrderByYear), string(domain.OrderByCount)}, string(domain.OrderByYear))
	if !ok {
		return
	}
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	respond(w, r, h, func() (services.Result[domain.YearCount], error) {
		return h.service.CountByYear(r.Context(), req.Filter(), domain.YearOrder(order))
	})
}

// CountByCategory handles POST /api/data/aggregates/by-category/{field}
func (h *DataHandler) CountByCategory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	field := fieldFromContext(r.Context())
	respond(w, r, h, func() (services.Result[domain.CategoryCount], error) {
		return h.service.CountByCategory(r.Context(), req.Filter(), field)
	})
}

// CountByField handles POST /api/data/aggregates/by-field/{field}
func (h *DataHandler) CountByField(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	field := fieldFromContext(r.Context())
	respond(w, r, h, func() (services.Result[domain.CategoryCount], error) {
		return h.service.CountByField(r.Context(), req.Filter(), field)
	})
}

// CountByCountryYear handles POST /api/data/aggregates/by-country-year
func (h *DataHandler) CountByCountryYear(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	respond(w, r, h, func() (services.Result[domain.CountryYearCount], error) {
		return h.service.CountByCountryYear(r.Context(), req.Filter())
	})
}

// TopByCostImpact handles POST /api/data/aggregates/top-cost-impact?n=
func (h *DataHandler) TopByCostImpact(w http.ResponseWriter, r *http.Request) {
	n, ok := h.params.ValidateInt(w, r, "n", 0, maxTopN, DefaultTopN)
	if !ok {
		return
	}
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}
	respond(w, r, h, func() (services.Result[domain.Record], error) {
		return h.service.TopByCostImpact(r.Context(), req.Filter(), n)
	})
}

// AverageByGroup handles POST /api/data/aggregates/average
func (h *DataHandler) AverageByGroup(w http.ResponseWriter, r *http.Request) {
	var req AverageRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, h, func() (services.Result[domain.GroupMean], error) {
		return h.service.AverageByGroup(r.Context(), req.Filter(), req.GroupBy, req.Value)
	})
}

// Search handles GET /api/data/search?q=&field=
func (h *DataHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	field := domain.Field(r.URL.Query().Get("field"))
	if field != "" && !field.IsText() {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("field", fmt.Sprintf("%q is not a searchable column", field)))
		return
	}
	respond(w, r, h, func() (services.Result[domain.Record], error) {
		return h.service.Search(r.Context(), q, field)
	})
}

// compareResponse adds the list counters to a comparison.
type compareResponse struct {
	domain.Comparison
	Count int  `json:"count"`
	Empty bool `json:"empty"`
}

// Compare handles POST /api/data/compare
func (h *DataHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	c, err := h.service.Compare(r.Context(), req.Input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, compareResponse{
		Comparison: c,
		Count:      len(c.Rows),
		Empty:      len(c.Rows) == 0,
	})
}

// Export handles POST /api/data/export?format=csv|xlsx
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, ok := h.params.ValidateEnum(w, r, "format",
		[]string{string(services.ExportCSV), string(services.ExportXLSX)}, string(services.ExportCSV))
	if !ok {
		return
	}
	req, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}

	export, err := h.service.Export(r.Context(), req.Filter(), services.ExportFormat(format))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.Header().Set(middleware.RecordCountHeader, strconv.Itoa(export.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Data); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
}

func (h *DataHandler) decodeFilter(w http.ResponseWriter, r *http.Request) (FilterRequest, bool) {
	var req FilterRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return FilterRequest{}, false
	}
	return req, true
}

// fail maps a service error onto the API error taxonomy.
func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

// respond renders a list result or the mapped error. Generic methods are not
// allowed, so the handler is passed explicitly.
func respond[T any](w http.ResponseWriter, r *http.Request, h *DataHandler, fn func() (services.Result[T], error)) {
	res, err := fn()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// toAPIError maps service errors to API errors. Context errors and unknown
// errors pass through for the error handler to classify.
func toAPIError(err error) error {
	var featureErr *services.FeatureError
	switch {
	case errors.As(err, &featureErr) && errors.Is(err, services.ErrComparisonUnavailable):
		return apierrors.ComparisonUnavailable(string(featureErr.Feature))
	case errors.As(err, &featureErr):
		return apierrors.FeatureUnavailable(string(featureErr.Feature))
	case errors.Is(err, services.ErrComparisonUnavailable):
		return apierrors.ErrComparisonUnavailable
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidParameter, err.Error())
	case errors.Is(err, services.ErrDatasetUnavailable):
		return apierrors.ErrDatasetUnavailable
	}
	return err
}
