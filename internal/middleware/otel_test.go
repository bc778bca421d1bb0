package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"regpulse/internal/infrastructure"
	"regpulse/internal/shared/testutil"
)

type otelFixture struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	mw     *OTelMiddleware
}

func newOTelFixture(t *testing.T) otelFixture {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	logger, _ := testutil.NewTestLogger(t)
	mw, err := NewOTelMiddleware(&infrastructure.OTelProviders{
		TracerProvider: tp,
		MeterProvider:  mp,
		Tracer:         tp.Tracer("test"),
		Meter:          mp.Meter("test"),
		Logger:         logger,
	})
	require.NoError(t, err)
	return otelFixture{spans: spans, reader: reader, mw: mw}
}

func TestOTelMiddleware(t *testing.T) {
	f := newOTelFixture(t)

	var traceID string
	r := chi.NewRouter()
	r.Use(f.mw.Handler)
	r.Post("/api/data/aggregates/by-category/{field}", func(w http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/data/aggregates/by-category/country", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	ended := f.spans.Ended()
	require.Len(t, ended, 2)

	first := ended[0]
	assert.Equal(t, "POST /api/data/aggregates/by-category/{field}", first.Name())
	assert.Equal(t, first.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, codes.Unset, first.Status().Code, "4xx is a client error, not a span error")
	assert.Contains(t, first.Attributes(), attribute.Int("http.response.status_code", http.StatusUnprocessableEntity))

	assert.Equal(t, codes.Error, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	routes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("route")
				routes[route.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"/api/data/aggregates/by-category/{field}": 1,
		"/boom": 1,
	}, routes)
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", GetRealIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7", GetRealIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", GetRealIP(req))
}

func TestGetRoutePattern_Unmatched(t *testing.T) {
	assert.Equal(t, "unmatched", getRoutePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}
