package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"regpulse/internal/config"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/services"
	"regpulse/internal/shared/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dataset.Path = testutil.WriteSampleCSV(t)
	cfg.Security.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(a *Application, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication_Routes(t *testing.T) {
	a := newTestApplication(t, testConfig(t))
	require.NoError(t, a.LoadDataset(context.Background()))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/api/health", "", http.StatusOK},
		{"ready", http.MethodGet, "/api/health/ready", "", http.StatusOK},
		{"live", http.MethodGet, "/api/health/live", "", http.StatusOK},
		{"trailing slash", http.MethodGet, "/api/health/live/", "", http.StatusOK},
		{"version", http.MethodGet, "/api/version", "", http.StatusOK},
		{"features", http.MethodGet, "/api/data/features", "", http.StatusOK},
		{"facets", http.MethodGet, "/api/data/facets", "", http.StatusOK},
		{"records", http.MethodPost, "/api/data/records", `{"facets":{"country":["US"]}}`, http.StatusOK},
		{"by year", http.MethodPost, "/api/data/aggregates/by-year", "", http.StatusOK},
		{"bad field", http.MethodPost, "/api/data/aggregates/by-category/colour", "", http.StatusBadRequest},
		{"search", http.MethodGet, "/api/data/search?q=a", "", http.StatusOK},
		{"export", http.MethodPost, "/api/data/export?format=csv", "", http.StatusOK},
		{"not found", http.MethodGet, "/api/nope", "", http.StatusNotFound},
		{"method not allowed", http.MethodDelete, "/api/data/records", "", http.StatusMethodNotAllowed},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNewApplication_EndToEnd(t *testing.T) {
	a := newTestApplication(t, testConfig(t))
	require.NoError(t, a.LoadDataset(context.Background()))

	rec := serve(a, http.MethodPost, "/api/data/records", `{"facets":{"country":["US"]}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var records struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Count int  `json:"count"`
		Empty bool `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Equal(t, 2, records.Count)
	assert.False(t, records.Empty)
	require.Len(t, records.Items, 2)
	assert.Equal(t, "A", records.Items[0].Name)
	assert.Equal(t, "B", records.Items[1].Name)

	rec = serve(a, http.MethodPost, "/api/data/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Record-Count"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Regulation Name,"), rec.Body.String())

	metrics := serve(a, http.MethodGet, "/metrics", "")
	assert.Contains(t, metrics.Body.String(), "http_requests")
}

func TestNewApplication_ReadyOnlyAfterLoad(t *testing.T) {
	a := newTestApplication(t, testConfig(t))

	assert.Equal(t, http.StatusServiceUnavailable, serve(a, http.MethodGet, "/api/health/ready", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(a, http.MethodGet, "/api/data/features", "").Code)

	require.NoError(t, a.LoadDataset(context.Background()))
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health/ready", "").Code)
}

func TestNewApplication_CORS(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AllowedOrigins = []string{"http://dashboard.local"}
	a := newTestApplication(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/data/records", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	a := newTestApplication(t, cfg)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health/live", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(a, http.MethodGet, "/api/health/live", "").Code)
}

func TestNewApplication_BodyLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxBodyBytes = 16
	a := newTestApplication(t, cfg)
	require.NoError(t, a.LoadDataset(context.Background()))

	rec := serve(a, http.MethodPost, "/api/data/records", `{"facets":{"country":["US","FR","DE"]}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNewDatasetLoader(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("csv with delimiter", func(t *testing.T) {
		cfg := config.Default()
		cfg.Dataset.Path = "data/regs.txt"
		cfg.Dataset.Delimiter = ";"

		loader, src, err := NewDatasetLoader(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.NotNil(t, loader)
		assert.Equal(t, dataprocessing.Source{Path: "data/regs.txt", Delimiter: ';'}, src)
	})

	t.Run("sheets", func(t *testing.T) {
		cfg := config.Default()
		cfg.Dataset.Format = config.FormatSheets
		cfg.Sheets.SpreadsheetID = "sheet-1"
		cfg.Sheets.APIKey = "key"

		_, src, err := NewDatasetLoader(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, dataprocessing.FormatSheets, src.Format)
		assert.Equal(t, "sheet-1", src.SpreadsheetID)
		assert.Equal(t, config.DefaultSheetsRange, src.Range)
	})
}

func TestExportOptions(t *testing.T) {
	opts := ExportOptions(config.ExportConfig{Delimiter: "\t", BOM: true})
	assert.Equal(t, '\t', opts.Delimiter)
	assert.True(t, opts.BOMPrefix)
}

func TestServe_MissingDatasetIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")
	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplication(context.Background(), cfg, logger)
	require.NoError(t, err)

	err = a.Serve(context.Background())
	assert.ErrorIs(t, err, services.ErrDatasetUnavailable)
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	logger, logs := testutil.NewTestLogger(t)
	a, err := NewApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	assert.True(t, logs.ContainsMessage("Application shutdown complete"))
	assert.True(t, a.DataService.Status().Loaded)
}
