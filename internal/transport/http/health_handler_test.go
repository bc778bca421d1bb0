package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/services"
	"regpulse/internal/shared/testutil"
)

type stubDataset struct {
	status services.DatasetStatus
}

func (s stubDataset) Status() services.DatasetStatus { return s.status }

func newHealthRouter(t *testing.T, status services.DatasetStatus) *HealthHandler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewHealthHandler(services.NewHealthService(stubDataset{status: status}, logger), logger)
}

func TestHealthHandler_Routes(t *testing.T) {
	loaded := services.DatasetStatus{Loaded: true, Records: 3, Source: "regulations.csv"}
	failed := services.DatasetStatus{Error: "open regulations.csv: no such file"}

	tests := []struct {
		name       string
		status     services.DatasetStatus
		path       string
		wantCode   int
		wantStatus string
	}{
		{"health when loaded", loaded, "/", http.StatusOK, "ok"},
		{"health when not loaded", failed, "/", http.StatusOK, "degraded"},
		{"ready when loaded", loaded, "/ready", http.StatusOK, "ready"},
		{"not ready when load failed", failed, "/ready", http.StatusServiceUnavailable, "not_ready"},
		{"live regardless of dataset", failed, "/live", http.StatusOK, "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHealthRouter(t, tt.status)

			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantCode, rec.Code)
			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	h := newHealthRouter(t, services.DatasetStatus{Loaded: true})

	rec := httptest.NewRecorder()
	h.Version(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "go_version")
}
