package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/dataprocessing"
	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts"
)

func TestHealthServiceReadiness(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ds := NewDataService(logger)
	hs := NewHealthService(ds, logger)
	ctx := context.Background()

	status, ready := hs.ReadinessCheck(ctx)
	assert.False(t, ready)
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "degraded", hs.HealthCheck(ctx).Status)

	ds.SetTable(testutil.SampleTable(dataprocessing.CostImpactScore), "fixture")

	status, ready = hs.ReadinessCheck(ctx)
	assert.True(t, ready)
	assert.Equal(t, "ready", status.Status)

	data, ok := status.Services["data"].(ServiceHealth)
	require.True(t, ok)
	require.NotNil(t, data.Dataset)
	assert.Equal(t, 3, data.Dataset.Records)
	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)
}

func TestHealthServiceLoadFailureMessage(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ds := NewDataService(logger)
	_ = ds.Load(context.Background(), dataprocessing.NewLoader(logger, nil),
		dataprocessing.Source{Path: t.TempDir() + "/absent.csv"})

	status, ready := NewHealthService(ds, logger).ReadinessCheck(context.Background())
	assert.False(t, ready)
	data := status.Services["data"].(ServiceHealth)
	assert.Contains(t, data.Message, "dataset load failed")
}

func TestHealthServiceNilDataset(t *testing.T) {
	hs := NewHealthService(nil, nil)
	_, ready := hs.ReadinessCheck(context.Background())
	assert.False(t, ready)
}

func TestHealthServiceLiveness(t *testing.T) {
	hs := NewHealthService(nil, nil)
	status := hs.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthServiceVersion(t *testing.T) {
	v := NewHealthService(nil, nil).Version()

	assert.Equal(t, contracts.Version, v["version"])
	assert.Equal(t, contracts.APIVersion, v["api_version"])
	assert.Contains(t, v, "go_version")
	assert.Contains(t, v, "platform")
}
