package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"
)

func TestMetrics_ObserveSimulation(t *testing.T) {
	m := NewMetrics("")

	sim := &engine.Simulation{
		Status: models.SimulationStatusCompleted,
		IntervalReports: []models.SimulationReport{
			{SuccessfulTrades: 10, FailedTrades: 5},
			{SuccessfulTrades: 7, FailedTrades: 3},
		},
	}
	m.ObserveSimulation(sim, 250*time.Millisecond, nil)

	aborted := &engine.Simulation{Status: models.SimulationStatusRunning}
	m.ObserveSimulation(aborted, time.Millisecond, errors.New("invalid decimal"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IntervalsProcessed))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.TradesTotal.WithLabelValues("successful")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.TradesTotal.WithLabelValues("failed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveFeeCollection(nil)
	m.ObserveFeeCollection(errors.New("timeout"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_collector_fee_collections_total{status="ok"} 1`)
	assert.Contains(t, string(body), `test_collector_fee_collections_total{status="error"} 1`)
}
