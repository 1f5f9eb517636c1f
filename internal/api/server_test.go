package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokensim/internal/ai"
	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) SummarizeSimulation(ctx context.Context, sim *engine.Simulation) (*ai.Summary, error) {
	args := m.Called(ctx, sim)
	if s, ok := args.Get(0).(*ai.Summary); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

const validBody = `{
	"name": "launch",
	"description": "two week launch",
	"token": {"name": "Test Token", "symbol": "TST", "burn_rate": 0.01, "airdrop_percentage": 5},
	"options": {"total_users": 25, "duration": 14, "interval_type": "daily", "valuation": {"model": "linear"}},
	"seed": 99
}`

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func createSimulation(t *testing.T, h http.Handler) engine.Simulation {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/simulations", validBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sim engine.Simulation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sim))
	return sim
}

func TestServer_Create(t *testing.T) {
	s := NewServer(Config{})
	h := s.Handler()

	sim := createSimulation(t, h)

	assert.Equal(t, "launch", sim.Name)
	assert.Equal(t, models.SimulationStatusCompleted, sim.Status)
	assert.Len(t, sim.IntervalReports, 14)
	require.NotNil(t, sim.Report)
	assert.Len(t, sim.Report.TokenDistribution, 25)
	assert.Equal(t, "TST", sim.Token.Symbol)
}

func TestServer_CreateErrors(t *testing.T) {
	h := NewServer(Config{}).Handler()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"name":`, "invalid request body"},
		{"unknown field", `{"name":"x","bogus":1}`, "invalid request body"},
		{"missing token", `{"name":"x","options":{"total_users":1}}`, "missing token"},
		{"missing options", `{"name":"x","token":{"name":"t"}}`, "missing simulation options"},
		{"missing token name", `{"name":"x","token":{},"options":{"total_users":1}}`, "missing token name"},
		{"missing total users", `{"name":"x","token":{"name":"t"},"options":{}}`, "missing total users"},
		{"missing name", `{"token":{"name":"t"},"options":{"total_users":1}}`, "missing simulation name"},
		{"too many users", `{"name":"x","token":{"name":"t"},"options":{"total_users":100001}}`, "validation failed"},
		{"hourly duration", `{"name":"x","token":{"name":"t"},"options":{"total_users":1,"interval_type":"hourly","duration":48}}`, "duration"},
		{"airdrop above 100", `{"name":"x","token":{"name":"t","airdrop_percentage":150},"options":{"total_users":1}}`, "airdrop percentage"},
		{"adoption past user limit", `{"name":"x","token":{"name":"t"},"options":{"total_users":100000,"duration":365,"adoption_rate":1}}`, "adoption rate grows the population"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/simulations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantMsg)
		})
	}
}

func TestServer_GetAndList(t *testing.T) {
	h := NewServer(Config{}).Handler()

	created := createSimulation(t, h)
	second := createSimulation(t, h)

	rec := do(t, h, http.MethodGet, "/simulations/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got engine.Simulation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.IntervalReports, 14)

	rec = do(t, h, http.MethodGet, "/simulations?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []engine.Simulation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Contains(t, []uuid.UUID{created.ID, second.ID}, list[0].ID)

	rec = do(t, h, http.MethodGet, "/simulations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/simulations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/simulations?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Summary(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := NewServer(Config{}).Handler()
		sim := createSimulation(t, h)

		rec := do(t, h, http.MethodGet, "/simulations/"+sim.ID.String()+"/summary", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("narrated", func(t *testing.T) {
		analyzer := &mockAnalyzer{}
		analyzer.On("SummarizeSimulation", mock.Anything, mock.AnythingOfType("*engine.Simulation")).
			Return(&ai.Summary{Summary: "stable", Risks: []string{"thin liquidity"}}, nil)
		h := NewServer(Config{Analyzer: analyzer}).Handler()
		sim := createSimulation(t, h)

		rec := do(t, h, http.MethodGet, "/simulations/"+sim.ID.String()+"/summary", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var summary ai.Summary
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
		assert.Equal(t, "stable", summary.Summary)
		analyzer.AssertExpectations(t)
	})

	t.Run("analyzer failure", func(t *testing.T) {
		analyzer := &mockAnalyzer{}
		analyzer.On("SummarizeSimulation", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
		h := NewServer(Config{Analyzer: analyzer}).Handler()
		sim := createSimulation(t, h)

		rec := do(t, h, http.MethodGet, "/simulations/"+sim.ID.String()+"/summary", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestServer_HealthAndMetrics(t *testing.T) {
	h := NewServer(Config{}).Handler()
	createSimulation(t, h)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tokensim_engine_simulations_total{status="completed"} 1`)
	assert.Contains(t, rec.Body.String(), "tokensim_engine_intervals_processed_total 14")
}

func TestServer_ListenAndServe(t *testing.T) {
	s := NewServer(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
