package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, status int, response interface{}) (*httptest.Server, *PriceSource) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		err := json.NewEncoder(w).Encode(response)
		require.NoError(t, err)
	}))

	source := NewPriceSource("", "", false)
	source.client.BaseURL = server.URL
	source.client.HTTPClient = server.Client()

	return server, source
}

func TestPriceSource_Name(t *testing.T) {
	assert.Equal(t, "binance", NewPriceSource("", "", false).Name())
}

func TestPriceSource_CollectPrice(t *testing.T) {
	type tickerPrice struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}

	tests := []struct {
		name        string
		symbol      string
		status      int
		response    interface{}
		expectError bool
		expected    string
	}{
		{
			name:     "single ticker",
			symbol:   "BTCUSDT",
			status:   http.StatusOK,
			response: tickerPrice{Symbol: "BTCUSDT", Price: "42000.50000000"},
			expected: "42000.5",
		},
		{
			name:   "ticker list",
			symbol: "ETHUSDT",
			status: http.StatusOK,
			response: []tickerPrice{
				{Symbol: "BTCUSDT", Price: "42000.5"},
				{Symbol: "ETHUSDT", Price: "2500.25"},
			},
			expected: "2500.25",
		},
		{
			name:        "symbol missing",
			symbol:      "SOLUSDT",
			status:      http.StatusOK,
			response:    []tickerPrice{{Symbol: "BTCUSDT", Price: "1"}},
			expectError: true,
		},
		{
			name:        "bad price",
			symbol:      "BTCUSDT",
			status:      http.StatusOK,
			response:    tickerPrice{Symbol: "BTCUSDT", Price: "n/a"},
			expectError: true,
		},
		{
			name:        "api error",
			symbol:      "BTCUSDT",
			status:      http.StatusBadRequest,
			response:    map[string]interface{}{"code": -1121, "msg": "Invalid symbol."},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, source := setupTestServer(t, tt.status, tt.response)
			defer server.Close()

			price, err := source.CollectPrice(context.Background(), tt.symbol)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, price.String())
		})
	}
}
