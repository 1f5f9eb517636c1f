package ethereum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokensim/internal/data/collector"
)

func setupTestServer(t *testing.T, status int, body string) (*httptest.Server, *EtherscanFeeSource) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "proxy", r.URL.Query().Get("module"))
		assert.Equal(t, "eth_gasPrice", r.URL.Query().Get("action"))
		assert.Equal(t, "api-key", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))

	source := NewEtherscanFeeSource("api-key", server.URL)
	source.httpClient = resty.NewWithClient(server.Client())

	return server, source
}

func TestEtherscanFeeSource_Name(t *testing.T) {
	assert.Equal(t, "ethereum", NewEtherscanFeeSource("", "").Name())
	assert.Equal(t, defaultBaseURL, NewEtherscanFeeSource("", "").baseURL)
}

func TestEtherscanFeeSource_CollectFee(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{
			name:   "hex gas price",
			status: http.StatusOK,
			body:   `{"result":"0x430e23400"}`,
			want:   "18",
		},
		{
			name:   "decimal gas price",
			status: http.StatusOK,
			body:   `{"result":"1500000000"}`,
			want:   "1.5",
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{}`,
			wantErr: collector.ErrInvalidAPIKey,
		},
		{
			name:    "bad request without body",
			status:  http.StatusBadRequest,
			body:    ``,
			wantErr: collector.ErrInvalidAPIRequest,
		},
		{
			name:    "unparsable result",
			status:  http.StatusOK,
			body:    `{"result":"Invalid API Key"}`,
			wantErr: collector.ErrInvalidAPIConversion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, source := setupTestServer(t, tt.status, tt.body)
			defer server.Close()

			fee, err := source.CollectFee(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(fee), "got %s", fee)
		})
	}
}
