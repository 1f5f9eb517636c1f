package ethereum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/data/collector"
	"github.com/songzhibin97/tokensim/internal/utils/request"
)

const defaultBaseURL = "https://api.etherscan.io"

var gwei = decimal.NewFromInt(1_000_000_000)

// EtherscanFeeSource reads the gas price from the Etherscan proxy API
type EtherscanFeeSource struct {
	apiKey     string
	baseURL    string
	httpClient *resty.Client
}

func NewEtherscanFeeSource(apiKey, baseURL string) *EtherscanFeeSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &EtherscanFeeSource{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: request.Request,
	}
}

func (e *EtherscanFeeSource) Name() string {
	return "ethereum"
}

// CollectFee returns the gas price in gwei
func (e *EtherscanFeeSource) CollectFee(ctx context.Context) (decimal.Decimal, error) {
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module": "proxy",
			"action": "eth_gasPrice",
			"apikey": e.apiKey,
		}).
		Get(e.baseURL + "/api")
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", collector.ErrInvalidAPIRequest, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return decimal.Zero, collector.ErrInvalidAPIKey
	}

	var result struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil || result.Result == nil {
		return decimal.Zero, fmt.Errorf("%w: status %d", collector.ErrInvalidAPIRequest, resp.StatusCode())
	}

	wei, err := parseWei(*result.Result)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", collector.ErrInvalidAPIConversion, *result.Result)
	}

	return decimal.NewFromUint64(wei).Div(gwei), nil
}

// parseWei accepts a 0x prefixed hex quantity or a decimal string.
func parseWei(s string) (uint64, error) {
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

var _ collector.FeeSource = (*EtherscanFeeSource)(nil)
