package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/data/collector"
	"github.com/songzhibin97/tokensim/internal/utils/request"
)

const defaultRPCURL = "https://api.mainnet-beta.solana.com"

var lamportsPerSOL = decimal.NewFromInt(1_000_000_000)

// RPCFeeSource reads the signature fee from a Solana JSON-RPC node
type RPCFeeSource struct {
	rpcURL     string
	httpClient *resty.Client
}

func NewRPCFeeSource(rpcURL string) *RPCFeeSource {
	if rpcURL == "" {
		rpcURL = defaultRPCURL
	}
	return &RPCFeeSource{
		rpcURL:     rpcURL,
		httpClient: request.Request,
	}
}

func (s *RPCFeeSource) Name() string {
	return "solana"
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
}

// feeCalculator accepts the camelCase keys of the legacy RPC fee calculator
// and the snake_case keys some gateways emit.
type feeCalculator struct {
	LamportsPerSignature      *uint64 `json:"lamportsPerSignature"`
	LamportsPerSignatureSnake *uint64 `json:"lamports_per_signature"`
}

func (f *feeCalculator) lamports() *uint64 {
	if f == nil {
		return nil
	}
	if f.LamportsPerSignature != nil {
		return f.LamportsPerSignature
	}
	return f.LamportsPerSignatureSnake
}

type rpcResponse struct {
	Result struct {
		Value struct {
			FeeCalculator      *feeCalculator `json:"feeCalculator"`
			FeeCalculatorSnake *feeCalculator `json:"fee_calculator"`
		} `json:"value"`
	} `json:"result"`
}

func (r *rpcResponse) lamports() *uint64 {
	if l := r.Result.Value.FeeCalculator.lamports(); l != nil {
		return l
	}
	return r.Result.Value.FeeCalculatorSnake.lamports()
}

// CollectFee returns the fee of one signature in SOL
func (s *RPCFeeSource) CollectFee(ctx context.Context) (decimal.Decimal, error) {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "getLatestBlockhash"}).
		Post(s.rpcURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", collector.ErrInvalidAPIRequest, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return decimal.Zero, collector.ErrInvalidAPIKey
	}

	var result rpcResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return decimal.Zero, fmt.Errorf("%w: status %d", collector.ErrInvalidAPIRequest, resp.StatusCode())
	}

	lamports := result.lamports()
	if lamports == nil {
		// getLatestBlockhash on current nodes carries no fee calculator
		return decimal.Zero, fmt.Errorf("%w: missing lamportsPerSignature", collector.ErrInvalidAPIConversion)
	}

	return decimal.NewFromUint64(*lamports).Div(lamportsPerSOL), nil
}

var _ collector.FeeSource = (*RPCFeeSource)(nil)
