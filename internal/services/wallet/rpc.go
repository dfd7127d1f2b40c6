package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	methodRequestAccounts = "eth_requestAccounts"
	methodSendTransaction = "eth_sendTransaction"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCProvider reaches a wallet through its JSON-RPC endpoint, for example a
// desktop wallet exposing the injected-provider methods on localhost.
// Wallet calls wait on the user, so the client carries no timeout of its
// own; callers bound them through ctx.
type RPCProvider struct {
	url        string
	metaMask   bool
	blocto     bool
	httpClient *http.Client
	logger     *slog.Logger
	nextID     atomic.Uint64
}

// Ensure RPCProvider implements Provider interface
var _ Provider = (*RPCProvider)(nil)

// NewRPCProvider creates a provider for the wallet RPC at url. The flags
// describe the wallet the way the injected provider would advertise itself.
func NewRPCProvider(url string, metaMask, blocto bool, logger *slog.Logger) *RPCProvider {
	return &RPCProvider{
		url:        url,
		metaMask:   metaMask,
		blocto:     blocto,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (p *RPCProvider) IsMetaMask() bool { return p.metaMask }

func (p *RPCProvider) IsBlocto() bool { return p.blocto }

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, methodRequestAccounts, []any{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) Sign(ctx context.Context, method string, params []any) (string, error) {
	var sig string
	if err := p.call(ctx, method, params, &sig); err != nil {
		return "", err
	}
	return sig, nil
}

func (p *RPCProvider) SendTransaction(ctx context.Context, tx Transaction) (string, error) {
	var hash string
	if err := p.call(ctx, methodSendTransaction, []any{tx}, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// Ping checks the wallet endpoint answers JSON-RPC at all.
func (p *RPCProvider) Ping(ctx context.Context) error {
	var chainID string
	return p.call(ctx, "eth_chainId", []any{}, &chainID)
}

func (p *RPCProvider) call(ctx context.Context, method string, params []any, result any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      p.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach wallet: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wallet request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	p.logger.Debug("Wallet RPC call",
		"method", method,
		"id", req.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"failed", rpcResp.Error != nil)

	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("unexpected %s result: %w", method, err)
	}
	return nil
}
