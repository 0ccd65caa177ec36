package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"custody-ledger/internal/domain"
)

// DefaultGatewayTimeout bounds a single custody call.
const DefaultGatewayTimeout = 30 * time.Second

// GatewayExecutor implements Executor against a custody gateway speaking
// JSON-RPC 2.0. Custody calls are never retried here: the ledger treats
// any failure as a failed transfer and compensates, so a blind retry
// could double-move funds.
type GatewayExecutor struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

var _ Executor = (*GatewayExecutor)(nil)

// GatewayOption configures GatewayExecutor.
type GatewayOption func(*GatewayExecutor)

// WithGatewayTimeout sets HTTP client timeout.
func WithGatewayTimeout(d time.Duration) GatewayOption {
	return func(g *GatewayExecutor) {
		g.client.Timeout = d
	}
}

// WithGatewayHTTPClient sets custom http.Client.
func WithGatewayHTTPClient(client *http.Client) GatewayOption {
	return func(g *GatewayExecutor) {
		g.client = client
	}
}

// NewGatewayExecutor creates a custody gateway client.
func NewGatewayExecutor(endpoint string, opts ...GatewayOption) *GatewayExecutor {
	g := &GatewayExecutor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultGatewayTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Pull draws assets from a principal into custody.
func (g *GatewayExecutor) Pull(ctx context.Context, from domain.Principal, asset domain.AssetID, amount uint64) error {
	return g.call(ctx, "custodyPull", from, asset, amount)
}

// Send releases assets from custody to a principal.
func (g *GatewayExecutor) Send(ctx context.Context, to domain.Principal, asset domain.AssetID, amount uint64) error {
	return g.call(ctx, "custodySend", to, asset, amount)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// transferParams is the wire shape of a custody movement request.
type transferParams struct {
	Principal string `json:"principal"`
	Asset     string `json:"asset"`
	Amount    uint64 `json:"amount"`
}

func (g *GatewayExecutor) call(ctx context.Context, method string, principal domain.Principal, asset domain.AssetID, amount uint64) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      g.requestID.Add(1),
		Method:  method,
		Params: []interface{}{
			transferParams{
				Principal: string(principal),
				Asset:     string(asset),
				Amount:    amount,
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrTransferFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d: %s", domain.ErrTransferFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("%w: unmarshal response: %v", domain.ErrTransferFailed, err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, rpcResp.Error)
	}

	return nil
}
