package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"pnodemon/config"
	"pnodemon/models"
)

// PRPCClient issues single JSON-RPC 2.0 calls to pNode addresses.
// Every failure mode (dial error, timeout, bad status, malformed body,
// rpc-level error) collapses to "no result": the monitoring pipeline
// treats nodes as possibly transiently unreachable rather than
// diagnosing cause. Retries, where wanted, belong to the caller.
type PRPCClient struct {
	cfg        *config.Config
	httpClient *http.Client
	nextID     atomic.Int64
}

func NewPRPCClient(cfg *config.Config) *PRPCClient {
	timeout := cfg.PRPCTimeoutDuration()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &PRPCClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

// Call sends one request for method to address and returns the raw
// result payload, or ok=false when no usable reply arrived.
func (c *PRPCClient) Call(ctx context.Context, address, method string) (json.RawMessage, bool) {
	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      int(c.nextID.Add(1)),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, false
	}

	url := "http://" + address + "/rpc"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, false
	}
	if rpcResp.Error != nil || rpcResp.Result == nil {
		return nil, false
	}

	return rpcResp.Result, true
}

// rpcTarget maps a node identity address to its RPC endpoint. The RPC
// server listens on the well-known port, not on whatever data port the
// gossip identity embeds, so the identity host is rejoined with the
// configured port. Zero port means use the address as given.
func (c *PRPCClient) rpcTarget(address string) string {
	port := c.cfg.PRPC.DefaultPort
	if port == 0 {
		return address
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// CallNode is Call against a node identity address, redirected to the
// node's RPC port.
func (c *PRPCClient) CallNode(ctx context.Context, address, method string) (json.RawMessage, bool) {
	return c.Call(ctx, c.rpcTarget(address), method)
}

// ListMembers asks one entry point for its view of the membership.
// Entry points are configured with their RPC port already and are
// dialed as given.
func (c *PRPCClient) ListMembers(ctx context.Context, address string) (*models.MembersResponse, bool) {
	result, ok := c.Call(ctx, address, models.MethodListMembers)
	if !ok {
		return nil, false
	}

	var members models.MembersResponse
	if err := json.Unmarshal(result, &members); err != nil {
		return nil, false
	}
	return &members, true
}

// GetStats fetches one node's runtime metrics snapshot. address is the
// node's identity address; the call goes to its RPC port.
func (c *PRPCClient) GetStats(ctx context.Context, address string) (*models.StatsResponse, bool) {
	result, ok := c.Call(ctx, c.rpcTarget(address), models.MethodGetStats)
	if !ok {
		return nil, false
	}

	var stats models.StatsResponse
	if err := json.Unmarshal(result, &stats); err != nil {
		return nil, false
	}
	if !stats.Valid() {
		return nil, false
	}
	return &stats, true
}

// GetVersion fetches one node's software version. Targets the RPC port
// like GetStats.
func (c *PRPCClient) GetVersion(ctx context.Context, address string) (*models.VersionResponse, bool) {
	result, ok := c.Call(ctx, c.rpcTarget(address), models.MethodGetVersion)
	if !ok {
		return nil, false
	}

	var ver models.VersionResponse
	if err := json.Unmarshal(result, &ver); err != nil {
		return nil, false
	}
	return &ver, true
}
