package services

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodemon/models"
)

func TestFetchPartialFailure(t *testing.T) {
	good := rpcServer(t, map[string]any{
		models.MethodGetStats: models.StatsResponse{
			TotalBytes: 1000, FileSize: 100, LastUpdated: 1_700_000_000,
			RAMUsed: 512, RAMTotal: 1024, CPUPercent: 12.5,
		},
	})
	defer good.Close()

	// Answers HTTP 200 but with an rpc-level error.
	erroring := rpcServer(t, map[string]any{})
	defer erroring.Close()

	cfg := testConfig()
	fetcher := NewStatsFetcher(NewPRPCClient(cfg))

	addresses := []string{hostPort(good), hostPort(erroring), "127.0.0.1:1"}
	results := fetcher.Fetch(context.Background(), addresses)

	require.Len(t, results, 1)
	stats, ok := results[hostPort(good)]
	require.True(t, ok)
	assert.Equal(t, int64(1000), stats.TotalBytes)
	assert.Equal(t, 12.5, stats.CPUPercent)
}

func TestFetchRejectsInvalidStats(t *testing.T) {
	// RAMTotal missing, so the payload fails validation and the node
	// is indistinguishable from one that never answered.
	invalid := rpcServer(t, map[string]any{
		models.MethodGetStats: models.StatsResponse{TotalBytes: 1000, LastUpdated: 1_700_000_000},
	})
	defer invalid.Close()

	cfg := testConfig()
	fetcher := NewStatsFetcher(NewPRPCClient(cfg))

	results := fetcher.Fetch(context.Background(), []string{hostPort(invalid)})
	assert.Empty(t, results)
}

func TestFetchLimitedHonorsConcurrencyCeiling(t *testing.T) {
	var inFlight, peak atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}

		var req models.RPCRequest
		json.NewDecoder(r.Body).Decode(&req)

		raw, _ := json.Marshal(models.StatsResponse{
			TotalBytes: 1, LastUpdated: 1_700_000_000, RAMUsed: 1, RAMTotal: 2,
		})
		json.NewEncoder(w).Encode(models.RPCResponse{JSONRPC: "2.0", Result: raw, ID: req.ID})
	}))
	defer server.Close()

	cfg := testConfig()
	fetcher := NewStatsFetcher(NewPRPCClient(cfg))

	// All 20 addresses point at the same server; the limit is what
	// keeps the fan-out bounded.
	addresses := make([]string, 20)
	for i := range addresses {
		addresses[i] = hostPort(server)
	}

	results := fetcher.FetchLimited(context.Background(), addresses, 3)

	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Len(t, results, 1, "identical addresses collapse to one map entry")
}

func TestFetchTargetsConfiguredRPCPort(t *testing.T) {
	server := rpcServer(t, map[string]any{
		models.MethodGetStats: models.StatsResponse{
			TotalBytes: 1000, FileSize: 100, LastUpdated: 1_700_000_000,
			RAMUsed: 512, RAMTotal: 1024,
		},
	})
	defer server.Close()

	host, portStr, err := net.SplitHostPort(hostPort(server))
	require.NoError(t, err)
	rpcPort, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.PRPC.DefaultPort = rpcPort
	fetcher := NewStatsFetcher(NewPRPCClient(cfg))

	// The identity address embeds a data port where nothing answers
	// RPC; the call must go to the configured RPC port instead.
	identity := net.JoinHostPort(host, "1")
	results := fetcher.Fetch(context.Background(), []string{identity})

	require.Len(t, results, 1)
	stats, ok := results[identity]
	require.True(t, ok, "results stay keyed by the identity address")
	assert.Equal(t, int64(1000), stats.TotalBytes)
}

func TestFetchLimitedEmptyInput(t *testing.T) {
	cfg := testConfig()
	fetcher := NewStatsFetcher(NewPRPCClient(cfg))

	results := fetcher.FetchLimited(context.Background(), nil, 10)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
