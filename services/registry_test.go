package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodemon/config"
	"pnodemon/models"
)

func testConfig(seeds ...string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{SeedNodes: seeds},
		PRPC: config.PRPCConfig{
			Timeout:          2,
			SyncConcurrency:  5,
			SyncSampleLimit:  45,
			StatsSampleLimit: 25,
		},
	}
}

// rpcServer answers JSON-RPC posts on /rpc with the given result per
// method. A nil result produces an rpc-level error reply.
func rpcServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rpc", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req models.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2.0", req.JSONRPC)

		resp := models.RPCResponse{JSONRPC: "2.0", ID: req.ID}
		if result, ok := results[req.Method]; ok && result != nil {
			raw, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = raw
		} else {
			resp.Error = &models.RPCError{Code: -32601, Message: "Method not found"}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func hostPort(s *httptest.Server) string {
	return strings.TrimPrefix(s.URL, "http://")
}

func TestMergeMembersDeduplicates(t *testing.T) {
	a := []models.NodeIdentity{
		{Address: "n1:6000", Version: "0.8.0", LastSeenTimestamp: 100},
		{Address: "n2:6000", Version: "0.7.3", LastSeenTimestamp: 50},
	}
	b := []models.NodeIdentity{
		{Address: "n1:6000", Version: "0.8.0", LastSeenTimestamp: 200},
		{Address: "n3:6000", Version: "0.8.0", LastSeenTimestamp: 80},
	}

	merged := MergeMembers(a, b)
	require.Len(t, merged, 3)

	byAddr := make(map[string]models.NodeIdentity)
	for _, m := range merged {
		byAddr[m.Address] = m
	}
	assert.Equal(t, int64(200), byAddr["n1:6000"].LastSeenTimestamp, "greater timestamp wins")
	assert.Equal(t, int64(50), byAddr["n2:6000"].LastSeenTimestamp)
	assert.Equal(t, int64(80), byAddr["n3:6000"].LastSeenTimestamp)
}

func TestMergeMembersTieKeepsFirstSeen(t *testing.T) {
	a := []models.NodeIdentity{{Address: "n1:6000", Pubkey: "first", LastSeenTimestamp: 100}}
	b := []models.NodeIdentity{{Address: "n1:6000", Pubkey: "second", LastSeenTimestamp: 100}}

	merged := MergeMembers(a, b)
	require.Len(t, merged, 1)
	assert.Equal(t, "first", merged[0].Pubkey)

	// Same content the other way around keeps the other entry, but the
	// set of addresses is identical.
	reversed := MergeMembers(b, a)
	require.Len(t, reversed, 1)
	assert.Equal(t, "second", reversed[0].Pubkey)
}

func TestMergeMembersNormalizes(t *testing.T) {
	merged := MergeMembers([]models.NodeIdentity{
		{Address: "", Version: "0.8.0", LastSeenTimestamp: 100},
		{Address: "n1:6000", Version: "", LastSeenTimestamp: 100},
	})

	require.Len(t, merged, 1, "entries without an address are dropped")
	assert.Equal(t, models.VersionUnknown, merged[0].Version)
}

func TestDiscoverAllMergesEntryPoints(t *testing.T) {
	s1 := rpcServer(t, map[string]any{
		models.MethodListMembers: models.MembersResponse{
			Members: []models.NodeIdentity{
				{Address: "n1:6000", Version: "0.8.0", LastSeenTimestamp: 100},
				{Address: "n2:6000", Version: "0.7.3", LastSeenTimestamp: 90},
			},
			TotalCount: 2,
		},
	})
	defer s1.Close()

	s2 := rpcServer(t, map[string]any{
		models.MethodListMembers: models.MembersResponse{
			Members: []models.NodeIdentity{
				{Address: "n2:6000", Version: "0.7.3", LastSeenTimestamp: 150},
			},
			TotalCount: 1,
		},
	})
	defer s2.Close()

	// The third entry point is unreachable and must not sink the run.
	cfg := testConfig(hostPort(s1), hostPort(s2), "127.0.0.1:1")
	registry := NewRegistry(cfg, NewPRPCClient(cfg))

	nodes, raw := registry.DiscoverAll(context.Background())

	assert.Equal(t, 3, raw)
	require.Len(t, nodes, 2)

	byAddr := make(map[string]models.NodeIdentity)
	for _, n := range nodes {
		byAddr[n.Address] = n
	}
	assert.Equal(t, int64(150), byAddr["n2:6000"].LastSeenTimestamp)
}

func TestDiscoverAllAllEntryPointsDown(t *testing.T) {
	cfg := testConfig("127.0.0.1:1", "127.0.0.1:2")
	registry := NewRegistry(cfg, NewPRPCClient(cfg))

	nodes, raw := registry.DiscoverAll(context.Background())
	assert.Empty(t, nodes)
	assert.Zero(t, raw)
}
