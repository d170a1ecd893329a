package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pnodemon/config"
	"pnodemon/models"
	"pnodemon/services"
)

func testHandler() *Handler {
	cfg := &config.Config{
		Server: config.ServerConfig{AdminSecret: "s3cret"},
		PRPC:   config.PRPCConfig{Timeout: 1},
		Cache:  config.CacheConfig{TTL: 30},
	}
	return NewHandler(cfg, services.NewMemoryCache(), nil, nil, &services.MongoStore{}, services.NewPRPCClient(cfg))
}

func TestGetHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, testHandler().GetHealth(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestClearCacheRequiresSecret(t *testing.T) {
	e := echo.New()
	h := testHandler()

	req := httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ClearCache(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	rec = httptest.NewRecorder()
	require.NoError(t, h.ClearCache(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	req.Header.Set("X-Admin-Secret", "s3cret")
	rec = httptest.NewRecorder()
	require.NoError(t, h.ClearCache(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClearCacheEmptySecretLocksEndpoint(t *testing.T) {
	e := echo.New()
	h := testHandler()
	h.Cfg.Server.AdminSecret = ""

	req := httptest.NewRequest(http.MethodPost, "/cache/clear", nil)
	req.Header.Set("X-Admin-Secret", "")
	rec := httptest.NewRecorder()
	require.NoError(t, h.ClearCache(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProxyRPCValidation(t *testing.T) {
	e := echo.New()
	h := testHandler()

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/rpc", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		require.NoError(t, h.ProxyRPC(e.NewContext(req, rec)))
		return rec
	}

	rec := post(`{"method":"get-stats"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "address is required")

	rec = post(`{"address":"127.0.0.1:6000","method":"drop-tables"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown methods never reach the wire")

	rec = post(`{"address":"127.0.0.1:1","method":"get-version"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code, "unreachable node maps to 502")
}

func TestGetNetworkHistoryWithoutMongo(t *testing.T) {
	e := echo.New()
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/history/network", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetNetworkHistory(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// nodesHandler wires a Handler to a stub entry point advertising the
// given members.
func nodesHandler(t *testing.T, members []models.NodeIdentity) *Handler {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		raw, err := json.Marshal(models.MembersResponse{Members: members, TotalCount: len(members)})
		require.NoError(t, err)
		json.NewEncoder(w).Encode(models.RPCResponse{JSONRPC: "2.0", Result: raw, ID: req.ID})
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{SeedNodes: []string{strings.TrimPrefix(server.URL, "http://")}},
		PRPC:   config.PRPCConfig{Timeout: 2, StatsSampleLimit: 25},
		Cache:  config.CacheConfig{TTL: 30},
	}

	prpc := services.NewPRPCClient(cfg)
	monitor := services.NewMonitor(cfg,
		services.NewRegistry(cfg, prpc),
		services.NewStatsFetcher(prpc),
		services.NewMemoryCache(), nil)

	return NewHandler(cfg, services.NewMemoryCache(), monitor, nil, &services.MongoStore{}, prpc)
}

func TestGetNodesCounts(t *testing.T) {
	now := time.Now().Unix()
	h := nodesHandler(t, []models.NodeIdentity{
		{Address: "10.0.0.1:7000", Version: "0.8.0", LastSeenTimestamp: now - 10},
		{Address: "10.0.0.2:7000", Version: "0.8.0", LastSeenTimestamp: now - 7200},
	})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/nodes?health=healthy", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetNodes(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp NodesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.TotalCount, "fleet size survives the filter")
	assert.Equal(t, 1, resp.FilteredCount)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "10.0.0.1:7000", resp.Nodes[0].Address)

	// A limit trims the page but not the counts.
	req = httptest.NewRequest(http.MethodGet, "/api/nodes?limit=1", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.GetNodes(e.NewContext(req, rec)))

	resp = NodesResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 2, resp.FilteredCount)
	require.Len(t, resp.Nodes, 1)
}

func TestGetStatus(t *testing.T) {
	e := echo.New()
	h := testHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.GetStatus(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache":"memory"`)
}
