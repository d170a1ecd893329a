package models

import "encoding/json"

// JSON-RPC 2.0 Request
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int    `json:"id"`
}

// JSON-RPC 2.0 Response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// JSON-RPC 2.0 Error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RPC methods a pNode answers. Anything else is rejected before it
// reaches the wire.
const (
	MethodListMembers = "list-members"
	MethodGetStats    = "get-stats"
	MethodGetVersion  = "get-version"
)

// KnownMethod reports whether method is part of the pNode RPC surface.
func KnownMethod(method string) bool {
	switch method {
	case MethodListMembers, MethodGetStats, MethodGetVersion:
		return true
	}
	return false
}

// VersionResponse (result of get-version)
type VersionResponse struct {
	Version string `json:"version"`
}

// MembersResponse (result of list-members): one entry point's view of
// the network membership.
type MembersResponse struct {
	Members    []NodeIdentity `json:"members"`
	TotalCount int            `json:"total_count"`
}

// StatsResponse (result of get-stats): a node's point-in-time runtime
// metrics. Flat structure, matching the pNode API.
type StatsResponse struct {
	// Storage metadata
	TotalBytes  int64 `json:"total_bytes" bson:"total_bytes"`
	FileSize    int64 `json:"file_size" bson:"file_size"`
	LastUpdated int64 `json:"last_updated" bson:"last_updated"`

	// System stats
	CPUPercent      float64 `json:"cpu_percent" bson:"cpu_percent"`
	RAMUsed         int64   `json:"ram_used" bson:"ram_used"`
	RAMTotal        int64   `json:"ram_total" bson:"ram_total"`
	Uptime          int64   `json:"uptime" bson:"uptime"`
	PacketsReceived int64   `json:"packets_received" bson:"packets_received"`
	PacketsSent     int64   `json:"packets_sent" bson:"packets_sent"`
	ActiveStreams   int     `json:"active_streams" bson:"active_streams"`
}

// Valid rejects payloads missing the required numeric fields. A stats
// object without a RAM total or snapshot time is treated as absent.
func (s *StatsResponse) Valid() bool {
	return s != nil && s.RAMTotal > 0 && s.LastUpdated > 0
}
