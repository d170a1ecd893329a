package models

import "time"

// VersionUnknown is the sentinel for nodes that never reported a
// parseable version string.
const VersionUnknown = "unknown"

// NodeIdentity is a node's self-reported registry entry as gossiped by
// the entry points. Address is the dedup key; LastSeenTimestamp is the
// source of truth for liveness.
type NodeIdentity struct {
	Address           string `json:"address" bson:"address"`
	Pubkey            string `json:"pubkey,omitempty" bson:"pubkey,omitempty"`
	Version           string `json:"version" bson:"version"`
	LastSeenTimestamp int64  `json:"last_seen_timestamp" bson:"last_seen_timestamp"`
}

// HealthState is derived from report recency, never stored.
type HealthState string

const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
	HealthOffline  HealthState = "offline"
)

// Weight returns the severity weight for a state. The dashboard also
// uses it as the map-marker opacity.
func (s HealthState) Weight() float64 {
	switch s {
	case HealthHealthy:
		return 1.0
	case HealthDegraded:
		return 0.6
	default:
		return 0.3
	}
}

// NodeView is the API-facing shape of a node: registry identity plus
// derived health, geolocation and version status.
type NodeView struct {
	NodeIdentity

	Health       HealthState `json:"health"`
	HealthWeight float64     `json:"health_weight"`

	Country string  `json:"country"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`

	VersionStatus   string `json:"version_status"`
	UpgradeSeverity string `json:"upgrade_severity"`
}

// NodeRecord is the persisted per-node row produced by a sync run.
// Stats is nil for nodes that were offline or unreachable during the run.
type NodeRecord struct {
	Address           string         `json:"address" bson:"address"`
	Pubkey            string         `json:"pubkey,omitempty" bson:"pubkey,omitempty"`
	Version           string         `json:"version" bson:"version"`
	LastSeenTimestamp int64          `json:"last_seen_timestamp" bson:"last_seen_timestamp"`
	Online            bool           `json:"online" bson:"online"`
	Health            HealthState    `json:"health" bson:"health"`
	Stats             *StatsResponse `json:"stats,omitempty" bson:"stats,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at" bson:"updated_at"`
}
