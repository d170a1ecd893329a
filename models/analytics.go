package models

// NetworkAnalytics is the aggregate output of one analysis pass,
// recomputed fresh every time.
type NetworkAnalytics struct {
	Totals      HealthTotals       `json:"totals"`
	Health      HealthSummary      `json:"health"`
	Versions    VersionSummary     `json:"versions"`
	Storage     StorageSummary     `json:"storage"`
	Performance PerformanceSummary `json:"performance"`
	Risks       RiskFlags          `json:"risks"`
	GeneratedAt int64              `json:"generated_at"`
}

type HealthTotals struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Degraded int `json:"degraded"`
	Offline  int `json:"offline"`
}

type HealthSummary struct {
	Score           int     `json:"score"`
	HealthyPercent  float64 `json:"healthy_percent"`
	DegradedPercent float64 `json:"degraded_percent"`
	OfflinePercent  float64 `json:"offline_percent"`
}

type VersionSummary struct {
	Latest          string         `json:"latest"`
	Histogram       map[string]int `json:"histogram"`
	OutdatedCount   int            `json:"outdated_count"`
	OutdatedPercent float64        `json:"outdated_percent"`
}

// StorageSummary aggregates only nodes for which stats were supplied;
// all fields are zero when no stats arrived.
type StorageSummary struct {
	CapacityBytes      int64   `json:"capacity_bytes"`
	UsedBytes          int64   `json:"used_bytes"`
	AvgCapacityPerNode int64   `json:"avg_capacity_per_node"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

type PerformanceSummary struct {
	AvgCPUPercent    float64 `json:"avg_cpu_percent"`
	AvgRAMPercent    float64 `json:"avg_ram_percent"`
	AvgUptimeSeconds float64 `json:"avg_uptime_seconds"`
}

type RiskFlags struct {
	SingleVersionDominance bool `json:"single_version_dominance"`
	UnhealthyNodes         int  `json:"unhealthy_nodes"`
	StaleNodes             int  `json:"stale_nodes"`
}

// SnapshotRecord is the flattened network state persisted after every
// sync run, one document per run.
type SnapshotRecord struct {
	Timestamp      int64   `json:"timestamp" bson:"timestamp"`
	TotalNodes     int     `json:"total_nodes" bson:"total_nodes"`
	HealthyNodes   int     `json:"healthy_nodes" bson:"healthy_nodes"`
	DegradedNodes  int     `json:"degraded_nodes" bson:"degraded_nodes"`
	OfflineNodes   int     `json:"offline_nodes" bson:"offline_nodes"`
	AvgCPU         float64 `json:"avg_cpu" bson:"avg_cpu"`
	AvgRAM         float64 `json:"avg_ram" bson:"avg_ram"`
	TotalStorage   int64   `json:"total_storage" bson:"total_storage"`
	UniqueVersions int     `json:"unique_versions" bson:"unique_versions"`
	LatestVersion  string  `json:"latest_version" bson:"latest_version"`
	OutdatedCount  int     `json:"outdated_count" bson:"outdated_count"`
	HealthScore    int     `json:"health_score" bson:"health_score"`
}

// SyncSummary reports the outcome of a single sync run to the caller.
type SyncSummary struct {
	TotalFromNetwork   int     `json:"total_from_network"`
	UniqueAddresses    int     `json:"unique_addresses"`
	OnlineNodes        int     `json:"online_nodes"`
	StatsSuccess       int     `json:"stats_success"`
	StatsFailed        int     `json:"stats_failed"`
	SuccessRatePercent float64 `json:"success_rate_percent"`
	Upserted           int64   `json:"upserted"`
	DurationMs         int64   `json:"duration_ms"`
}
