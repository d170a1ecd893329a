package services

import (
	"math"
	"time"

	"pnodemon/models"
	"pnodemon/utils"
)

// dominanceThreshold is the version-concentration risk boundary: one
// version must hold strictly more than this share of the network.
const dominanceThreshold = 80.0

// Analyze recomputes the full network analytics from a merged node
// list and whatever per-node stats were supplied. statsByAddress may
// be nil; storage and performance sections are then zero-filled.
func Analyze(nodes []models.NodeIdentity, statsByAddress map[string]models.StatsResponse) models.NetworkAnalytics {
	return AnalyzeAt(nodes, statsByAddress, time.Now().Unix())
}

// AnalyzeAt is Analyze with an explicit clock. One now for the whole
// pass, so classification never skews across a large list.
func AnalyzeAt(nodes []models.NodeIdentity, statsByAddress map[string]models.StatsResponse, now int64) models.NetworkAnalytics {
	a := models.NetworkAnalytics{
		GeneratedAt: now,
		Versions: models.VersionSummary{
			Latest:    models.VersionUnknown,
			Histogram: make(map[string]int),
		},
	}

	a.Totals.Total = len(nodes)

	for _, n := range nodes {
		switch utils.Classify(n.LastSeenTimestamp, now) {
		case models.HealthHealthy:
			a.Totals.Healthy++
		case models.HealthDegraded:
			a.Totals.Degraded++
		default:
			a.Totals.Offline++
		}

		if utils.IsStale(n.LastSeenTimestamp, now) {
			a.Risks.StaleNodes++
		}

		a.Versions.Histogram[n.Version]++
	}

	total := a.Totals.Total
	a.Risks.UnhealthyNodes = a.Totals.Degraded + a.Totals.Offline

	// Every division below is guarded: a zero total yields zeros, not NaN.
	if total == 0 {
		return a
	}

	a.Health.HealthyPercent = round1(pct(a.Totals.Healthy, total))
	a.Health.DegradedPercent = round1(pct(a.Totals.Degraded, total))
	a.Health.OfflinePercent = round1(pct(a.Totals.Offline, total))

	versions := make([]string, 0, len(nodes))
	for _, n := range nodes {
		versions = append(versions, n.Version)
	}
	a.Versions.Latest = utils.LatestVersion(versions)

	for _, n := range nodes {
		if n.Version == models.VersionUnknown || n.Version == "" {
			continue
		}
		if utils.CompareVersions(n.Version, a.Versions.Latest) < 0 {
			a.Versions.OutdatedCount++
		}
	}
	a.Versions.OutdatedPercent = round1(pct(a.Versions.OutdatedCount, total))

	for v, count := range a.Versions.Histogram {
		if v == models.VersionUnknown {
			continue
		}
		if pct(count, total) > dominanceThreshold {
			a.Risks.SingleVersionDominance = true
			break
		}
	}

	// Composite score. Degraded nodes contribute positively at low
	// weight; offline nodes are only penalized through the healthy
	// share.
	healthyPct := pct(a.Totals.Healthy, total)
	degradedPct := pct(a.Totals.Degraded, total)
	upToDatePct := pct(total-a.Versions.OutdatedCount, total)
	a.Health.Score = int(math.Round(healthyPct*0.60 + upToDatePct*0.30 + degradedPct*0.10))

	aggregateStats(&a, nodes, statsByAddress)

	return a
}

// aggregateStats fills the storage and performance sections from the
// subset of nodes that have a stats entry. No stats, all zeros.
func aggregateStats(a *models.NetworkAnalytics, nodes []models.NodeIdentity, statsByAddress map[string]models.StatsResponse) {
	if len(statsByAddress) == 0 {
		return
	}

	var (
		count     int
		sumCPU    float64
		sumRAMPct float64
		sumUptime float64
	)

	for _, n := range nodes {
		stats, ok := statsByAddress[n.Address]
		if !ok {
			continue
		}
		count++

		a.Storage.CapacityBytes += stats.TotalBytes
		a.Storage.UsedBytes += stats.FileSize

		sumCPU += stats.CPUPercent
		if stats.RAMTotal > 0 {
			sumRAMPct += float64(stats.RAMUsed) / float64(stats.RAMTotal) * 100
		}
		sumUptime += float64(stats.Uptime)
	}

	if count == 0 {
		return
	}

	a.Storage.AvgCapacityPerNode = a.Storage.CapacityBytes / int64(count)
	if a.Storage.CapacityBytes > 0 {
		a.Storage.UtilizationPercent = round1(float64(a.Storage.UsedBytes) / float64(a.Storage.CapacityBytes) * 100)
	}

	a.Performance.AvgCPUPercent = round1(sumCPU / float64(count))
	a.Performance.AvgRAMPercent = round1(sumRAMPct / float64(count))
	a.Performance.AvgUptimeSeconds = math.Round(sumUptime / float64(count))
}

// SnapshotFromAnalytics flattens an analytics pass into the persisted
// snapshot record shape.
func SnapshotFromAnalytics(a models.NetworkAnalytics) models.SnapshotRecord {
	// The "unknown" sentinel marks absent data, not a release.
	uniqueVersions := len(a.Versions.Histogram)
	if _, ok := a.Versions.Histogram[models.VersionUnknown]; ok {
		uniqueVersions--
	}

	return models.SnapshotRecord{
		Timestamp:      a.GeneratedAt,
		TotalNodes:     a.Totals.Total,
		HealthyNodes:   a.Totals.Healthy,
		DegradedNodes:  a.Totals.Degraded,
		OfflineNodes:   a.Totals.Offline,
		AvgCPU:         a.Performance.AvgCPUPercent,
		AvgRAM:         a.Performance.AvgRAMPercent,
		TotalStorage:   a.Storage.CapacityBytes,
		UniqueVersions: uniqueVersions,
		LatestVersion:  a.Versions.Latest,
		OutdatedCount:  a.Versions.OutdatedCount,
		HealthScore:    a.Health.Score,
	}
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
