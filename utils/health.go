package utils

import "pnodemon/models"

// Liveness thresholds in seconds of report age. Boundaries are
// half-open: a delta of exactly HealthyWindow is already Degraded,
// exactly OfflineAfter is Offline.
const (
	HealthyWindow int64 = 300
	OfflineAfter  int64 = 3600
	StaleAfter    int64 = 86400
)

// Classify maps a last-seen timestamp to a liveness state. Pure
// function of (now - lastSeen); callers capture now once per pass so a
// large list is classified against a single instant.
func Classify(lastSeen, now int64) models.HealthState {
	delta := now - lastSeen
	switch {
	case delta < HealthyWindow:
		return models.HealthHealthy
	case delta < OfflineAfter:
		return models.HealthDegraded
	default:
		return models.HealthOffline
	}
}

// IsStale reports whether a node has been unseen for over 24 hours.
// Separate, coarser signal than the three-tier state: a node can be
// Offline without being stale.
func IsStale(lastSeen, now int64) bool {
	return now-lastSeen > StaleAfter
}
