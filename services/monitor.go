package services

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"pnodemon/config"
	"pnodemon/models"
	"pnodemon/utils"
)

// Monitor is the read path behind the API: discovery, enrichment and
// analytics with a cache in front. It holds no state of its own
// between calls; every pass is a fresh function of the network plus
// the clock, so concurrent callers need no coordination.
type Monitor struct {
	cfg      *config.Config
	registry *Registry
	fetcher  *StatsFetcher
	cache    Cache
	geo      *utils.GeoResolver
}

func NewMonitor(cfg *config.Config, registry *Registry, fetcher *StatsFetcher, cache Cache, geo *utils.GeoResolver) *Monitor {
	return &Monitor{
		cfg:      cfg,
		registry: registry,
		fetcher:  fetcher,
		cache:    cache,
		geo:      geo,
	}
}

// Nodes returns the current enriched node list. Cache first; on a miss
// it runs discovery and caches the result. When discovery comes back
// empty a stale cached list is served instead, flagged stale, because
// old data beats an error page.
func (m *Monitor) Nodes(ctx context.Context) ([]models.NodeView, bool, error) {
	var views []models.NodeView
	if found, err := m.cache.Get(ctx, CacheKeyNodes, &views); err == nil && found {
		return views, false, nil
	}

	nodes, _ := m.registry.DiscoverAll(ctx)
	if len(nodes) == 0 {
		if found, stale, err := m.cache.GetStale(ctx, CacheKeyNodes, &views); err == nil && found {
			return views, stale, nil
		}
		return nil, false, fmt.Errorf("discovery failed: no entry point returned members")
	}

	now := time.Now().Unix()
	views = make([]models.NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, m.enrich(n, now))
	}

	if err := m.cache.Set(ctx, CacheKeyNodes, views, m.cfg.CacheTTLDuration()); err != nil {
		log.Printf("Cache SET failed for %q: %v", CacheKeyNodes, err)
	}

	return views, false, nil
}

// Node returns one node by address, from the cached list.
func (m *Monitor) Node(ctx context.Context, address string) (*models.NodeView, error) {
	views, _, err := m.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].Address == address {
			return &views[i], nil
		}
	}
	return nil, nil
}

// Analytics returns the current network analytics. On a cache miss the
// full pipeline runs: discovery, a capped stats sample over healthy
// nodes, then one analysis pass.
func (m *Monitor) Analytics(ctx context.Context) (*models.NetworkAnalytics, bool, error) {
	var cached models.NetworkAnalytics
	if found, err := m.cache.Get(ctx, CacheKeyAnalytics, &cached); err == nil && found {
		return &cached, false, nil
	}

	nodes, _ := m.registry.DiscoverAll(ctx)
	if len(nodes) == 0 {
		if found, stale, err := m.cache.GetStale(ctx, CacheKeyAnalytics, &cached); err == nil && found {
			return &cached, stale, nil
		}
		return nil, false, fmt.Errorf("discovery failed: no entry point returned members")
	}

	now := time.Now().Unix()
	sample := m.statsSample(nodes, now)
	stats := m.fetcher.Fetch(ctx, sample)

	analytics := AnalyzeAt(nodes, stats, now)
	if err := m.cache.Set(ctx, CacheKeyAnalytics, analytics, m.cfg.CacheTTLDuration()); err != nil {
		log.Printf("Cache SET failed for %q: %v", CacheKeyAnalytics, err)
	}

	return &analytics, false, nil
}

// statsSample picks healthy node addresses up to the configured cap.
// The ad-hoc path has no concurrency ceiling, so the sample itself
// bounds the fan-out.
func (m *Monitor) statsSample(nodes []models.NodeIdentity, now int64) []string {
	limit := m.cfg.PRPC.StatsSampleLimit
	sample := make([]string, 0, limit)

	for _, n := range nodes {
		if len(sample) >= limit {
			break
		}
		if utils.Classify(n.LastSeenTimestamp, now) == models.HealthHealthy {
			sample = append(sample, n.Address)
		}
	}
	return sample
}

func (m *Monitor) enrich(n models.NodeIdentity, now int64) models.NodeView {
	state := utils.Classify(n.LastSeenTimestamp, now)
	status, severity := utils.CheckVersionStatus(n.Version, nil)

	view := models.NodeView{
		NodeIdentity:    n,
		Health:          state,
		HealthWeight:    state.Weight(),
		VersionStatus:   status,
		UpgradeSeverity: severity,
	}

	host, _, err := net.SplitHostPort(n.Address)
	if err != nil {
		host = n.Address
	}
	view.Country, view.City, view.Lat, view.Lon = m.geo.Lookup(host)

	return view
}
