package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"pnodemon/config"
	"pnodemon/models"
	"pnodemon/utils"
)

// SyncStore is the slice of persistence the syncer needs.
// *MongoStore satisfies it.
type SyncStore interface {
	UpsertNodeRecords(ctx context.Context, records []models.NodeRecord) (int64, error)
	InsertSnapshot(ctx context.Context, snapshot *models.SnapshotRecord) error
}

// Syncer runs the batch pipeline on a schedule: discover, dedupe,
// fetch stats for recently seen nodes under a concurrency ceiling,
// persist one record per node plus a flattened snapshot. Each run is
// independent; nothing survives between invocations.
type Syncer struct {
	cfg      *config.Config
	registry *Registry
	fetcher  *StatsFetcher
	store    SyncStore

	stopChan chan struct{}
}

func NewSyncer(cfg *config.Config, registry *Registry, fetcher *StatsFetcher, store SyncStore) *Syncer {
	return &Syncer{
		cfg:      cfg,
		registry: registry,
		fetcher:  fetcher,
		store:    store,
		stopChan: make(chan struct{}),
	}
}

func (s *Syncer) Start() {
	go s.runLoop()
}

func (s *Syncer) Stop() {
	close(s.stopChan)
}

func (s *Syncer) runLoop() {
	ticker := time.NewTicker(s.cfg.SyncIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summary, err := s.SyncOnce(context.Background())
			if err != nil {
				log.Printf("Sync failed: %v", err)
				continue
			}
			log.Printf("Sync complete: %d unique nodes, %d online, stats %d/%d ok, %d upserted in %dms",
				summary.UniqueAddresses, summary.OnlineNodes,
				summary.StatsSuccess, summary.StatsSuccess+summary.StatsFailed,
				summary.Upserted, summary.DurationMs)
		case <-s.stopChan:
			return
		}
	}
}

// SyncOnce runs one full pass. Zero discovered nodes is a failure;
// zero online nodes is not, the stats phase just degenerates to a
// no-op and the run still persists and reports.
func (s *Syncer) SyncOnce(ctx context.Context) (*models.SyncSummary, error) {
	start := time.Now()

	nodes, raw := s.registry.DiscoverAll(ctx)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("sync aborted: discovery returned no nodes")
	}

	now := time.Now().Unix()

	// Partition by the healthy-classification threshold: only nodes
	// seen within the window are worth a stats call.
	online := make([]models.NodeIdentity, 0, len(nodes))
	for _, n := range nodes {
		if utils.Classify(n.LastSeenTimestamp, now) == models.HealthHealthy {
			online = append(online, n)
		}
	}

	// The stats phase must finish inside the platform's hard deadline,
	// so it samples a bounded subset rather than the whole fleet.
	sampled := online
	if limit := s.cfg.PRPC.SyncSampleLimit; limit > 0 && len(sampled) > limit {
		sampled = sampled[:limit]
	}

	addresses := make([]string, 0, len(sampled))
	for _, n := range sampled {
		addresses = append(addresses, n.Address)
	}

	stats := s.fetcher.FetchLimited(ctx, addresses, s.cfg.PRPC.SyncConcurrency)

	records := buildRecords(nodes, stats, now)
	upserted, err := s.store.UpsertNodeRecords(ctx, records)
	if err != nil {
		log.Printf("Sync: node record upsert failed: %v", err)
	}

	analytics := AnalyzeAt(nodes, stats, now)
	snapshot := SnapshotFromAnalytics(analytics)
	if err := s.store.InsertSnapshot(ctx, &snapshot); err != nil {
		log.Printf("Sync: snapshot insert failed: %v", err)
	}

	success := len(stats)
	failed := len(addresses) - success

	summary := &models.SyncSummary{
		TotalFromNetwork: raw,
		UniqueAddresses:  len(nodes),
		OnlineNodes:      len(online),
		StatsSuccess:     success,
		StatsFailed:      failed,
		Upserted:         upserted,
		DurationMs:       time.Since(start).Milliseconds(),
	}
	if success+failed > 0 {
		summary.SuccessRatePercent = round1(float64(success) / float64(success+failed) * 100)
	}

	return summary, nil
}

// buildRecords produces one row per node. Nodes without a fetched
// stats entry (offline or unreachable) carry a nil Stats.
func buildRecords(nodes []models.NodeIdentity, stats map[string]models.StatsResponse, now int64) []models.NodeRecord {
	updatedAt := time.Unix(now, 0).UTC()

	records := make([]models.NodeRecord, 0, len(nodes))
	for _, n := range nodes {
		state := utils.Classify(n.LastSeenTimestamp, now)

		record := models.NodeRecord{
			Address:           n.Address,
			Pubkey:            n.Pubkey,
			Version:           n.Version,
			LastSeenTimestamp: n.LastSeenTimestamp,
			Online:            state == models.HealthHealthy,
			Health:            state,
			UpdatedAt:         updatedAt,
		}
		if st, ok := stats[n.Address]; ok {
			record.Stats = &st
		}
		records = append(records, record)
	}
	return records
}
