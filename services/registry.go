package services

import (
	"context"
	"log"
	"sync"

	"pnodemon/config"
	"pnodemon/models"
)

// Registry discovers the network membership by querying every
// configured entry point and reconciling their answers into one
// deduplicated node list.
type Registry struct {
	cfg  *config.Config
	prpc *PRPCClient
}

func NewRegistry(cfg *config.Config, prpc *PRPCClient) *Registry {
	return &Registry{cfg: cfg, prpc: prpc}
}

// DiscoverAll fans list-members out to all entry points concurrently
// and merges the results. Entry points that fail contribute nothing;
// if every one fails the merged list is empty and the caller decides
// what that means. The second return value is the raw report count
// before deduplication.
func (r *Registry) DiscoverAll(ctx context.Context) ([]models.NodeIdentity, int) {
	seeds := r.cfg.Server.SeedNodes

	lists := make([][]models.NodeIdentity, len(seeds))
	var wg sync.WaitGroup

	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed string) {
			defer wg.Done()

			resp, ok := r.prpc.ListMembers(ctx, seed)
			if !ok {
				return
			}
			lists[i] = resp.Members
		}(i, seed)
	}
	wg.Wait()

	raw := 0
	for _, l := range lists {
		raw += len(l)
	}

	merged := MergeMembers(lists...)
	log.Printf("Discovery: %d reports from %d entry points, %d unique nodes", raw, len(seeds), len(merged))

	return merged, raw
}

// MergeMembers flattens entry-point member lists into one set keyed by
// address. A duplicate address wins only with a strictly greater
// last-seen timestamp; ties keep the first-seen entry, so arrival
// order of equal reports never changes the result. Entries without an
// address are dropped; missing versions become the "unknown" sentinel.
func MergeMembers(lists ...[]models.NodeIdentity) []models.NodeIdentity {
	byAddress := make(map[string]models.NodeIdentity)
	order := make([]string, 0)

	for _, list := range lists {
		for _, m := range list {
			if m.Address == "" {
				continue
			}
			if m.Version == "" {
				m.Version = models.VersionUnknown
			}

			existing, seen := byAddress[m.Address]
			if !seen {
				byAddress[m.Address] = m
				order = append(order, m.Address)
				continue
			}
			if m.LastSeenTimestamp > existing.LastSeenTimestamp {
				byAddress[m.Address] = m
			}
		}
	}

	merged := make([]models.NodeIdentity, 0, len(byAddress))
	for _, addr := range order {
		merged = append(merged, byAddress[addr])
	}
	return merged
}
