package services

import (
	"context"
	"sync"

	"pnodemon/models"
)

// StatsFetcher queries many nodes for runtime metrics. Partial failure
// is the steady state: addresses that fail are simply absent from the
// result map and callers must expect a smaller set than they asked for.
type StatsFetcher struct {
	prpc *PRPCClient
}

func NewStatsFetcher(prpc *PRPCClient) *StatsFetcher {
	return &StatsFetcher{prpc: prpc}
}

// Fetch fires one get-stats call per address, all concurrent. Used by
// the ad-hoc analytics path where input size is already capped.
func (f *StatsFetcher) Fetch(ctx context.Context, addresses []string) map[string]models.StatsResponse {
	return f.FetchLimited(ctx, addresses, len(addresses))
}

// FetchLimited is Fetch under a concurrency ceiling: at most limit
// calls in flight, each acquiring a permit before starting. The fan-in
// barrier waits for every fired call to resolve or time out; there is
// no early abort of the batch.
func (f *StatsFetcher) FetchLimited(ctx context.Context, addresses []string, limit int) map[string]models.StatsResponse {
	results := make(map[string]models.StatsResponse, len(addresses))
	if len(addresses) == 0 {
		return results
	}
	if limit <= 0 {
		limit = 1
	}

	permits := make(chan struct{}, limit)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, addr := range addresses {
		wg.Add(1)
		permits <- struct{}{}

		go func(addr string) {
			defer wg.Done()
			defer func() { <-permits }()

			stats, ok := f.prpc.GetStats(ctx, addr)
			if !ok {
				return
			}

			mu.Lock()
			results[addr] = *stats
			mu.Unlock()
		}(addr)
	}
	wg.Wait()

	return results
}
