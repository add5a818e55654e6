package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/spi"
	"github.com/okian/drought/pkg/metrics"
)

// Sharded in-memory Store. Keys of one location always land in the same
// shard, so ByLocation only takes one read lock.

const defaultShardCount = 16

type shard struct {
	mu     sync.RWMutex
	params map[model.Key]model.GammaParams
}

// ShardedStore is a concurrency-safe Store.
type ShardedStore struct {
	shards                []*shard
	shardCount            int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewShardedStore constructs the store and starts its metrics updater,
// which stops when ctx is done or Close is called.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{params: make(map[model.Key]model.GammaParams)}
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	s.startMetricsUpdater(ctx)
	return s
}

func (s *ShardedStore) shardFor(location string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(location))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Close stops the background metrics updater.
func (s *ShardedStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put validates and stores params for key.
func (s *ShardedStore) Put(ctx context.Context, key model.Key, params model.GammaParams) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := spi.Validate(params); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_params")
		return fmt.Errorf("put %s: %w: %w", key, ErrInvalidParams, err)
	}

	sh := s.shardFor(key.Location)
	sh.mu.Lock()
	sh.params[key] = params
	sh.mu.Unlock()
	return nil
}

// Load stores every entry and stops at the first invalid one.
func (s *ShardedStore) Load(ctx context.Context, fitted []model.FittedParams) error {
	for _, f := range fitted {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Put(ctx, f.Key, f.Params); err != nil {
			return err
		}
	}
	metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
	return nil
}

// Get returns the params stored for key.
func (s *ShardedStore) Get(ctx context.Context, key model.Key) (model.GammaParams, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sh := s.shardFor(key.Location)
	sh.mu.RLock()
	p, ok := sh.params[key]
	sh.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.GammaParams{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return p, nil
}

// Lookup adapts Get to the spi.Lookup signature.
func (s *ShardedStore) Lookup(ctx context.Context) spi.Lookup {
	return func(key model.Key) (model.GammaParams, bool) {
		p, err := s.Get(ctx, key)
		return p, err == nil
	}
}

// ByLocation returns the fitted keys of one location.
func (s *ShardedStore) ByLocation(ctx context.Context, location string) ([]model.FittedParams, error) {
	sh := s.shardFor(location)
	sh.mu.RLock()
	var out []model.FittedParams
	for k, p := range sh.params {
		if k.Location == location {
			out = append(out, model.FittedParams{Key: k, Params: p})
		}
	}
	sh.mu.RUnlock()

	if len(out) == 0 {
		return nil, fmt.Errorf("location %q: %w", location, ErrNotFound)
	}
	sortFitted(out)
	return out, nil
}

// All returns a sorted copy of every entry.
func (s *ShardedStore) All(ctx context.Context) []model.FittedParams {
	var out []model.FittedParams
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, p := range sh.params {
			out = append(out, model.FittedParams{Key: k, Params: p})
		}
		sh.mu.RUnlock()
	}
	sortFitted(out)
	return out
}

// Locations returns the distinct locations held by the store.
func (s *ShardedStore) Locations(ctx context.Context) []string {
	seen := make(map[string]struct{})
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.params {
			seen[k.Location] = struct{}{}
		}
		sh.mu.RUnlock()
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of stored keys.
func (s *ShardedStore) Count(ctx context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.params)
		sh.mu.RUnlock()
	}
	return n
}

func sortFitted(out []model.FittedParams) {
	sort.Slice(out, func(i, j int) bool {
		return model.KeyLess(out[i].Key, out[j].Key)
	})
}

// startMetricsUpdater periodically publishes per-shard record counts.
func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *ShardedStore) updateMetrics() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.params)
		sh.mu.RUnlock()
		total += n
		metrics.UpdateRepositoryRecordsPerShard("shard_"+strconv.Itoa(i), n)
	}
	metrics.UpdateRepositoryRecordsTotal(total)
}
