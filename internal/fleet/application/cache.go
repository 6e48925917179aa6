package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	fleet "solarfleet/internal/fleet/domain"
	"solarfleet/internal/observability/metrics"
)

// SnapshotCache serves the latest fleet snapshot with a TTL. One mutex
// covers the whole check-refresh-store sequence, so concurrent readers of
// an expired cache trigger exactly one aggregation and the rest reuse its
// result. Readers always get deep copies; the cached snapshot is never
// handed out directly.
type SnapshotCache struct {
	refresh func(ctx context.Context) (fleet.Snapshot, error)
	ttl     time.Duration
	clock   Clock

	mu       sync.Mutex
	snapshot *fleet.Snapshot
	cachedAt time.Time
}

// CacheOption adjusts cache behavior.
type CacheOption func(*SnapshotCache)

func WithCacheClock(clock Clock) CacheOption {
	return func(c *SnapshotCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewSnapshotCache(refresh func(ctx context.Context) (fleet.Snapshot, error), ttl time.Duration, opts ...CacheOption) (*SnapshotCache, error) {
	if refresh == nil {
		return nil, errors.New("cache: nil refresh func")
	}
	if ttl <= 0 {
		return nil, errors.New("cache: non-positive ttl")
	}
	c := &SnapshotCache{
		refresh: refresh,
		ttl:     ttl,
		clock:   SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns a copy of the current snapshot, refreshing it first when the
// cached one has expired. A failed refresh is returned to the caller and
// leaves the cache empty, so the next request retries.
func (c *SnapshotCache) Get(ctx context.Context) (fleet.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.snapshot != nil && now.Sub(c.cachedAt) < c.ttl {
		metrics.IncCacheRequest(metrics.CacheHit)
		return c.copyOut(now), nil
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		metrics.IncCacheRequest(metrics.CacheError)
		c.snapshot = nil
		return fleet.Snapshot{}, err
	}
	c.snapshot = &snap
	c.cachedAt = now
	metrics.IncCacheRequest(metrics.CacheMiss)
	return c.copyOut(now), nil
}

// copyOut deep-copies the cached snapshot and extends its chart axis to
// the current wall clock, padding the new buckets with nulls. The cached
// original stays untouched.
func (c *SnapshotCache) copyOut(now time.Time) fleet.Snapshot {
	out := deepcopy.Copy(*c.snapshot).(fleet.Snapshot)
	axis := fleet.AxisThrough(now)
	if len(axis) > len(out.Chart.XAxis) {
		out.Chart.XAxis = axis
		out.Chart.Production = padNulls(out.Chart.Production, len(axis))
		out.Chart.Consumption = padNulls(out.Chart.Consumption, len(axis))
		out.Chart.SelfConsumption = padNulls(out.Chart.SelfConsumption, len(axis))
		out.Chart.Surplus = padNulls(out.Chart.Surplus, len(axis))
	}
	return out
}

func padNulls(values []*float64, n int) []*float64 {
	for len(values) < n {
		values = append(values, nil)
	}
	return values
}
