package cache

import (
	"context"
	"sync"
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/usecase/queries"
)

type memoryEntry struct {
	plan      *pricing.DayPlan
	expiresAt time.Time
}

// MemoryPlanCache is the in-process plan cache used when no Redis address
// is configured. Plans are immutable, so entries are shared as is.
type MemoryPlanCache struct {
	mu      sync.Mutex
	entries map[queries.PlanKey]memoryEntry
	ttl     time.Duration
	clock   clock.Clock
}

func NewMemoryPlanCache(ttl time.Duration, clk clock.Clock) *MemoryPlanCache {
	return &MemoryPlanCache{entries: make(map[queries.PlanKey]memoryEntry), ttl: ttl, clock: clk}
}

func (c *MemoryPlanCache) Get(_ context.Context, key queries.PlanKey) (*pricing.DayPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, nil
	}
	return e.plan, nil
}

// Set stores plan and drops every entry of an older catalog version.
func (c *MemoryPlanCache) Set(_ context.Context, key queries.PlanKey, plan *pricing.DayPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Version < key.Version {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{plan: plan, expiresAt: c.clock.Now().Add(c.ttl)}
	return nil
}
