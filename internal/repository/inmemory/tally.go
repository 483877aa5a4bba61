package inmemory

import (
	"time"

	tallydomain "ballot-app-go/internal/domain/tally"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultTallyCacheSize = 256
	DefaultTallyCacheTTL  = 10 * time.Minute
)

// InMemoryTallyCache keeps computed tallies per ballot. Values are cloned on
// the way in and out so callers never share slices with the cache.
type InMemoryTallyCache struct {
	items *expirable.LRU[string, *tallydomain.BallotTally]
}

func NewInMemoryTallyCache(size int, ttl time.Duration) *InMemoryTallyCache {
	if size <= 0 {
		size = DefaultTallyCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTallyCacheTTL
	}
	return &InMemoryTallyCache{
		items: expirable.NewLRU[string, *tallydomain.BallotTally](size, nil, ttl),
	}
}

func (c *InMemoryTallyCache) Get(ballotID string) (*tallydomain.BallotTally, bool) {
	item, ok := c.items.Get(ballotID)
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

func (c *InMemoryTallyCache) Set(ballotID string, tally *tallydomain.BallotTally) {
	if tally == nil {
		c.items.Remove(ballotID)
		return
	}
	c.items.Add(ballotID, tally.Clone())
}

func (c *InMemoryTallyCache) Invalidate(ballotID string) {
	c.items.Remove(ballotID)
}

func (c *InMemoryTallyCache) Len() int {
	return c.items.Len()
}
