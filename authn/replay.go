package authn

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultReplayCacheSize = 10000
	defaultReplayCacheTTL  = 10 * time.Minute
)

// ReplayCache remembers recently observed assertion jti values so a captured
// client assertion cannot authenticate twice inside its validity window.
// Entries expire with the cache TTL, which must cover the maximum assertion
// validity plus clock skew.
type ReplayCache struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func NewReplayCache(size int, ttl time.Duration) *ReplayCache {
	if size <= 0 {
		size = defaultReplayCacheSize
	}
	if ttl <= 0 {
		ttl = defaultReplayCacheTTL
	}
	return &ReplayCache{
		seen: expirable.NewLRU[string, struct{}](size, nil, ttl),
	}
}

// Observe records a jti for a client. Returns false when the jti was already
// observed, meaning the assertion is a replay.
func (c *ReplayCache) Observe(clientID, jti string) bool {
	key := clientID + "|" + jti

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, seen := c.seen.Get(key); seen {
		return false
	}
	c.seen.Add(key, struct{}{})
	return true
}
