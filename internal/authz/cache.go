package authz

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DecisionCache memoizes aggregated grant sets keyed by the pair's version
// vector hash. Because every entity mutation changes the hash, stale entries
// are never served: they simply stop being addressed and age out of the LRU.
type DecisionCache struct {
	cache  *lru.Cache[string, *GrantSet]
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

func NewDecisionCache(size int) (*DecisionCache, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, *GrantSet](size)
	if err != nil {
		return nil, err
	}
	return &DecisionCache{cache: c}, nil
}

func cacheKey(userID, workspaceID primitive.ObjectID, vectorHash string) string {
	return fmt.Sprintf("%s|%s|%s", userID.Hex(), workspaceID.Hex(), vectorHash)
}

// Get returns the cached grant set for the pair at the given vector hash.
func (c *DecisionCache) Get(userID, workspaceID primitive.ObjectID, vectorHash string) (*GrantSet, bool) {
	set, ok := c.cache.Get(cacheKey(userID, workspaceID, vectorHash))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return set, ok
}

func (c *DecisionCache) Put(userID, workspaceID primitive.ObjectID, vectorHash string, set *GrantSet) {
	c.cache.Add(cacheKey(userID, workspaceID, vectorHash), set)
}

func (c *DecisionCache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.cache.Len(),
	}
}
