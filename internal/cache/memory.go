package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/Gusta765/RUPTURAS/internal/domain"
)

// memoryAnalysisCache is a process-local cache for single-instance
// deployments and tests. Stored slices are copied on both sides so callers
// can never mutate a cached result.
type memoryAnalysisCache struct {
	mu      sync.RWMutex
	entries map[string][]domain.FlaggedProduct
}

func NewMemoryAnalysisCache() AnalysisCache {
	return &memoryAnalysisCache{entries: make(map[string][]domain.FlaggedProduct)}
}

func (c *memoryAnalysisCache) Get(ctx context.Context, key string) ([]domain.FlaggedProduct, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]domain.FlaggedProduct, len(rows))
	copy(out, rows)
	return out, true, nil
}

func (c *memoryAnalysisCache) Set(ctx context.Context, key string, rows []domain.FlaggedProduct) error {
	stored := make([]domain.FlaggedProduct, len(rows))
	copy(stored, rows)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = stored
	return nil
}

func (c *memoryAnalysisCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryAnalysisCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, resultKeyPrefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
