// Package cache memoizes analysis results keyed by a content hash of the
// exact input tables and window parameter. The analyzer is pure, so a cache
// hit is always equivalent to recomputation; a new upload produces a new key.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/Gusta765/RUPTURAS/internal/config"
	"github.com/Gusta765/RUPTURAS/internal/domain"
)

const resultKeyPrefix = "ruptura:result"

// AnalysisCache stores flagged tables under content-derived keys.
type AnalysisCache interface {
	Get(ctx context.Context, key string) ([]domain.FlaggedProduct, bool, error)
	Set(ctx context.Context, key string, rows []domain.FlaggedProduct) error
	Invalidate(ctx context.Context, key string) error
	InvalidateAll(ctx context.Context) error
}

// NewAnalysisCache returns a redis-backed cache when caching is enabled and
// a no-op cache otherwise.
func NewAnalysisCache(cfg config.CacheConfig) (AnalysisCache, error) {
	if !cfg.Enabled {
		return NewNoopAnalysisCache(), nil
	}
	return newRedisAnalysisCache(cfg)
}

// ResultKey derives the cache key for one analysis invocation. The hash
// covers every field of every row of the three tables, in input order, plus
// the window length, so any change to the inputs changes the key.
func ResultKey(tables domain.InputTables, windowDays int) string {
	h := sha1.New()

	writeCount(h, "inventory", len(tables.Inventory))
	for _, r := range tables.Inventory {
		fmt.Fprintf(h, "%s\x1f%d\x1e", r.ProductID, r.StockQuantity)
	}

	writeCount(h, "sales", len(tables.Sales))
	for _, s := range tables.Sales {
		fmt.Fprintf(h, "%s\x1f%s\x1e", s.SaleID, s.Timestamp)
	}

	writeCount(h, "items", len(tables.LineItems))
	for _, it := range tables.LineItems {
		fmt.Fprintf(h, "%s\x1f%s\x1f%g\x1f%s\x1e", it.ProductID, it.SaleID, it.Quantity, it.UnitPrice)
	}

	fmt.Fprintf(h, "window=%d", windowDays)

	return fmt.Sprintf("%s:%s", resultKeyPrefix, hex.EncodeToString(h.Sum(nil)))
}

func writeCount(h hash.Hash, table string, n int) {
	fmt.Fprintf(h, "%s=%d\x1d", table, n)
}

type noopAnalysisCache struct{}

func NewNoopAnalysisCache() AnalysisCache {
	return &noopAnalysisCache{}
}

func (n *noopAnalysisCache) Get(ctx context.Context, key string) ([]domain.FlaggedProduct, bool, error) {
	return nil, false, nil
}

func (n *noopAnalysisCache) Set(ctx context.Context, key string, rows []domain.FlaggedProduct) error {
	return nil
}

func (n *noopAnalysisCache) Invalidate(ctx context.Context, key string) error {
	return nil
}

func (n *noopAnalysisCache) InvalidateAll(ctx context.Context) error {
	return nil
}
