package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
	"github.com/adityaaa08012006/decivue-sub004/internal/domain"
	"github.com/adityaaa08012006/decivue-sub004/internal/metrics"
)

// CachedStore decorates a collaborators.Store with an in-process LRU cache
// over GetDecision, the store's hottest read path (the Scheduler and every
// query-side command fetch a decision before doing anything else). Writes
// go straight through to the underlying store and evict the cached entry,
// so the cache can never serve a decision that's been superseded by a
// SaveDecision in the same process.
type CachedStore struct {
	collaborators.Store
	decisions *lru.Cache[string, domain.Decision]
	metrics   *metrics.StoreMetrics
}

// NewCachedStore wraps inner with an LRU of the given size over decision
// reads.
func NewCachedStore(inner collaborators.Store, size int, m *metrics.StoreMetrics) (*CachedStore, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, domain.Decision](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{Store: inner, decisions: c, metrics: m}, nil
}

func cacheKey(orgID, decisionID string) string { return orgID + ":" + decisionID }

func (c *CachedStore) recordHit(hit bool) {
	if c.metrics == nil || c.metrics.CacheHitsTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CacheHitsTotal.WithLabelValues(result).Inc()
}

func (c *CachedStore) GetDecision(ctx context.Context, orgID, decisionID string) (*domain.Decision, error) {
	if d, ok := c.decisions.Get(cacheKey(orgID, decisionID)); ok {
		c.recordHit(true)
		cp := d
		return &cp, nil
	}
	c.recordHit(false)

	d, err := c.Store.GetDecision(ctx, orgID, decisionID)
	if err != nil {
		return nil, err
	}
	c.decisions.Add(cacheKey(orgID, decisionID), *d)
	return d, nil
}

func (c *CachedStore) SaveDecision(ctx context.Context, d domain.Decision) error {
	if err := c.Store.SaveDecision(ctx, d); err != nil {
		return err
	}
	c.decisions.Remove(cacheKey(d.Organization, d.ID))
	return nil
}

// WithTx must bypass the embedded Store's WithTx directly; any write inside
// fn that calls SaveDecision still goes through this decorator (the inner
// store is only reached via the embedded Store field, and Go's method
// promotion means CachedStore.SaveDecision already shadows it), so cache
// invalidation still happens even for writes issued inside a transaction.
func (c *CachedStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.Store.WithTx(ctx, fn)
}
