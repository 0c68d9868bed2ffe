package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sampletrack/internal/domain"
)

// GrantLoader reads the full permission table.
type GrantLoader interface {
	LoadGrants(ctx context.Context) ([]Grant, error)
}

// DefaultCacheTTL bounds how stale a cached policy may be.
const DefaultCacheTTL = 5 * time.Minute

// Cache is a read-through cache of the permission table. The whole table is
// one snapshot; Invalidate drops it so the next read reloads.
type Cache struct {
	loader GrantLoader
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	policy    *Policy
	expiresAt time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache. A non-positive ttl falls back to DefaultCacheTTL.
func NewCache(loader GrantLoader, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{loader: loader, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Policy returns the cached snapshot, loading it when absent or expired.
func (c *Cache) Policy(ctx context.Context) (*Policy, error) {
	c.mu.RLock()
	p, exp := c.policy, c.expiresAt
	c.mu.RUnlock()
	if p != nil && c.now().Before(exp) {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.policy != nil && c.now().Before(c.expiresAt) {
		return c.policy, nil
	}
	grants, err := c.loader.LoadGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	c.policy = NewPolicy(grants)
	c.expiresAt = c.now().Add(c.ttl)
	return c.policy, nil
}

// Evaluate loads the policy and evaluates (role, feature, action). The error
// is only non-nil when the table could not be loaded.
func (c *Cache) Evaluate(ctx context.Context, role domain.Role, feature string, action domain.Action) (Decision, error) {
	p, err := c.Policy(ctx)
	if err != nil {
		return Decision{}, err
	}
	return p.Evaluate(role, feature, action), nil
}

// Authorize is Evaluate folded into a single error: a load failure, a
// *domain.ForbiddenError, or nil.
func (c *Cache) Authorize(ctx context.Context, role domain.Role, feature string, action domain.Action) error {
	d, err := c.Evaluate(ctx, role, feature, action)
	if err != nil {
		return err
	}
	return d.Err()
}

// Invalidate drops the snapshot. Called after every permission write.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.policy = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
