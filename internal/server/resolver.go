package server

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"fitdesk/backend/internal/identity/domain"
)

// defaultResolveTTL bounds how long a cached resolution may serve requests
// when no TTL is configured.
const defaultResolveTTL = 5 * time.Minute

// CachingResolver memoizes identity resolution per principal so a burst of
// requests from one caller hits the store once. Staleness is bounded by the
// TTL (DECISION_CACHE_TTL) and by Flush, which the role write path calls
// after every successful mutation. Resolution errors and anonymous callers
// are never cached.
type CachingResolver struct {
	users UserResolver
	cache *gocache.Cache
}

// NewCachingResolver wraps users with a TTL cache. ttl zero or negative
// means defaultResolveTTL.
func NewCachingResolver(users UserResolver, ttl time.Duration) *CachingResolver {
	if ttl <= 0 {
		ttl = defaultResolveTTL
	}
	return &CachingResolver{
		users: users,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Resolve returns the cached user for p when present, otherwise delegates
// and caches the result. A nil result (unknown or inactive binding) is
// cached too: it keeps a revoked caller fail-closed without re-querying the
// store on every request.
func (c *CachingResolver) Resolve(ctx context.Context, p *domain.Principal) (*domain.UserWithRoles, error) {
	if p == nil || p.ID == "" {
		return nil, nil
	}
	if v, ok := c.cache.Get(p.ID); ok {
		u, _ := v.(*domain.UserWithRoles)
		return u, nil
	}
	user, err := c.users.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(p.ID, user)
	return user, nil
}

// Flush drops every cached resolution. Called after role mutations so
// permission changes reach the next request immediately.
func (c *CachingResolver) Flush() {
	c.cache.Flush()
}
