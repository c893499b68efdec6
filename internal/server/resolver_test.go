package server

import (
	"context"
	"testing"
	"time"

	"fitdesk/backend/internal/identity/domain"
)

// countingResolver counts delegated resolutions.
type countingResolver struct {
	users map[string]*domain.UserWithRoles
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context, p *domain.Principal) (*domain.UserWithRoles, error) {
	c.calls++
	return c.users[p.ID], nil
}

func TestCachingResolver_Resolve_CachesPerPrincipal(t *testing.T) {
	inner := &countingResolver{users: map[string]*domain.UserWithRoles{
		"u1": {ID: "u1", IsActive: true},
	}}
	resolver := NewCachingResolver(inner, time.Minute)
	p := &domain.Principal{ID: "u1"}

	for i := 0; i < 3; i++ {
		user, err := resolver.Resolve(context.Background(), p)
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if user == nil || user.ID != "u1" {
			t.Fatalf("resolve %d: user = %+v, want u1", i, user)
		}
	}
	if inner.calls != 1 {
		t.Errorf("delegated calls = %d, want 1", inner.calls)
	}
}

func TestCachingResolver_Resolve_NilResultCached(t *testing.T) {
	inner := &countingResolver{users: map[string]*domain.UserWithRoles{}}
	resolver := NewCachingResolver(inner, time.Minute)
	p := &domain.Principal{ID: "ghost"}

	for i := 0; i < 2; i++ {
		user, err := resolver.Resolve(context.Background(), p)
		if err != nil || user != nil {
			t.Fatalf("resolve %d = (%v, %v), want (nil, nil)", i, user, err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("delegated calls = %d, want 1 (nil result should be cached)", inner.calls)
	}
}

func TestCachingResolver_Flush_ForcesReResolve(t *testing.T) {
	inner := &countingResolver{users: map[string]*domain.UserWithRoles{
		"u1": {ID: "u1", IsActive: true},
	}}
	resolver := NewCachingResolver(inner, time.Minute)
	p := &domain.Principal{ID: "u1"}

	if _, err := resolver.Resolve(context.Background(), p); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	resolver.Flush()
	if _, err := resolver.Resolve(context.Background(), p); err != nil {
		t.Fatalf("resolve after flush: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("delegated calls = %d, want 2 (flush must drop the cache)", inner.calls)
	}
}

func TestCachingResolver_Resolve_NilPrincipalAnonymous(t *testing.T) {
	inner := &countingResolver{users: map[string]*domain.UserWithRoles{}}
	resolver := NewCachingResolver(inner, time.Minute)

	user, err := resolver.Resolve(context.Background(), nil)
	if err != nil || user != nil {
		t.Fatalf("resolve(nil) = (%v, %v), want (nil, nil)", user, err)
	}
	if inner.calls != 0 {
		t.Errorf("delegated calls = %d, want 0", inner.calls)
	}
}
