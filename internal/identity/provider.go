// Package identity resolves the authenticated principal into the richer
// user-with-roles record the authorization core makes decisions over.
package identity

import (
	"context"
	"sync"

	"fitdesk/backend/internal/identity/domain"
)

// Provider supplies the currently authenticated principal. Implementations
// wrap token claims, an upstream session store, or fixed fixtures in tests.
// CurrentPrincipal returns (nil, nil) when nobody is signed in.
type Provider interface {
	CurrentPrincipal(ctx context.Context) (*domain.Principal, error)
}

// ChangeNotifier is implemented by providers that can signal principal
// changes (sign-in, sign-out, role edits). Subscribers re-run identity
// binding on every notification.
type ChangeNotifier interface {
	OnChange(fn func())
}

// StaticProvider holds a principal set explicitly. It is the provider used
// for long-lived client sessions (the upstream auth layer calls Set on
// sign-in/out) and for tests.
type StaticProvider struct {
	mu          sync.RWMutex
	principal   *domain.Principal
	subscribers []func()
}

// NewStaticProvider returns a provider holding p, which may be nil.
func NewStaticProvider(p *domain.Principal) *StaticProvider {
	return &StaticProvider{principal: p}
}

// CurrentPrincipal returns the held principal, or (nil, nil) when unset.
func (s *StaticProvider) CurrentPrincipal(ctx context.Context) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal, nil
}

// Set replaces the principal (nil on sign-out) and notifies subscribers.
func (s *StaticProvider) Set(p *domain.Principal) {
	s.mu.Lock()
	s.principal = p
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// OnChange registers fn to run after every Set.
func (s *StaticProvider) OnChange(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}
