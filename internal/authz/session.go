package authz

import (
	"context"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fitdesk/backend/internal/branch"
	branchdomain "fitdesk/backend/internal/branch/domain"
	"fitdesk/backend/internal/identity"
	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
)

// defaultCacheTTL bounds how long a memoized decision may live. The cache is
// also keyed by snapshot generation, so the TTL only limits memory growth.
const defaultCacheTTL = 5 * time.Minute

// snapshot is one atomically published resolution result. Decisions read a
// single snapshot pointer, so no decision ever mixes data from two
// resolutions.
type snapshot struct {
	gen         uint64
	user        *domain.UserWithRoles
	branches    []*branchdomain.Branch
	directoryOK bool
}

// Session owns the resolved user snapshot for one client session and exposes
// the synchronous decision API. All decision methods are non-blocking reads
// over in-memory state; only Refresh touches the identity provider and the
// branch directory.
type Session struct {
	provider  identity.Provider
	binding   *identity.Binding
	directory branch.Directory

	refreshMu sync.Mutex
	gen       atomic.Uint64
	snap      atomic.Pointer[snapshot]

	memo      *gocache.Cache
	decisions metric.Int64Counter
}

// NewSession wires a session over the given collaborators. If provider
// signals principal changes, the session re-resolves on every notification.
// cacheTTL bounds the decision memo (DECISION_CACHE_TTL in the server
// config); zero or negative means defaultCacheTTL. The session starts
// unresolved; call Refresh to populate it.
func NewSession(provider identity.Provider, binding *identity.Binding, directory branch.Directory, cacheTTL time.Duration) *Session {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	s := &Session{
		provider:  provider,
		binding:   binding,
		directory: directory,
		memo:      gocache.New(cacheTTL, 2*cacheTTL),
	}
	s.snap.Store(&snapshot{})

	meter := otel.Meter("fitdesk/backend/internal/authz")
	counter, err := meter.Int64Counter("authz.decisions",
		metric.WithDescription("Permission and branch access decisions by outcome"))
	if err != nil {
		log.Printf("authz: decisions counter: %v", err)
	} else {
		s.decisions = counter
	}

	if cn, ok := provider.(identity.ChangeNotifier); ok {
		cn.OnChange(func() {
			if err := s.Refresh(context.Background()); err != nil {
				log.Printf("authz: refresh after principal change: %v", err)
			}
		})
	}
	return s
}

// Refresh re-runs identity binding and the branch directory fetch, then
// publishes the result as a new snapshot. If a newer Refresh committed while
// this one was in flight, the stale result is discarded. Resolution failures
// publish an empty (fail-closed) snapshot rather than returning decisions
// based on stale identity; the error is returned for operational visibility.
func (s *Session) Refresh(ctx context.Context) error {
	myGen := s.gen.Add(1)

	next := &snapshot{gen: myGen}
	principal, err := s.provider.CurrentPrincipal(ctx)
	if err == nil && principal != nil {
		next.user, err = s.binding.Resolve(ctx, principal)
	}
	if err == nil && next.user != nil && s.directory != nil && next.user.OrgID != "" {
		branches, dirErr := s.directory.ListBranches(ctx, next.user.OrgID)
		if dirErr != nil {
			log.Printf("authz: branch directory: %v", dirErr)
		} else {
			next.branches = branches
			next.directoryOK = true
		}
	}
	if err != nil {
		next.user = nil
		next.branches = nil
		next.directoryOK = false
	}

	s.commit(next)
	return err
}

// Invalidate discards the snapshot on sign-out. All subsequent decisions fail
// closed until the next Refresh.
func (s *Session) Invalidate() {
	s.commit(&snapshot{gen: s.gen.Add(1)})
}

// commit publishes next unless a newer generation already committed.
func (s *Session) commit(next *snapshot) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if cur := s.snap.Load(); cur != nil && cur.gen > next.gen {
		return
	}
	s.snap.Store(next)
	// Memoized decisions are keyed by generation; flushing just bounds memory.
	s.memo.Flush()
}

// CurrentUser returns the resolved user of the current snapshot, or nil.
// The returned value is read-only by contract.
func (s *Session) CurrentUser() *domain.UserWithRoles {
	return s.snap.Load().user
}

// HasPermission reports whether the current user holds p. Memoized per
// snapshot; a snapshot swap invalidates all previous answers.
func (s *Session) HasPermission(p permission.Permission) bool {
	return s.decide(s.snap.Load(), p)
}

// HasAnyPermission is the logical OR of HasPermission over perms. Every
// element is evaluated against the same snapshot, so a concurrent Refresh can
// never yield an answer no single snapshot permits.
func (s *Session) HasAnyPermission(perms []permission.Permission) bool {
	snap := s.snap.Load()
	if snap.user == nil {
		return false
	}
	for _, p := range perms {
		if s.decide(snap, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is the logical AND of HasPermission over perms, evaluated
// against one snapshot like HasAnyPermission.
func (s *Session) HasAllPermissions(perms []permission.Permission) bool {
	snap := s.snap.Load()
	if snap.user == nil {
		return false
	}
	for _, p := range perms {
		if !s.decide(snap, p) {
			return false
		}
	}
	return true
}

// decide answers one permission question for one snapshot, memoizing under
// the snapshot's generation.
func (s *Session) decide(snap *snapshot, p permission.Permission) bool {
	key := memoKey(snap.gen, p)
	if v, ok := s.memo.Get(key); ok {
		return v.(bool)
	}
	allowed := HasPermission(snap.user, p)
	s.memo.SetDefault(key, allowed)
	s.count("permission", allowed)
	return allowed
}

// CanAccessResource checks the "resource.action" tag built from its parts.
func (s *Session) CanAccessResource(resource, action string) bool {
	return s.HasPermission(permission.Join(resource, action))
}

// CanAccessBranch decides branch access against the current snapshot.
func (s *Session) CanAccessBranch(branchID string) bool {
	snap := s.snap.Load()
	allowed := CanAccessBranch(snap.user, branchID, snap.branches, snap.directoryOK)
	s.count("branch", allowed)
	return allowed
}

// AccessibleBranches enumerates accessible branch ids, or the ["all"]
// sentinel for global scope.
func (s *Session) AccessibleBranches() []string {
	snap := s.snap.Load()
	return AccessibleBranches(snap.user, snap.branches, snap.directoryOK)
}

// CurrentBranchID returns the stable current-branch selection, or "".
func (s *Session) CurrentBranchID() string {
	snap := s.snap.Load()
	return CurrentBranchID(snap.user, snap.branches)
}

// UserPermissions returns the current effective permission set, sorted.
func (s *Session) UserPermissions() []permission.Permission {
	return UserPermissions(s.snap.Load().user)
}

func (s *Session) count(kind string, allowed bool) {
	if s.decisions == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	s.decisions.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
}

// memoKey scopes a cached decision to one snapshot generation, so a swap can
// never serve a stale answer.
func memoKey(gen uint64, p permission.Permission) string {
	return strconv.FormatUint(gen, 10) + ":" + string(p)
}
