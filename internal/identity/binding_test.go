package identity

import (
	"context"
	"errors"
	"testing"

	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
	"fitdesk/backend/internal/role"
	roledomain "fitdesk/backend/internal/role/domain"
)

// mockBindingRepo implements the binding repository for tests.
type mockBindingRepo struct {
	bindings map[string]*domain.Binding
	err      error
}

func (m *mockBindingRepo) GetBinding(ctx context.Context, userID string) (*domain.Binding, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bindings[userID], nil
}

// mockAudit records events for assertions.
type mockAudit struct {
	actions []string
}

func (m *mockAudit) Event(ctx context.Context, orgID, actorID, action, resourceType, resourceID, metadata string) {
	m.actions = append(m.actions, action)
}

func activeBinding(userID string) *domain.Binding {
	return &domain.Binding{
		UserID:            userID,
		Name:              "Test User",
		CustomPermissions: permission.NewSet(),
		DeniedPermissions: permission.NewSet(),
		IsActive:          true,
	}
}

func TestBinding_Resolve_NilPrincipal(t *testing.T) {
	b := NewBinding(role.NewRegistry(nil), &mockBindingRepo{}, nil)
	user, err := b.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user != nil {
		t.Fatal("nil principal must resolve to nil user")
	}
}

func TestBinding_Resolve_UnrecognizedUser(t *testing.T) {
	b := NewBinding(role.NewRegistry(nil), &mockBindingRepo{bindings: map[string]*domain.Binding{}}, nil)
	user, err := b.Resolve(context.Background(), &domain.Principal{ID: "u1", Role: roledomain.RoleAdmin})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user != nil {
		t.Fatal("principal without a binding must resolve to nil, not an error")
	}
}

func TestBinding_Resolve_InactiveUser(t *testing.T) {
	rec := activeBinding("u1")
	rec.IsActive = false
	repo := &mockBindingRepo{bindings: map[string]*domain.Binding{"u1": rec}}
	b := NewBinding(role.NewRegistry(nil), repo, nil)

	user, err := b.Resolve(context.Background(), &domain.Principal{ID: "u1", Role: roledomain.RoleAdmin})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user != nil {
		t.Fatal("inactive user must resolve to nil (fail closed)")
	}
}

func TestBinding_Resolve_JoinsRoleAndOverrides(t *testing.T) {
	rec := activeBinding("u1")
	rec.CustomPermissions = permission.NewSet(permission.ClassesEdit)
	rec.DeniedPermissions = permission.NewSet(permission.FinanceEdit)
	rec.AssignedBranches = domain.BranchAssignment{IDs: []string{"b1"}}
	repo := &mockBindingRepo{bindings: map[string]*domain.Binding{"u1": rec}}
	b := NewBinding(role.NewRegistry(nil), repo, nil)

	user, err := b.Resolve(context.Background(), &domain.Principal{
		ID: "u1", Email: "u1@example.com", Role: roledomain.RoleTeam,
		TeamRole: roledomain.TeamRoleStaff, BranchID: "b1", OrgID: "org1",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user == nil {
		t.Fatal("expected a resolved user")
	}
	if got := user.PrimaryRole(); got == nil || got.ID != roledomain.RoleTeam {
		t.Fatalf("primary role = %v, want team", got)
	}
	if !user.CustomPermissions.Has(permission.ClassesEdit) {
		t.Error("custom grant lost during resolution")
	}
	if !user.DeniedPermissions.Has(permission.FinanceEdit) {
		t.Error("denial lost during resolution")
	}
	if !user.AssignedBranches.Contains("b1") || user.AssignedBranches.Contains("b2") {
		t.Error("assigned branches not carried over")
	}
	if user.ResolvedAt.IsZero() {
		t.Error("ResolvedAt should be set")
	}
}

func TestBinding_Resolve_UnknownRole_EmptyRolesAndAudited(t *testing.T) {
	repo := &mockBindingRepo{bindings: map[string]*domain.Binding{"u1": activeBinding("u1")}}
	auditLog := &mockAudit{}
	b := NewBinding(role.NewRegistry(nil), repo, auditLog)

	user, err := b.Resolve(context.Background(), &domain.Principal{ID: "u1", Role: "ghost-role", OrgID: "org1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user == nil {
		t.Fatal("unknown role still resolves a user (with no permissions)")
	}
	if len(user.Roles) != 0 {
		t.Fatalf("roles = %d, want 0", len(user.Roles))
	}
	if len(auditLog.actions) != 1 || auditLog.actions[0] != "resolve_unknown_role" {
		t.Errorf("audit actions = %v, want [resolve_unknown_role]", auditLog.actions)
	}
}

func TestBinding_Resolve_RepositoryError(t *testing.T) {
	repo := &mockBindingRepo{err: errors.New("db down")}
	b := NewBinding(role.NewRegistry(nil), repo, nil)
	_, err := b.Resolve(context.Background(), &domain.Principal{ID: "u1", Role: roledomain.RoleAdmin})
	if err == nil {
		t.Fatal("repository failure must surface to the resolution caller")
	}
}

func TestStaticProvider_SetNotifiesSubscribers(t *testing.T) {
	p := NewStaticProvider(nil)
	calls := 0
	p.OnChange(func() { calls++ })

	p.Set(&domain.Principal{ID: "u1"})
	p.Set(nil)

	if calls != 2 {
		t.Fatalf("subscriber calls = %d, want 2", calls)
	}
	got, err := p.CurrentPrincipal(context.Background())
	if err != nil || got != nil {
		t.Fatalf("CurrentPrincipal after sign-out = (%v, %v), want (nil, nil)", got, err)
	}
}
