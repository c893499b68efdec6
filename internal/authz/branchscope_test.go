package authz

import (
	"testing"

	branchdomain "fitdesk/backend/internal/branch/domain"
	"fitdesk/backend/internal/identity/domain"
	roledomain "fitdesk/backend/internal/role/domain"
)

func directoryOf(ids ...string) []*branchdomain.Branch {
	out := make([]*branchdomain.Branch, len(ids))
	for i, id := range ids {
		out[i] = &branchdomain.Branch{ID: id, OrgID: "org1", Status: branchdomain.BranchStatusActive}
	}
	return out
}

func TestCanAccessBranch_NilUser(t *testing.T) {
	if CanAccessBranch(nil, "b1", directoryOf("b1"), true) {
		t.Error("nil user must be denied")
	}
	if got := AccessibleBranches(nil, directoryOf("b1"), true); len(got) != 0 {
		t.Errorf("AccessibleBranches(nil) = %v, want empty", got)
	}
	if got := CurrentBranchID(nil, directoryOf("b1")); got != "" {
		t.Errorf("CurrentBranchID(nil) = %q, want empty", got)
	}
}

func TestCanAccessBranch_GlobalScope_AnyBranch(t *testing.T) {
	user := userWithRole(t, roledomain.RoleSuperAdmin)
	for _, id := range []string{"b1", "other-org-branch", "not-in-any-directory", ""} {
		if !CanAccessBranch(user, id, nil, false) {
			t.Errorf("super-admin denied %q; global scope must be unrestricted for every string", id)
		}
	}
}

func TestCanAccessBranch_EmptyID_DeniedBelowGlobalScope(t *testing.T) {
	dir := directoryOf("b1", "b2")
	for _, roleID := range []string{roledomain.RoleAdmin, roledomain.RoleTeam, roledomain.RoleMember} {
		if CanAccessBranch(userWithRole(t, roleID), "", dir, true) {
			t.Errorf("%s granted the empty branch id; nothing in the directory matches it", roleID)
		}
	}
}

func TestAccessibleBranches_GlobalScope_Sentinel(t *testing.T) {
	user := userWithRole(t, roledomain.RoleSuperAdmin)
	got := AccessibleBranches(user, directoryOf("b1", "b2"), true)
	if len(got) != 1 || got[0] != AllBranches {
		t.Fatalf("AccessibleBranches = %v, want [all]", got)
	}
}

func TestCanAccessBranch_AdminOrgBound(t *testing.T) {
	user := userWithRole(t, roledomain.RoleAdmin)
	dir := directoryOf("b1", "b2")
	if !CanAccessBranch(user, "b1", dir, true) || !CanAccessBranch(user, "b2", dir, true) {
		t.Error("admin should reach every directory-listed branch")
	}
	if CanAccessBranch(user, "b3-other-org", dir, true) {
		t.Error("admin must not reach a branch outside the directory listing")
	}
	got := AccessibleBranches(user, dir, true)
	if len(got) != 2 || got[0] != "b1" || got[1] != "b2" {
		t.Errorf("AccessibleBranches = %v, want [b1 b2]", got)
	}
}

func TestCanAccessBranch_TeamManagerOrgBound(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	user.TeamRole = roledomain.TeamRoleManager
	user.AssignedBranches = domain.BranchAssignment{IDs: []string{"b1"}}
	dir := directoryOf("b1", "b2")
	if !CanAccessBranch(user, "b2", dir, true) {
		t.Error("team manager reach is organization-wide, not assignment-bound")
	}
}

func TestCanAccessBranch_NarrowScope_AssignedOnly(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	user.TeamRole = roledomain.TeamRoleStaff
	user.AssignedBranches = domain.BranchAssignment{IDs: []string{"b1"}}
	dir := directoryOf("b1", "b2")

	if !CanAccessBranch(user, "b1", dir, true) {
		t.Error("staff should reach their assigned branch")
	}
	if CanAccessBranch(user, "b2", dir, true) {
		t.Error("staff must not reach an unassigned branch of the same organization")
	}
	got := AccessibleBranches(user, dir, true)
	if len(got) != 1 || got[0] != "b1" {
		t.Errorf("AccessibleBranches = %v, want [b1]", got)
	}
}

func TestCanAccessBranch_AssignmentOutsideDirectoryDenied(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	user.AssignedBranches = domain.BranchAssignment{IDs: []string{"closed-branch"}}
	if CanAccessBranch(user, "closed-branch", directoryOf("b1"), true) {
		t.Error("an assignment to a branch absent from the directory listing must not grant access")
	}
}

func TestCanAccessBranch_AllAssignment(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	user.AssignedBranches = domain.BranchAssignment{All: true}
	dir := directoryOf("b1", "b2")
	if !CanAccessBranch(user, "b1", dir, true) || !CanAccessBranch(user, "b2", dir, true) {
		t.Error("all-branches assignment should reach every listed branch")
	}
	if CanAccessBranch(user, "b3", dir, true) {
		t.Error("all-branches assignment is still bounded by the directory listing")
	}
}

func TestCanAccessBranch_DirectoryUnavailable(t *testing.T) {
	admin := userWithRole(t, roledomain.RoleAdmin)
	if CanAccessBranch(admin, "b1", nil, false) {
		t.Error("org-bound role must be denied while the directory is unavailable")
	}
	if got := AccessibleBranches(admin, nil, false); len(got) != 0 {
		t.Errorf("AccessibleBranches = %v, want empty while directory down", got)
	}

	super := userWithRole(t, roledomain.RoleSuperAdmin)
	if !CanAccessBranch(super, "b1", nil, false) {
		t.Error("global scope does not depend on directory contents")
	}
	if got := AccessibleBranches(super, nil, false); len(got) != 1 || got[0] != AllBranches {
		t.Errorf("AccessibleBranches = %v, want [all] while directory down", got)
	}
}

func TestCanAccessBranch_UnknownRoleNoAccess(t *testing.T) {
	user := &domain.UserWithRoles{ID: "u1", Role: "ghost", AssignedBranches: domain.BranchAssignment{IDs: []string{"b1"}}}
	if CanAccessBranch(user, "b1", directoryOf("b1"), true) {
		t.Error("a user with no recognized role must have no branch access")
	}
	if got := AccessibleBranches(user, directoryOf("b1"), true); len(got) != 0 {
		t.Errorf("AccessibleBranches = %v, want empty", got)
	}
}

func TestCurrentBranchID_Selection(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	user.BranchID = "b9"
	if got := CurrentBranchID(user, directoryOf("b1", "b2")); got != "b9" {
		t.Errorf("home branch should win, got %q", got)
	}

	user.BranchID = ""
	if got := CurrentBranchID(user, directoryOf("b1", "b2")); got != "b1" {
		t.Errorf("first directory branch should be selected, got %q", got)
	}
	if got := CurrentBranchID(user, nil); got != "" {
		t.Errorf("no home branch and empty directory should yield empty, got %q", got)
	}
}

func TestCurrentBranchID_StableForSnapshot(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	dir := directoryOf("b2", "b5")
	first := CurrentBranchID(user, dir)
	for i := 0; i < 5; i++ {
		if got := CurrentBranchID(user, dir); got != first {
			t.Fatalf("selection drifted from %q to %q", first, got)
		}
	}
}
