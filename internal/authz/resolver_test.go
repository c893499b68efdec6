package authz

import (
	"testing"

	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
	"fitdesk/backend/internal/role"
	roledomain "fitdesk/backend/internal/role/domain"
)

// userWithRole builds a resolved user holding the given system role, no
// overrides.
func userWithRole(t *testing.T, roleID string) *domain.UserWithRoles {
	t.Helper()
	reg := role.NewRegistry(nil)
	def, err := reg.GetRole(roleID)
	if err != nil {
		t.Fatalf("GetRole(%s): %v", roleID, err)
	}
	return &domain.UserWithRoles{
		ID:                "u1",
		Role:              roleID,
		Roles:             []*roledomain.RoleDefinition{def},
		CustomPermissions: permission.NewSet(),
		DeniedPermissions: permission.NewSet(),
		IsActive:          true,
	}
}

func TestEffective_EqualsRolePermissions_NoOverrides(t *testing.T) {
	for _, roleID := range []string{roledomain.RoleSuperAdmin, roledomain.RoleAdmin, roledomain.RoleTeam, roledomain.RoleMember} {
		user := userWithRole(t, roleID)
		eff := Effective(user)
		rolePerms := user.Roles[0].Permissions
		if len(eff) != len(rolePerms) {
			t.Errorf("%s: effective size %d, role size %d", roleID, len(eff), len(rolePerms))
		}
		for p := range rolePerms {
			if !eff.Has(p) {
				t.Errorf("%s: effective missing %q", roleID, p)
			}
		}
	}
}

func TestHasPermission_RoleGrant(t *testing.T) {
	user := userWithRole(t, roledomain.RoleAdmin)
	if !HasPermission(user, permission.MembersEdit) {
		t.Error("admin should hold members.edit")
	}
	if HasPermission(user, permission.SystemManage) {
		t.Error("admin should not hold system.manage")
	}
}

func TestHasPermission_DenialWins(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	if !HasPermission(user, permission.FinanceView) {
		t.Fatal("team role should grant finance.view before the override")
	}
	user.DeniedPermissions.Add(permission.FinanceView)
	if HasPermission(user, permission.FinanceView) {
		t.Error("denial must win over the role grant")
	}
	if Effective(user).Has(permission.FinanceView) {
		t.Error("denied tag must not appear in the effective set")
	}
}

func TestHasPermission_DenialWinsOverCustomGrant(t *testing.T) {
	user := userWithRole(t, roledomain.RoleMember)
	user.CustomPermissions.Add(permission.ClassesEdit)
	user.DeniedPermissions.Add(permission.ClassesEdit)
	if HasPermission(user, permission.ClassesEdit) {
		t.Error("denial must win even against an explicit custom grant")
	}
}

func TestHasPermission_CustomGrantBeyondRole(t *testing.T) {
	user := userWithRole(t, roledomain.RoleMember)
	if HasPermission(user, permission.ClassesEdit) {
		t.Fatal("member role should not grant classes.edit by itself")
	}
	user.CustomPermissions.Add(permission.ClassesEdit)
	if !HasPermission(user, permission.ClassesEdit) {
		t.Error("custom grant should add classes.edit")
	}
}

func TestHasPermission_UnknownTagAlwaysFalse(t *testing.T) {
	user := userWithRole(t, roledomain.RoleSuperAdmin)
	if HasPermission(user, "warp.engage") {
		t.Error("tag outside the catalog must be false even for super-admin")
	}
	user.CustomPermissions.Add("warp.engage")
	if HasPermission(user, "warp.engage") {
		t.Error("custom grant of an unknown tag must not take effect")
	}
	if Effective(user).Has("warp.engage") {
		t.Error("unknown tag must not appear in the effective set")
	}
}

func TestHasPermission_NilUserFailsClosed(t *testing.T) {
	if HasPermission(nil, permission.MembersView) {
		t.Error("HasPermission(nil) must be false")
	}
	if HasAnyPermission(nil, []permission.Permission{permission.MembersView}) {
		t.Error("HasAnyPermission(nil) must be false")
	}
	if HasAllPermissions(nil, nil) {
		t.Error("HasAllPermissions(nil) must be false even for an empty list")
	}
	if CanAccessResource(nil, "members", "view") {
		t.Error("CanAccessResource(nil) must be false")
	}
	if got := UserPermissions(nil); len(got) != 0 {
		t.Errorf("UserPermissions(nil) = %v, want empty", got)
	}
}

func TestHasAnyPermission(t *testing.T) {
	user := userWithRole(t, roledomain.RoleMember)
	if !HasAnyPermission(user, []permission.Permission{permission.SystemManage, permission.ProfileView}) {
		t.Error("any-of with one held tag should pass")
	}
	if HasAnyPermission(user, []permission.Permission{permission.SystemManage, permission.FinanceEdit}) {
		t.Error("any-of with no held tags should fail")
	}
	if HasAnyPermission(user, nil) {
		t.Error("any-of over an empty list should fail")
	}
}

func TestHasAllPermissions(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	if !HasAllPermissions(user, []permission.Permission{permission.MembersView, permission.ClassesView}) {
		t.Error("all-of with held tags should pass")
	}
	if HasAllPermissions(user, []permission.Permission{permission.MembersView, permission.SystemManage}) {
		t.Error("all-of with one missing tag should fail")
	}
	if !HasAllPermissions(user, nil) {
		t.Error("all-of over an empty list should pass for a resolved user")
	}
}

func TestCanAccessResource_JoinsTag(t *testing.T) {
	user := userWithRole(t, roledomain.RoleAdmin)
	if !CanAccessResource(user, "members", "edit") {
		t.Error("canAccessResource(members, edit) should pass for admin")
	}
	if CanAccessResource(user, "system", "manage") {
		t.Error("canAccessResource(system, manage) should fail for admin")
	}
}

func TestResolver_Idempotent(t *testing.T) {
	user := userWithRole(t, roledomain.RoleTeam)
	user.DeniedPermissions.Add(permission.SMSSend)
	for i := 0; i < 3; i++ {
		if HasPermission(user, permission.SMSSend) {
			t.Fatalf("call %d: denied tag evaluated true", i)
		}
		if !HasPermission(user, permission.MembersView) {
			t.Fatalf("call %d: held tag evaluated false", i)
		}
	}
}

func TestUserPermissions_SortedEffective(t *testing.T) {
	user := userWithRole(t, roledomain.RoleMember)
	got := UserPermissions(user)
	if len(got) == 0 {
		t.Fatal("member should have a non-empty permission matrix")
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("not sorted: %q >= %q", got[i-1], got[i])
		}
	}
}

func TestHasPermission_MultipleRolesUnion(t *testing.T) {
	reg := role.NewRegistry(nil)
	member, _ := reg.GetRole(roledomain.RoleMember)
	team, _ := reg.GetRole(roledomain.RoleTeam)
	user := &domain.UserWithRoles{
		ID:                "u1",
		Roles:             []*roledomain.RoleDefinition{member, team},
		CustomPermissions: permission.NewSet(),
		DeniedPermissions: permission.NewSet(),
	}
	if !HasPermission(user, permission.MembersView) {
		t.Error("union of roles should include team's members.view")
	}
	if !HasPermission(user, permission.ProfileEdit) {
		t.Error("union of roles should include member's profile.edit")
	}
}
