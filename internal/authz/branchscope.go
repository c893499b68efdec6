package authz

import (
	branchdomain "fitdesk/backend/internal/branch/domain"
	"fitdesk/backend/internal/identity/domain"
	roledomain "fitdesk/backend/internal/role/domain"
)

// AllBranches is the sentinel returned by AccessibleBranches for global-scope
// roles, whose reach spans organizations and cannot be enumerated.
const AllBranches = "all"

// orgWide reports whether the user's reach covers every branch of their
// organization rather than only assigned branches. This holds for the admin
// role and for team managers; the sub-classification widens branch reach only,
// it never adds permissions.
func orgWide(user *domain.UserWithRoles) bool {
	primary := user.PrimaryRole()
	if primary == nil {
		return false
	}
	if primary.ID == roledomain.RoleAdmin {
		return true
	}
	return primary.ID == roledomain.RoleTeam && user.TeamRole == roledomain.TeamRoleManager
}

// CanAccessBranch decides access to branchID given the directory snapshot.
// directoryOK is false when the directory lookup failed; then every role
// except global scope is denied. Global scope is unrestricted even for branch
// ids absent from any directory listing.
func CanAccessBranch(user *domain.UserWithRoles, branchID string, branches []*branchdomain.Branch, directoryOK bool) bool {
	if user == nil {
		return false
	}
	primary := user.PrimaryRole()
	if primary == nil {
		// Unknown role at resolution time: no branch access.
		return false
	}
	if primary.Scope == roledomain.ScopeGlobal {
		return true
	}
	if !directoryOK {
		return false
	}
	listed := false
	for _, b := range branches {
		if b != nil && b.ID == branchID {
			listed = true
			break
		}
	}
	if !listed {
		return false
	}
	if orgWide(user) {
		return true
	}
	return user.AssignedBranches.Contains(branchID)
}

// AccessibleBranches enumerates the branch ids the user may access, or the
// ["all"] sentinel for global scope. Empty for nil users, unknown roles, and
// unavailable directories.
func AccessibleBranches(user *domain.UserWithRoles, branches []*branchdomain.Branch, directoryOK bool) []string {
	if user == nil {
		return nil
	}
	primary := user.PrimaryRole()
	if primary == nil {
		return nil
	}
	if primary.Scope == roledomain.ScopeGlobal {
		return []string{AllBranches}
	}
	if !directoryOK {
		return nil
	}
	wide := orgWide(user)
	var out []string
	for _, b := range branches {
		if b == nil {
			continue
		}
		if wide || user.AssignedBranches.Contains(b.ID) {
			out = append(out, b.ID)
		}
	}
	return out
}

// CurrentBranchID returns the user's home branch when set, otherwise the
// first branch of the directory snapshot, otherwise "". The directory is
// queried in stable id order, so the selection is deterministic for a given
// (user, snapshot) pair.
func CurrentBranchID(user *domain.UserWithRoles, branches []*branchdomain.Branch) string {
	if user == nil {
		return ""
	}
	if user.BranchID != "" {
		return user.BranchID
	}
	for _, b := range branches {
		if b != nil {
			return b.ID
		}
	}
	return ""
}
