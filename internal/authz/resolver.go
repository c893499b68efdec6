// Package authz is the decision core: pure permission and branch-scope
// resolution over an already-resolved user snapshot, plus the session that
// owns the snapshot. Every predicate fails closed: a nil user, an unknown
// tag, or an unavailable collaborator yields false or an empty result, never
// an error.
package authz

import (
	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
)

// Effective computes the user's effective permission set:
//
//	(union of role permissions ∪ custom grants) \ denials
//
// The subtraction happens last, so a denial wins no matter how many roles or
// grants confer the tag. Tags outside the catalog are dropped; they are never
// implicitly granted. A nil user has an empty effective set.
func Effective(user *domain.UserWithRoles) permission.Set {
	out := permission.NewSet()
	if user == nil {
		return out
	}
	for _, role := range user.Roles {
		if role == nil {
			continue
		}
		for p := range role.Permissions {
			if permission.IsKnown(p) {
				out.Add(p)
			}
		}
	}
	for p := range user.CustomPermissions {
		if permission.IsKnown(p) {
			out.Add(p)
		}
	}
	for p := range user.DeniedPermissions {
		delete(out, p)
	}
	return out
}

// HasPermission reports whether p is in the user's effective set. Unknown
// tags and nil users evaluate to false.
func HasPermission(user *domain.UserWithRoles, p permission.Permission) bool {
	if user == nil || !permission.IsKnown(p) {
		return false
	}
	if user.DeniedPermissions.Has(p) {
		return false
	}
	if user.CustomPermissions.Has(p) {
		return true
	}
	for _, role := range user.Roles {
		if role != nil && role.Permissions.Has(p) {
			return true
		}
	}
	return false
}

// HasAnyPermission is the logical OR of HasPermission over perms.
func HasAnyPermission(user *domain.UserWithRoles, perms []permission.Permission) bool {
	if user == nil {
		return false
	}
	for _, p := range perms {
		if HasPermission(user, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is the logical AND of HasPermission over perms. A nil
// user fails even for an empty list.
func HasAllPermissions(user *domain.UserWithRoles, perms []permission.Permission) bool {
	if user == nil {
		return false
	}
	for _, p := range perms {
		if !HasPermission(user, p) {
			return false
		}
	}
	return true
}

// CanAccessResource checks the "resource.action" tag built from its parts.
func CanAccessResource(user *domain.UserWithRoles, resource, action string) bool {
	return HasPermission(user, permission.Join(resource, action))
}

// UserPermissions returns the effective set in lexical order, for diagnostic
// and UI-gating use (e.g. rendering a permissions matrix). Empty for nil.
func UserPermissions(user *domain.UserWithRoles) []permission.Permission {
	return Effective(user).Sorted()
}
