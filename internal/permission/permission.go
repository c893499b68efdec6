// Package permission defines the closed vocabulary of capability tags used to
// gate every screen and mutation in the application. Tags have the form
// "<resource>.<action>" and are compared by exact string match.
package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is an exact-match capability tag of the form "resource.action".
type Permission string

// Catalog permissions for the reference deployment. The set is fixed per
// deployment; roles and per-user overrides may only reference tags listed here.
const (
	MembersView   Permission = "members.view"
	MembersCreate Permission = "members.create"
	MembersEdit   Permission = "members.edit"
	MembersDelete Permission = "members.delete"

	FinanceView Permission = "finance.view"
	FinanceEdit Permission = "finance.edit"

	InvoicesView   Permission = "invoices.view"
	InvoicesCreate Permission = "invoices.create"

	ClassesView     Permission = "classes.view"
	ClassesEdit     Permission = "classes.edit"
	ClassesSchedule Permission = "classes.schedule"

	LockersView   Permission = "lockers.view"
	LockersAssign Permission = "lockers.assign"

	TrainersView   Permission = "trainers.view"
	TrainersManage Permission = "trainers.manage"

	SMSSend       Permission = "sms.send"
	SMSLogsExport Permission = "sms.logs.export"

	ReportsView   Permission = "reports.view"
	ReportsExport Permission = "reports.export"

	BranchesView   Permission = "branches.view"
	BranchesManage Permission = "branches.manage"

	RolesManage Permission = "roles.manage"
	UsersManage Permission = "users.manage"

	AuditView    Permission = "audit.view"
	SystemManage Permission = "system.manage"

	ProfileView Permission = "profile.view"
	ProfileEdit Permission = "profile.edit"
)

var catalog = map[Permission]struct{}{
	MembersView: {}, MembersCreate: {}, MembersEdit: {}, MembersDelete: {},
	FinanceView: {}, FinanceEdit: {},
	InvoicesView: {}, InvoicesCreate: {},
	ClassesView: {}, ClassesEdit: {}, ClassesSchedule: {},
	LockersView: {}, LockersAssign: {},
	TrainersView: {}, TrainersManage: {},
	SMSSend: {}, SMSLogsExport: {},
	ReportsView: {}, ReportsExport: {},
	BranchesView: {}, BranchesManage: {},
	RolesManage: {}, UsersManage: {},
	AuditView: {}, SystemManage: {},
	ProfileView: {}, ProfileEdit: {},
}

// IsKnown reports whether p is part of the deployment's permission catalog.
// Tags outside the catalog are never granted to any role.
func IsKnown(p Permission) bool {
	_, ok := catalog[p]
	return ok
}

// Catalog returns every permission in the catalog, sorted for stable output.
func Catalog() []Permission {
	out := make([]Permission, 0, len(catalog))
	for p := range catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Join builds the tag for a resource/action pair. The result is not required
// to exist in the catalog; callers check membership via IsKnown or by the
// resolver returning false.
func Join(resource, action string) Permission {
	return Permission(resource + "." + action)
}

// Resource returns the resource part of the tag (everything before the last
// dot, so "sms.logs.export" yields "sms.logs").
func (p Permission) Resource() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		return s[:i]
	}
	return s
}

// Action returns the action part of the tag, or "" if the tag has no dot.
func (p Permission) Action() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '.'); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return ""
}

// Validate checks every tag in perms against the catalog. Returns an error
// naming the first unknown tag, or nil if all are known.
func Validate(perms []Permission) error {
	for _, p := range perms {
		if !IsKnown(p) {
			return fmt.Errorf("unknown permission %q", p)
		}
	}
	return nil
}

// Set is a value-semantics permission set keyed by exact tag.
type Set map[Permission]struct{}

// NewSet builds a Set from the given tags.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is in the set.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p into the set.
func (s Set) Add(p Permission) { s[p] = struct{}{} }

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Sorted returns the set's tags in lexical order.
func (s Set) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
