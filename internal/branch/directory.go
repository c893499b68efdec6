// Package branch exposes the branch directory: the read-only collaborator the
// branch scope resolver consults for an organization's branches.
package branch

import (
	"context"
	"errors"

	"fitdesk/backend/internal/branch/domain"
)

// ErrDirectoryUnavailable wraps lookup failures so callers can degrade to
// fail-closed branch decisions instead of propagating the error.
var ErrDirectoryUnavailable = errors.New("branch: directory unavailable")

// Directory lists the active branches of an organization.
type Directory interface {
	ListBranches(ctx context.Context, orgID string) ([]*domain.Branch, error)
}
