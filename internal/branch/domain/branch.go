// Package domain holds the branch model. Branches are owned by the branch
// directory; the authorization core only reads ids and membership.
package domain

import "time"

// Branch is an organizational sub-unit (a physical gym location).
type Branch struct {
	ID        string
	Name      string
	OrgID     string
	Status    BranchStatus
	CreatedAt time.Time
}

type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusInactive BranchStatus = "inactive"
)
