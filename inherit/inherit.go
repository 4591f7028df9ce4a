// Package inherit defines role inheritance edges. An edge from a role to a
// parent role means the role inherits every rule granted to the parent,
// transitively, within the same tenant scope.
package inherit

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Edge links a role to one of its parent roles within a tenant. A role may
// have any number of parents; cycles are invalid and rejected at write time.
type Edge struct {
	ID        id.EdgeID `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	RoleID    id.RoleID `json:"role_id" db:"role_id"`
	ParentID  id.RoleID `json:"parent_id" db:"parent_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing inheritance edges.
type ListFilter struct {
	TenantID string     `json:"tenant_id,omitempty"`
	RoleID   *id.RoleID `json:"role_id,omitempty"`
	ParentID *id.RoleID `json:"parent_id,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
