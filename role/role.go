// Package role defines the Role entity and its store interface.
package role

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Role is a named bundle of permissions assignable to users within a tenant.
// Inheritance from other roles is modeled as explicit edges (see the inherit
// package), so a role may have any number of parents.
type Role struct {
	ID          id.RoleID      `json:"id" db:"id"`
	TenantID    string         `json:"tenant_id" db:"tenant_id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description,omitempty" db:"description"`
	IsSystem    bool           `json:"is_system" db:"is_system"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
