// Package membership defines the Membership entity (role→user binding).
package membership

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Membership binds a role to a user within a tenant. Tokens never hold
// memberships; they carry explicit scope strings instead.
type Membership struct {
	ID        id.MembershipID `json:"id" db:"id"`
	TenantID  string          `json:"tenant_id" db:"tenant_id"`
	RoleID    id.RoleID       `json:"role_id" db:"role_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	GrantedBy string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing memberships.
type ListFilter struct {
	TenantID string     `json:"tenant_id,omitempty"`
	RoleID   *id.RoleID `json:"role_id,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
