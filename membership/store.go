package membership

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for role memberships.
type Store interface {
	// CreateMembership persists a new membership. Granting the same role to
	// the same user in the same tenant twice is rejected.
	CreateMembership(ctx context.Context, m *Membership) error

	// GetMembership retrieves a membership by ID.
	GetMembership(ctx context.Context, membID id.MembershipID) (*Membership, error)

	// DeleteMembership removes a membership by ID.
	DeleteMembership(ctx context.Context, membID id.MembershipID) error

	// ListMemberships returns memberships matching the filter.
	ListMemberships(ctx context.Context, filter *ListFilter) ([]*Membership, error)

	// CountMemberships returns the number of memberships matching the filter.
	CountMemberships(ctx context.Context, filter *ListFilter) (int64, error)

	// ListRolesForUser returns role IDs directly assigned to a user in a tenant.
	ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error)

	// ListTenantsForUser returns the tenant IDs in which the user holds at
	// least one role.
	ListTenantsForUser(ctx context.Context, userID string) ([]string, error)

	// DeleteMembershipsByUser removes all memberships for a user in a tenant.
	DeleteMembershipsByUser(ctx context.Context, tenantID, userID string) error

	// DeleteMembershipsByRole removes all memberships for a role.
	DeleteMembershipsByRole(ctx context.Context, roleID id.RoleID) error

	// DeleteMembershipsByTenant removes all memberships for a tenant.
	DeleteMembershipsByTenant(ctx context.Context, tenantID string) error
}
