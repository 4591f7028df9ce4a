package inherit

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for role inheritance edges.
type Store interface {
	// CreateEdge persists a new inheritance edge. A duplicate
	// (tenant, role, parent) edge is rejected.
	CreateEdge(ctx context.Context, e *Edge) error

	// DeleteEdge removes an edge by ID.
	DeleteEdge(ctx context.Context, edgeID id.EdgeID) error

	// DeleteEdgeTuple removes the edge matching (tenant, role, parent).
	DeleteEdgeTuple(ctx context.Context, tenantID string, roleID, parentID id.RoleID) error

	// ListParents returns the direct parent role IDs of a role in a tenant.
	ListParents(ctx context.Context, tenantID string, roleID id.RoleID) ([]id.RoleID, error)

	// ListEdges returns edges matching the filter.
	ListEdges(ctx context.Context, filter *ListFilter) ([]*Edge, error)

	// DeleteEdgesByRole removes all edges referencing a role as child or parent.
	DeleteEdgesByRole(ctx context.Context, roleID id.RoleID) error

	// DeleteEdgesByTenant removes all edges for a tenant.
	DeleteEdgesByTenant(ctx context.Context, tenantID string) error
}
