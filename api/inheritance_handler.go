package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
)

func (a *API) registerInheritanceRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("inheritance"))

	if err := g.POST("/roles/:roleId/parents", a.addParent,
		forge.WithSummary("Add role parent"),
		forge.WithDescription("Adds an inheritance edge from a role to a parent role. Cycles are rejected."),
		forge.WithOperationID("addRoleParent"),
		forge.WithRequestSchema(CreateEdgeRequest{}),
		forge.WithCreatedResponse(&inherit.Edge{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:roleId/parents/:parentId", a.removeParent,
		forge.WithSummary("Remove role parent"),
		forge.WithDescription("Removes an inheritance edge between a role and a parent."),
		forge.WithOperationID("removeRoleParent"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/inheritance", a.listEdges,
		forge.WithSummary("List inheritance edges"),
		forge.WithDescription("Lists role inheritance edges with optional filters."),
		forge.WithOperationID("listInheritanceEdges"),
		forge.WithRequestSchema(ListEdgesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Edge list", ListResponse[*inherit.Edge]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) addParent(ctx forge.Context, req *CreateEdgeRequest) (*inherit.Edge, error) {
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}

	childID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	parentID, err := id.ParseRoleID(req.ParentID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid parent_id: %v", err))
	}

	edge, err := a.eng.AddRoleInheritance(ctx.Context(), req.TenantID, childID, parentID)
	if err != nil {
		return nil, mapError(err)
	}

	return edge, ctx.JSON(http.StatusCreated, edge)
}

func (a *API) removeParent(ctx forge.Context, req *DeleteEdgeRequest) (*struct{}, error) {
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}

	childID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	parentID, err := id.ParseRoleID(ctx.Param("parentId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid parent ID: %v", err))
	}

	if err := a.eng.RemoveRoleInheritance(ctx.Context(), req.TenantID, childID, parentID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listEdges(ctx forge.Context, req *ListEdgesRequest) (*ListResponse[*inherit.Edge], error) {
	filter := &inherit.ListFilter{
		TenantID: req.TenantID,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}
	if req.RoleID != "" {
		roleID, err := id.ParseRoleID(req.RoleID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
		}
		filter.RoleID = &roleID
	}

	edges, err := a.eng.Store().ListEdges(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*inherit.Edge]{Items: edges, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}
