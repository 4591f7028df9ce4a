package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a new role within a tenant."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:roleId", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns details of a specific role."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:roleId", a.updateRole,
		forge.WithSummary("Update role"),
		forge.WithDescription("Updates an existing role. System roles are immutable."),
		forge.WithOperationID("updateRole"),
		forge.WithRequestSchema(UpdateRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:roleId", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deletes a role. Roles with active memberships cannot be deleted."),
		forge.WithOperationID("deleteRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists roles with optional filters."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", ListResponse[*role.Role]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	r := &role.Role{
		TenantID:    req.TenantID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	if err := a.eng.CreateRole(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getRole(ctx forge.Context, _ *GetRoleRequest) (*role.Role, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	r, err := a.eng.Store().GetRole(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateRole(ctx forge.Context, req *UpdateRoleRequest) (*role.Role, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	r, err := a.eng.Store().GetRole(ctx.Context(), roleID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		r.Name = req.Name
	}
	if req.Description != "" {
		r.Description = req.Description
	}
	if req.Metadata != nil {
		r.Metadata = req.Metadata
	}

	if err := a.eng.UpdateRole(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteRole(ctx forge.Context, _ *GetRoleRequest) (*struct{}, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	if err := a.eng.DeleteRole(ctx.Context(), roleID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) (*ListResponse[*role.Role], error) {
	filter := &role.ListFilter{
		TenantID: req.TenantID,
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	roles, err := a.eng.Store().ListRoles(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*role.Role]{Items: roles, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}
