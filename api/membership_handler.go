package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/membership"
)

func (a *API) registerMembershipRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("memberships"))

	if err := g.POST("/memberships", a.grantRole,
		forge.WithSummary("Grant role"),
		forge.WithDescription("Grants a role to a user within a tenant."),
		forge.WithOperationID("grantRole"),
		forge.WithRequestSchema(GrantRoleRequest{}),
		forge.WithCreatedResponse(&membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/memberships/:membershipId", a.getMembership,
		forge.WithSummary("Get membership"),
		forge.WithDescription("Returns details of a specific membership."),
		forge.WithOperationID("getMembership"),
		forge.WithResponseSchema(http.StatusOK, "Membership details", &membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/memberships/:membershipId", a.revokeRole,
		forge.WithSummary("Revoke role"),
		forge.WithDescription("Revokes a role grant. The user loses the role's rules immediately."),
		forge.WithOperationID("revokeRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/memberships", a.listMemberships,
		forge.WithSummary("List memberships"),
		forge.WithDescription("Lists role grants with optional filters."),
		forge.WithOperationID("listMemberships"),
		forge.WithRequestSchema(ListMembershipsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Membership list", ListResponse[*membership.Membership]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) grantRole(ctx forge.Context, req *GrantRoleRequest) (*membership.Membership, error) {
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}
	if req.UserID == "" {
		return nil, forge.BadRequest("user_id is required")
	}

	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}

	m, err := a.eng.GrantRole(ctx.Context(), req.TenantID, roleID, req.UserID, req.GrantedBy)
	if err != nil {
		return nil, mapError(err)
	}

	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) getMembership(ctx forge.Context, _ *GetMembershipRequest) (*membership.Membership, error) {
	membID, err := id.ParseMembershipID(ctx.Param("membershipId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid membership ID: %v", err))
	}

	m, err := a.eng.Store().GetMembership(ctx.Context(), membID)
	if err != nil {
		return nil, mapError(err)
	}

	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) revokeRole(ctx forge.Context, _ *GetMembershipRequest) (*struct{}, error) {
	membID, err := id.ParseMembershipID(ctx.Param("membershipId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid membership ID: %v", err))
	}

	if err := a.eng.RevokeRole(ctx.Context(), membID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listMemberships(ctx forge.Context, req *ListMembershipsRequest) (*ListResponse[*membership.Membership], error) {
	filter := &membership.ListFilter{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	memberships, err := a.eng.Store().ListMemberships(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*membership.Membership]{Items: memberships, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}
