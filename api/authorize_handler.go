package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/resource"
)

func (a *API) registerAuthorizeRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("authorization"))

	return g.POST("/authorize", a.authorize,
		forge.WithSummary("Authorize a principal"),
		forge.WithDescription("Checks whether the described principal may perform an action on a resource type within a tenant."),
		forge.WithOperationID("authorize"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Authorization decision", AuthorizeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) authorize(ctx forge.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.PrincipalID == "" {
		return nil, forge.BadRequest("principal_id is required")
	}
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}

	res := resource.Type(req.Resource)
	act := resource.Action(req.Action)
	if err := resource.Validate(res, act); err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	principal := &gatehouse.Principal{
		Kind: gatehouse.PrincipalKind(req.PrincipalKind),
		ID:   req.PrincipalID,
	}
	if principal.Kind == "" {
		principal.Kind = gatehouse.KindUser
	}
	if principal.Kind == gatehouse.KindAPIToken {
		principal.TenantID = req.TokenTenantID
		principal.Scopes = req.Scopes
	}

	result, err := a.authz.AuthorizePrincipal(ctx.Context(), principal, res, act, req.TenantID)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &AuthorizeResponse{
		Allowed:  result.Allowed(),
		Status:   string(result.Status),
		Decision: string(result.Decision),
		Reason:   result.Reason,
		Path:     string(result.Path),
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
