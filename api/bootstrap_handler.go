package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

func (a *API) registerBootstrapRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tenants"))

	return g.POST("/tenants/:tenantId/bootstrap", a.bootstrapTenant,
		forge.WithSummary("Bootstrap tenant policies"),
		forge.WithDescription("Seeds the tenant's default roles and rules. Safe to call repeatedly."),
		forge.WithOperationID("bootstrapTenant"),
		forge.WithRequestSchema(BootstrapRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bootstrap outcome", BootstrapResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) bootstrapTenant(ctx forge.Context, req *BootstrapRequest) (*BootstrapResponse, error) {
	tenantID := ctx.Param("tenantId")
	if tenantID == "" {
		return nil, forge.BadRequest("tenant ID is required")
	}

	level := gatehouse.TenantLevel(req.Level)
	switch level {
	case gatehouse.LevelOrganization, gatehouse.LevelProject:
	default:
		return nil, forge.BadRequest("level must be organization or project")
	}

	seeded, err := a.boot.Bootstrap(ctx.Context(), tenantID, level)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &BootstrapResponse{TenantID: tenantID, Level: string(level), Seeded: seeded}
	return resp, ctx.JSON(http.StatusOK, resp)
}
