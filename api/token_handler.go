package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/token"
)

func (a *API) registerTokenRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("tokens"))

	if err := g.POST("/tokens", a.issueToken,
		forge.WithSummary("Issue token"),
		forge.WithDescription("Issues a scoped bearer token. The secret is returned once and cannot be recovered."),
		forge.WithOperationID("issueToken"),
		forge.WithRequestSchema(IssueTokenRequest{}),
		forge.WithCreatedResponse(&IssueTokenResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/tokens/:tokenId", a.getToken,
		forge.WithSummary("Get token"),
		forge.WithDescription("Returns token metadata. The secret is never included."),
		forge.WithOperationID("getToken"),
		forge.WithResponseSchema(http.StatusOK, "Token details", &token.Token{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/tokens/:tokenId", a.revokeToken,
		forge.WithSummary("Revoke token"),
		forge.WithDescription("Revokes a token. Requests bearing it fail from the next lookup onward."),
		forge.WithOperationID("revokeToken"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/tokens", a.listTokens,
		forge.WithSummary("List tokens"),
		forge.WithDescription("Lists tokens with optional filters. Revoked tokens are hidden unless requested."),
		forge.WithOperationID("listTokens"),
		forge.WithRequestSchema(ListTokensRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Token list", ListResponse[*token.Token]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) issueToken(ctx forge.Context, req *IssueTokenRequest) (*IssueTokenResponse, error) {
	if req.TenantID == "" {
		return nil, forge.BadRequest("tenant_id is required")
	}
	if len(req.Scopes) == 0 {
		return nil, forge.BadRequest("at least one scope is required")
	}

	t := &token.Token{
		TenantID: req.TenantID,
		Name:     req.Name,
		Scopes:   req.Scopes,
	}
	if req.ExpiresIn > 0 {
		at := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
		t.ExpiresAt = &at
	}

	secret, err := a.eng.IssueToken(ctx.Context(), t)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &IssueTokenResponse{
		TokenID:  t.ID.String(),
		Secret:   secret,
		TenantID: t.TenantID,
		Scopes:   t.Scopes,
	}
	if t.ExpiresAt != nil {
		resp.ExpiresAt = t.ExpiresAt.Format(time.RFC3339)
	}
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) getToken(ctx forge.Context, _ *GetTokenRequest) (*token.Token, error) {
	tokenID, err := id.ParseTokenID(ctx.Param("tokenId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid token ID: %v", err))
	}

	t, err := a.eng.Store().GetToken(ctx.Context(), tokenID)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) revokeToken(ctx forge.Context, _ *GetTokenRequest) (*struct{}, error) {
	tokenID, err := id.ParseTokenID(ctx.Param("tokenId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid token ID: %v", err))
	}

	if err := a.eng.RevokeToken(ctx.Context(), tokenID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listTokens(ctx forge.Context, req *ListTokensRequest) (*ListResponse[*token.Token], error) {
	filter := &token.ListFilter{
		TenantID:       req.TenantID,
		IncludeRevoked: req.IncludeRevoked,
		Limit:          defaultLimit(req.Limit),
		Offset:         req.Offset,
	}

	tokens, err := a.eng.Store().ListTokens(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*token.Token]{Items: tokens, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}
