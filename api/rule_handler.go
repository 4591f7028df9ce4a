package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/rule"
)

func (a *API) registerRuleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("rules"))

	if err := g.POST("/rules", a.createRule,
		forge.WithSummary("Create rule"),
		forge.WithDescription("Creates a whitelist rule granting a subject an action on a resource type."),
		forge.WithOperationID("createRule"),
		forge.WithRequestSchema(CreateRuleRequest{}),
		forge.WithCreatedResponse(&rule.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/rules/:ruleId", a.getRule,
		forge.WithSummary("Get rule"),
		forge.WithDescription("Returns details of a specific rule."),
		forge.WithOperationID("getRule"),
		forge.WithResponseSchema(http.StatusOK, "Rule details", &rule.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/rules/:ruleId", a.deleteRule,
		forge.WithSummary("Delete rule"),
		forge.WithDescription("Removes a rule. The grant stops applying immediately."),
		forge.WithOperationID("deleteRule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/rules", a.listRules,
		forge.WithSummary("List rules"),
		forge.WithDescription("Lists rules with optional filters."),
		forge.WithOperationID("listRules"),
		forge.WithRequestSchema(ListRulesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Rule list", ListResponse[*rule.Rule]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRule(ctx forge.Context, req *CreateRuleRequest) (*rule.Rule, error) {
	r := &rule.Rule{
		TenantID: req.TenantID,
		Subject:  req.Subject,
		Resource: req.Resource,
		Action:   req.Action,
	}
	if err := a.eng.AddRule(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getRule(ctx forge.Context, _ *GetRuleRequest) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(ctx.Param("ruleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid rule ID: %v", err))
	}

	r, err := a.eng.Store().GetRule(ctx.Context(), ruleID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteRule(ctx forge.Context, _ *GetRuleRequest) (*struct{}, error) {
	ruleID, err := id.ParseRuleID(ctx.Param("ruleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid rule ID: %v", err))
	}

	if err := a.eng.RemoveRule(ctx.Context(), ruleID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listRules(ctx forge.Context, req *ListRulesRequest) (*ListResponse[*rule.Rule], error) {
	filter := &rule.ListFilter{
		TenantID: req.TenantID,
		Subject:  req.Subject,
		Resource: req.Resource,
		Action:   req.Action,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	rules, err := a.eng.Store().ListRules(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*rule.Rule]{Items: rules, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}
