package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit/events", a.listEvents,
		forge.WithSummary("List audit events"),
		forge.WithDescription("Lists authorization decisions, newest first, with optional filters."),
		forge.WithOperationID("listAuditEvents"),
		forge.WithRequestSchema(ListEventsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Event list", ListResponse[*audit.Event]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/audit/events/:eventId", a.getEvent,
		forge.WithSummary("Get audit event"),
		forge.WithDescription("Returns a single audit event."),
		forge.WithOperationID("getAuditEvent"),
		forge.WithResponseSchema(http.StatusOK, "Event details", &audit.Event{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listEvents(ctx forge.Context, req *ListEventsRequest) (*ListResponse[*audit.Event], error) {
	filter := &audit.QueryFilter{
		TenantID:    req.TenantID,
		PrincipalID: req.PrincipalID,
		Resource:    req.Resource,
		Action:      req.Action,
		Decision:    req.Decision,
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	}

	events, err := a.eng.Store().ListEvents(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*audit.Event]{Items: events, Limit: filter.Limit, Offset: filter.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getEvent(ctx forge.Context, _ *GetEventRequest) (*audit.Event, error) {
	eventID, err := id.ParseAuditEventID(ctx.Param("eventId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid event ID: %v", err))
	}

	e, err := a.eng.Store().GetEvent(ctx.Context(), eventID)
	if err != nil {
		return nil, mapError(err)
	}

	return e, ctx.JSON(http.StatusOK, e)
}
