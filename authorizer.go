package gatehouse

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/resource"
)

// Authorizer is the single entry point for protected calls. It resolves the
// acting principal, routes the check down the token or session path, and
// records exactly one audit event per decided call.
//
// Unauthenticated and denied outcomes are expressed in the Result, not as
// errors; the error return is reserved for infrastructure failures such as
// an unavailable policy store, which must surface as retryable failures
// rather than denials.
type Authorizer struct {
	engine   *Engine
	resolver *Resolver
	logger   *slog.Logger
	metrics  *Metrics
}

// AuthorizerOption is a functional option for the Authorizer.
type AuthorizerOption func(*Authorizer)

// WithIdentityProvider sets the identity provider used for session
// credential validation.
func WithIdentityProvider(idp IdentityProvider) AuthorizerOption {
	return func(a *Authorizer) { a.resolver = NewResolver(a.engine, idp) }
}

// WithResolver sets a fully configured credential resolver.
func WithResolver(r *Resolver) AuthorizerOption {
	return func(a *Authorizer) { a.resolver = r }
}

// NewAuthorizer creates the authorization facade on top of an engine.
func NewAuthorizer(engine *Engine, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		engine:  engine,
		logger:  engine.logger,
		metrics: engine.metrics,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = NewResolver(engine, nil)
	}
	return a
}

// Authorize resolves the request's credential and checks whether the acting
// principal may perform the action on the resource type within the tenant.
// With an empty tenantID the tenant is taken from the request context.
func (a *Authorizer) Authorize(ctx context.Context, req *http.Request, res resource.Type, act resource.Action, tenantID string) (*Result, error) {
	start := time.Now()
	if tenantID == "" {
		tenantID = scopeFromContext(ctx)
	}
	if err := resource.Validate(res, act); err != nil {
		return nil, err
	}

	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		var err error
		principal, err = a.resolver.Resolve(ctx, req)
		if err != nil {
			if IsUnauthenticated(err) {
				result := unauthenticatedResult(err)
				result.EvalTimeNs = time.Since(start).Nanoseconds()
				a.finish(ctx, principal, result, tenantID, res, act)
				return result, nil
			}
			return nil, err
		}
	}

	return a.authorize(ctx, principal, res, act, tenantID, start)
}

// AuthorizePrincipal checks an already-resolved principal. Callers that
// resolve credentials once per request (middleware) use this to skip
// re-resolution.
func (a *Authorizer) AuthorizePrincipal(ctx context.Context, principal *Principal, res resource.Type, act resource.Action, tenantID string) (*Result, error) {
	start := time.Now()
	if tenantID == "" {
		tenantID = scopeFromContext(ctx)
	}
	if err := resource.Validate(res, act); err != nil {
		return nil, err
	}
	if principal == nil {
		result := unauthenticatedResult(ErrUnauthenticated)
		result.EvalTimeNs = time.Since(start).Nanoseconds()
		a.finish(ctx, nil, result, tenantID, res, act)
		return result, nil
	}
	return a.authorize(ctx, principal, res, act, tenantID, start)
}

func (a *Authorizer) authorize(ctx context.Context, p *Principal, res resource.Type, act resource.Action, tenantID string, start time.Time) (*Result, error) {
	if a.engine.plugins != nil {
		a.engine.plugins.EmitBeforeAuthorize(ctx, p, string(res), string(act), tenantID)
	}

	var result *Result
	switch p.Kind {
	case KindAPIToken:
		result = a.authorizeToken(p, res, act, tenantID)
	default:
		userResult, err := a.engine.Enforce(ctx, tenantID, p.ID, string(res), string(act))
		if err != nil {
			return nil, err
		}
		result = &Result{
			Decision: userResult.Decision,
			Reason:   userResult.Reason,
			Path:     audit.PathSession,
		}
		if userResult.Allowed {
			result.Status = StatusAllowed
		} else {
			result.Status = StatusDenied
		}
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	a.finish(ctx, p, result, tenantID, res, act)
	return result, nil
}

// authorizeToken decides on the bearer-token path: tenant binding first,
// then the scope list. The role enforcer is never consulted for tokens.
func (a *Authorizer) authorizeToken(p *Principal, res resource.Type, act resource.Action, tenantID string) *Result {
	if p.TenantID != tenantID {
		return &Result{
			Status:   StatusDenied,
			Decision: DecisionDenyTenant,
			Reason:   "token is bound to a different tenant",
			Path:     audit.PathToken,
		}
	}
	want := resource.Scope(res, act)
	for _, s := range p.Scopes {
		if s == "*" || s == want {
			return &Result{
				Status:   StatusAllowed,
				Decision: DecisionAllow,
				Reason:   "scope grants " + want,
				Path:     audit.PathToken,
			}
		}
	}
	return &Result{
		Status:   StatusDenied,
		Decision: DecisionDenyScope,
		Reason:   "token scopes do not cover " + want,
		Path:     audit.PathToken,
	}
}

// finish records the audit event, metrics, and the after-hook for one
// decided call. An audit write failure is logged and counted but never
// fails the decision.
func (a *Authorizer) finish(ctx context.Context, p *Principal, result *Result, tenantID string, res resource.Type, act resource.Action) {
	event := &audit.Event{
		ID:         id.NewAuditEventID(),
		TenantID:   tenantID,
		Resource:   string(res),
		Action:     string(act),
		Path:       result.Path,
		Decision:   string(result.Decision),
		Reason:     result.Reason,
		EvalTimeNs: result.EvalTimeNs,
		CreatedAt:  time.Now(),
	}
	if p != nil {
		event.PrincipalKind = string(p.Kind)
		event.PrincipalID = p.ID
	}
	if err := a.engine.store.CreateEvent(ctx, event); err != nil {
		a.logger.Error("audit event write failed",
			slog.String("tenant_id", tenantID),
			slog.String("decision", string(result.Decision)),
			slog.String("error", err.Error()),
		)
		a.metrics.observeAuditFailure()
	}

	a.metrics.observeDecision(result.Status, string(result.Path))
	if a.engine.plugins != nil {
		a.engine.plugins.EmitAfterAuthorize(ctx, p, result)
	}
}

// unauthenticatedResult maps a credential-resolution failure to a terminal
// result. Expired and revoked tokens keep their distinct decision for the
// audit trail; callers see the same unauthenticated status either way.
func unauthenticatedResult(err error) *Result {
	r := &Result{
		Status:   StatusUnauthenticated,
		Decision: DecisionUnauthenticated,
		Reason:   "no valid credential",
		Path:     audit.PathNone,
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrTokenExpired):
		r.Decision = DecisionTokenExpired
		r.Reason = "token expired"
		r.Path = audit.PathToken
	case errors.Is(err, ErrTokenRevoked):
		r.Decision = DecisionTokenRevoked
		r.Reason = "token revoked"
		r.Path = audit.PathToken
	}
	return r
}
