package gatehouse

import "context"

type contextKey int

const (
	ctxKeyTenantID contextKey = iota
	ctxKeyPrincipal
)

// WithTenant returns a context carrying the tenant under evaluation.
// Use this for standalone mode (without Forge).
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKeyTenantID, tenantID)
}

func tenantIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyTenantID).(string)
	if !ok {
		return ""
	}
	return v
}

// WithPrincipal returns a context carrying an already-resolved principal.
// The Authorizer reuses it instead of resolving credentials again, so one
// request resolves its principal at most once.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
