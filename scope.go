package gatehouse

import (
	"context"

	"github.com/xraph/forge"
)

// scopeFromContext extracts the tenant under evaluation from forge.Scope or
// the standalone context. Falls back to the explicit tenant if Forge scope
// is not set (standalone mode).
func scopeFromContext(ctx context.Context) string {
	s, ok := forge.ScopeFrom(ctx)
	if ok {
		return s.OrgID()
	}
	return tenantIDFromContext(ctx)
}
