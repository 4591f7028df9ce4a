package gatehouse

import "context"

// Cache provides caching for role-path enforcement results. Only the
// session path is cached: token decisions go through the registry gate on
// every call so revocation is immediate. Implementations are invalidated
// explicitly on every rule, membership, and inheritance mutation.
type Cache interface {
	// Get returns a cached enforcement result, if available.
	Get(ctx context.Context, tenantID, userID, resource, action string) (*CheckResult, bool)

	// Set stores an enforcement result in the cache.
	Set(ctx context.Context, tenantID, userID, resource, action string, result *CheckResult)

	// InvalidateTenant removes all cached results for a tenant. Invalidating
	// the global domain "*" must flush the whole cache, since global rules
	// affect every tenant.
	InvalidateTenant(ctx context.Context, tenantID string)

	// InvalidateUser removes all cached results for a user in a tenant.
	InvalidateUser(ctx context.Context, tenantID, userID string)
}
