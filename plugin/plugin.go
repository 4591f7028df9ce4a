// Package plugin defines the plugin system for Gatehouse.
// Plugins are notified of lifecycle events (authorization decided, role
// created, token revoked, tenant bootstrapped, etc.) and can react —
// logging, metrics, tracing, external audit shipping.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/token"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Authorization lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeAuthorize is called before an authorization decision is evaluated.
// The principal parameter is *gatehouse.Principal (passed as any to avoid
// an import cycle); it is nil when resolution failed.
type BeforeAuthorize interface {
	OnBeforeAuthorize(ctx context.Context, principal any, resource, action, tenantID string) error
}

// AfterAuthorize is called after an authorization decision is taken.
// The result parameter is *gatehouse.Result.
type AfterAuthorize interface {
	OnAfterAuthorize(ctx context.Context, principal any, result any) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// ──────────────────────────────────────────────────
// Rule lifecycle hooks
// ──────────────────────────────────────────────────

// RuleCreated is called after a policy rule is created.
type RuleCreated interface {
	OnRuleCreated(ctx context.Context, r *rule.Rule) error
}

// RuleDeleted is called after a policy rule is deleted.
type RuleDeleted interface {
	OnRuleDeleted(ctx context.Context, ruleID id.RuleID) error
}

// ──────────────────────────────────────────────────
// Membership lifecycle hooks
// ──────────────────────────────────────────────────

// RoleGranted is called after a role is granted to a user.
type RoleGranted interface {
	OnRoleGranted(ctx context.Context, m *membership.Membership) error
}

// RoleRevoked is called after a role is revoked from a user.
type RoleRevoked interface {
	OnRoleRevoked(ctx context.Context, m *membership.Membership) error
}

// ──────────────────────────────────────────────────
// Inheritance lifecycle hooks
// ──────────────────────────────────────────────────

// EdgeCreated is called after an inheritance edge is created.
type EdgeCreated interface {
	OnEdgeCreated(ctx context.Context, e *inherit.Edge) error
}

// EdgeDeleted is called after an inheritance edge is deleted.
type EdgeDeleted interface {
	OnEdgeDeleted(ctx context.Context, edgeID id.EdgeID) error
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// TokenIssued is called after a token is issued. The secret is never
// passed to plugins; only the stored entity is.
type TokenIssued interface {
	OnTokenIssued(ctx context.Context, t *token.Token) error
}

// TokenRevoked is called after a token is revoked.
type TokenRevoked interface {
	OnTokenRevoked(ctx context.Context, tokenID id.TokenID) error
}

// ──────────────────────────────────────────────────
// Bootstrap lifecycle hooks
// ──────────────────────────────────────────────────

// TenantBootstrapped is called after a tenant's default policies are seeded.
type TenantBootstrapped interface {
	OnTenantBootstrapped(ctx context.Context, tenantID, level string, seeded int) error
}

// Shutdown is called when the engine stops.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
