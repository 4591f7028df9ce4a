package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/token"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeAuthorizeEntry struct {
	name string
	hook BeforeAuthorize
}
type afterAuthorizeEntry struct {
	name string
	hook AfterAuthorize
}
type roleCreatedEntry struct {
	name string
	hook RoleCreated
}
type roleDeletedEntry struct {
	name string
	hook RoleDeleted
}
type ruleCreatedEntry struct {
	name string
	hook RuleCreated
}
type ruleDeletedEntry struct {
	name string
	hook RuleDeleted
}
type roleGrantedEntry struct {
	name string
	hook RoleGranted
}
type roleRevokedEntry struct {
	name string
	hook RoleRevoked
}
type edgeCreatedEntry struct {
	name string
	hook EdgeCreated
}
type edgeDeletedEntry struct {
	name string
	hook EdgeDeleted
}
type tokenIssuedEntry struct {
	name string
	hook TokenIssued
}
type tokenRevokedEntry struct {
	name string
	hook TokenRevoked
}
type tenantBootstrappedEntry struct {
	name string
	hook TenantBootstrapped
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeAuthorize    []beforeAuthorizeEntry
	afterAuthorize     []afterAuthorizeEntry
	roleCreated        []roleCreatedEntry
	roleDeleted        []roleDeletedEntry
	ruleCreated        []ruleCreatedEntry
	ruleDeleted        []ruleDeletedEntry
	roleGranted        []roleGrantedEntry
	roleRevoked        []roleRevokedEntry
	edgeCreated        []edgeCreatedEntry
	edgeDeleted        []edgeDeletedEntry
	tokenIssued        []tokenIssuedEntry
	tokenRevoked       []tokenRevokedEntry
	tenantBootstrapped []tenantBootstrappedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeAuthorize); ok {
		r.beforeAuthorize = append(r.beforeAuthorize, beforeAuthorizeEntry{name, h})
	}
	if h, ok := p.(AfterAuthorize); ok {
		r.afterAuthorize = append(r.afterAuthorize, afterAuthorizeEntry{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, roleCreatedEntry{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, roleDeletedEntry{name, h})
	}
	if h, ok := p.(RuleCreated); ok {
		r.ruleCreated = append(r.ruleCreated, ruleCreatedEntry{name, h})
	}
	if h, ok := p.(RuleDeleted); ok {
		r.ruleDeleted = append(r.ruleDeleted, ruleDeletedEntry{name, h})
	}
	if h, ok := p.(RoleGranted); ok {
		r.roleGranted = append(r.roleGranted, roleGrantedEntry{name, h})
	}
	if h, ok := p.(RoleRevoked); ok {
		r.roleRevoked = append(r.roleRevoked, roleRevokedEntry{name, h})
	}
	if h, ok := p.(EdgeCreated); ok {
		r.edgeCreated = append(r.edgeCreated, edgeCreatedEntry{name, h})
	}
	if h, ok := p.(EdgeDeleted); ok {
		r.edgeDeleted = append(r.edgeDeleted, edgeDeletedEntry{name, h})
	}
	if h, ok := p.(TokenIssued); ok {
		r.tokenIssued = append(r.tokenIssued, tokenIssuedEntry{name, h})
	}
	if h, ok := p.(TokenRevoked); ok {
		r.tokenRevoked = append(r.tokenRevoked, tokenRevokedEntry{name, h})
	}
	if h, ok := p.(TenantBootstrapped); ok {
		r.tenantBootstrapped = append(r.tenantBootstrapped, tenantBootstrappedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Authorization event emitters
// ──────────────────────────────────────────────────

// EmitBeforeAuthorize notifies all plugins that implement BeforeAuthorize.
func (r *Registry) EmitBeforeAuthorize(ctx context.Context, principal any, resource, action, tenantID string) {
	for _, e := range r.beforeAuthorize {
		if err := e.hook.OnBeforeAuthorize(ctx, principal, resource, action, tenantID); err != nil {
			r.logHookError("OnBeforeAuthorize", e.name, err)
		}
	}
}

// EmitAfterAuthorize notifies all plugins that implement AfterAuthorize.
func (r *Registry) EmitAfterAuthorize(ctx context.Context, principal any, result any) {
	for _, e := range r.afterAuthorize {
		if err := e.hook.OnAfterAuthorize(ctx, principal, result); err != nil {
			r.logHookError("OnAfterAuthorize", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Entity event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, ro *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, ro); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// EmitRuleCreated notifies all plugins that implement RuleCreated.
func (r *Registry) EmitRuleCreated(ctx context.Context, ru *rule.Rule) {
	for _, e := range r.ruleCreated {
		if err := e.hook.OnRuleCreated(ctx, ru); err != nil {
			r.logHookError("OnRuleCreated", e.name, err)
		}
	}
}

// EmitRuleDeleted notifies all plugins that implement RuleDeleted.
func (r *Registry) EmitRuleDeleted(ctx context.Context, ruleID id.RuleID) {
	for _, e := range r.ruleDeleted {
		if err := e.hook.OnRuleDeleted(ctx, ruleID); err != nil {
			r.logHookError("OnRuleDeleted", e.name, err)
		}
	}
}

// EmitRoleGranted notifies all plugins that implement RoleGranted.
func (r *Registry) EmitRoleGranted(ctx context.Context, m *membership.Membership) {
	for _, e := range r.roleGranted {
		if err := e.hook.OnRoleGranted(ctx, m); err != nil {
			r.logHookError("OnRoleGranted", e.name, err)
		}
	}
}

// EmitRoleRevoked notifies all plugins that implement RoleRevoked.
func (r *Registry) EmitRoleRevoked(ctx context.Context, m *membership.Membership) {
	for _, e := range r.roleRevoked {
		if err := e.hook.OnRoleRevoked(ctx, m); err != nil {
			r.logHookError("OnRoleRevoked", e.name, err)
		}
	}
}

// EmitEdgeCreated notifies all plugins that implement EdgeCreated.
func (r *Registry) EmitEdgeCreated(ctx context.Context, ed *inherit.Edge) {
	for _, e := range r.edgeCreated {
		if err := e.hook.OnEdgeCreated(ctx, ed); err != nil {
			r.logHookError("OnEdgeCreated", e.name, err)
		}
	}
}

// EmitEdgeDeleted notifies all plugins that implement EdgeDeleted.
func (r *Registry) EmitEdgeDeleted(ctx context.Context, edgeID id.EdgeID) {
	for _, e := range r.edgeDeleted {
		if err := e.hook.OnEdgeDeleted(ctx, edgeID); err != nil {
			r.logHookError("OnEdgeDeleted", e.name, err)
		}
	}
}

// EmitTokenIssued notifies all plugins that implement TokenIssued.
func (r *Registry) EmitTokenIssued(ctx context.Context, t *token.Token) {
	for _, e := range r.tokenIssued {
		if err := e.hook.OnTokenIssued(ctx, t); err != nil {
			r.logHookError("OnTokenIssued", e.name, err)
		}
	}
}

// EmitTokenRevoked notifies all plugins that implement TokenRevoked.
func (r *Registry) EmitTokenRevoked(ctx context.Context, tokenID id.TokenID) {
	for _, e := range r.tokenRevoked {
		if err := e.hook.OnTokenRevoked(ctx, tokenID); err != nil {
			r.logHookError("OnTokenRevoked", e.name, err)
		}
	}
}

// EmitTenantBootstrapped notifies all plugins that implement TenantBootstrapped.
func (r *Registry) EmitTenantBootstrapped(ctx context.Context, tenantID, level string, seeded int) {
	for _, e := range r.tenantBootstrapped {
		if err := e.hook.OnTenantBootstrapped(ctx, tenantID, level, seeded); err != nil {
			r.logHookError("OnTenantBootstrapped", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

func (r *Registry) logHookError(hook, plugin string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("plugin hook failed",
		slog.String("hook", hook),
		slog.String("plugin", plugin),
		slog.String("error", err.Error()),
	)
}
