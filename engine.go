package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/resource"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/token"
)

// Engine is the policy core: it owns rule storage and evaluation, role
// resolution with inheritance, and the management surface for roles, rules,
// memberships, inheritance edges, and API tokens. The Authorizer facade
// sits on top of it and adds credential resolution and audit.
type Engine struct {
	store   store.Store
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
	metrics *Metrics
}

// NewEngine creates a new engine with the given options. A store is required.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("gatehouse: store is required")
	}
	if e.config.MaxInheritanceDepth <= 0 {
		e.config.MaxInheritanceDepth = DefaultConfig().MaxInheritanceDepth
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start checks store connectivity.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Stop performs graceful shutdown and notifies plugins.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Role resolution
// ──────────────────────────────────────────────────

// ResolveRoles returns the closure of the user's effective roles in a
// tenant: direct memberships plus everything reachable through inheritance
// edges. A cyclic edge that slipped past the write-time check is logged at
// error level and dropped from the walk; shared parents (diamonds) resolve
// once without noise. The configured depth cap bounds the walk and logs
// when hit.
func (e *Engine) ResolveRoles(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	direct, err := e.store.ListRolesForUser(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve roles: %v", ErrStoreUnavailable, err)
	}

	closure := make([]id.RoleID, 0, len(direct)*2)
	seen := make(map[string]struct{}, len(direct)*2)
	// ancestors[r] holds every role on some path leading to r; an edge whose
	// parent is already among the role's ancestors closes a cycle.
	ancestors := make(map[string]map[string]struct{}, len(direct)*2)
	frontier := direct

	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= e.config.MaxInheritanceDepth {
			e.logger.Error("role inheritance depth cap hit, truncating walk",
				slog.String("tenant_id", tenantID),
				slog.String("user_id", userID),
				slog.Int("max_depth", e.config.MaxInheritanceDepth),
			)
			break
		}
		var next []id.RoleID
		for _, rid := range frontier {
			key := rid.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			closure = append(closure, rid)

			parents, err := e.store.ListParents(ctx, tenantID, rid)
			if err != nil {
				return nil, fmt.Errorf("%w: resolve roles: %v", ErrStoreUnavailable, err)
			}
			for _, p := range parents {
				pkey := p.String()
				if pkey == key || setContains(ancestors[key], pkey) {
					e.logger.Error("cyclic role inheritance detected during resolution, edge dropped",
						slog.String("tenant_id", tenantID),
						slog.String("role_id", key),
						slog.String("parent_id", pkey),
					)
					continue
				}
				anc := ancestors[pkey]
				if anc == nil {
					anc = make(map[string]struct{}, len(ancestors[key])+1)
					ancestors[pkey] = anc
				}
				for k := range ancestors[key] {
					anc[k] = struct{}{}
				}
				anc[key] = struct{}{}
				next = append(next, p)
			}
		}
		frontier = next
	}
	return closure, nil
}

func setContains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// ──────────────────────────────────────────────────
// Enforcement
// ──────────────────────────────────────────────────

// Enforce evaluates the whitelist policy for a user acting in a tenant.
// Subjects are the user ID plus the closure of the user's roles; a single
// matching rule in the tenant or the global domain grants the request.
// There is no deny effect. Store errors propagate as errors, never as a
// deny. Results are cached when a cache is configured.
func (e *Engine) Enforce(ctx context.Context, tenantID, userID, resourceType, action string) (*CheckResult, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, tenantID, userID, resourceType, action); ok {
			return cached, nil
		}
	}

	roles, err := e.ResolveRoles(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	subjects := make([]string, 0, len(roles)+1)
	subjects = append(subjects, userID)
	for _, rid := range roles {
		subjects = append(subjects, rid.String())
	}

	rules, err := e.store.ListRulesForSubjects(ctx, tenantID, subjects)
	if err != nil {
		return nil, fmt.Errorf("%w: enforce: %v", ErrStoreUnavailable, err)
	}

	var result *CheckResult
	for _, r := range rules {
		if !ruleMatchesTenant(r, tenantID) {
			continue
		}
		if ruleGrants(r, resourceType, action) {
			result = &CheckResult{
				Allowed:  true,
				Decision: DecisionAllow,
				Reason:   "rule grants " + r.Resource + ":" + r.Action,
				RuleID:   r.ID,
			}
			break
		}
	}
	if result == nil {
		if len(roles) == 0 && len(rules) == 0 {
			result = &CheckResult{
				Decision: DecisionDenyNoRoles,
				Reason:   "user has no roles in tenant",
			}
		} else {
			result = &CheckResult{
				Decision: DecisionDenyNoRule,
				Reason:   "no rule grants " + resourceType + ":" + action,
			}
		}
	}

	if e.cache != nil {
		e.cache.Set(ctx, tenantID, userID, resourceType, action, result)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Role management
// ──────────────────────────────────────────────────

// CreateRole persists a new role. The slug defaults to a slugified name.
func (e *Engine) CreateRole(ctx context.Context, r *role.Role) error {
	if r.TenantID == "" || r.Name == "" {
		return errors.New("gatehouse: role tenant and name are required")
	}
	if r.Slug == "" {
		r.Slug = slugify(r.Name)
	}
	if r.ID.IsNil() {
		r.ID = id.NewRoleID()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := e.store.CreateRole(ctx, r); err != nil {
		return fmt.Errorf("gatehouse create role: %w", err)
	}
	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return nil
}

// UpdateRole persists changes to a role. System roles are immutable.
func (e *Engine) UpdateRole(ctx context.Context, r *role.Role) error {
	existing, err := e.store.GetRole(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("gatehouse update role: %w", err)
	}
	if existing.IsSystem {
		return ErrSystemRoleImmutable
	}
	r.UpdatedAt = time.Now()
	if err := e.store.UpdateRole(ctx, r); err != nil {
		return fmt.Errorf("gatehouse update role: %w", err)
	}
	return nil
}

// DeleteRole removes a role. System roles are immutable; a role still
// granted to users is refused. Inheritance edges referencing the role are
// removed along with it.
func (e *Engine) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("gatehouse delete role: %w", err)
	}
	if r.IsSystem {
		return ErrSystemRoleImmutable
	}

	n, err := e.store.CountMemberships(ctx, &membership.ListFilter{RoleID: &roleID})
	if err != nil {
		return fmt.Errorf("gatehouse delete role: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %d memberships", ErrRoleReferenced, n)
	}

	if err := e.store.DeleteEdgesByRole(ctx, roleID); err != nil {
		return fmt.Errorf("gatehouse delete role: %w", err)
	}
	if err := e.store.DeleteRole(ctx, roleID); err != nil {
		return fmt.Errorf("gatehouse delete role: %w", err)
	}
	e.invalidateTenant(ctx, r.TenantID)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Rule management
// ──────────────────────────────────────────────────

// AddRule persists a new whitelist rule. The (resource, action) pair must be
// in the catalog; wildcards are permitted on either side. A rule whose tuple
// already exists is rejected with ErrDuplicateRule.
func (e *Engine) AddRule(ctx context.Context, r *rule.Rule) error {
	if r.TenantID == "" || r.Subject == "" {
		return fmt.Errorf("%w: tenant and subject are required", ErrInvalidRule)
	}
	if err := resource.Validate(resource.Type(r.Resource), resource.Action(r.Action)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if r.ID.IsNil() {
		r.ID = id.NewRuleID()
	}
	r.CreatedAt = time.Now()

	if err := e.store.CreateRule(ctx, r); err != nil {
		return fmt.Errorf("gatehouse add rule: %w", err)
	}
	e.invalidateTenant(ctx, r.TenantID)
	if e.plugins != nil {
		e.plugins.EmitRuleCreated(ctx, r)
	}
	return nil
}

// RemoveRule deletes a rule by ID.
func (e *Engine) RemoveRule(ctx context.Context, ruleID id.RuleID) error {
	r, err := e.store.GetRule(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("gatehouse remove rule: %w", err)
	}
	if err := e.store.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("gatehouse remove rule: %w", err)
	}
	e.invalidateTenant(ctx, r.TenantID)
	if e.plugins != nil {
		e.plugins.EmitRuleDeleted(ctx, ruleID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership management
// ──────────────────────────────────────────────────

// GrantRole assigns a role to a user in a tenant. The role must exist in
// the tenant. Granting an already-held role is rejected with
// ErrDuplicateMembership.
func (e *Engine) GrantRole(ctx context.Context, tenantID string, roleID id.RoleID, userID, grantedBy string) (*membership.Membership, error) {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("gatehouse grant role: %w", err)
	}
	if r.TenantID != tenantID {
		return nil, fmt.Errorf("%w: role belongs to a different tenant", ErrRoleNotFound)
	}

	m := &membership.Membership{
		ID:        id.NewMembershipID(),
		TenantID:  tenantID,
		RoleID:    roleID,
		UserID:    userID,
		GrantedBy: grantedBy,
		CreatedAt: time.Now(),
	}
	if err := e.store.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("gatehouse grant role: %w", err)
	}
	e.invalidateUser(ctx, tenantID, userID)
	if e.plugins != nil {
		e.plugins.EmitRoleGranted(ctx, m)
	}
	return m, nil
}

// RevokeRole removes a role grant.
func (e *Engine) RevokeRole(ctx context.Context, membID id.MembershipID) error {
	m, err := e.store.GetMembership(ctx, membID)
	if err != nil {
		return fmt.Errorf("gatehouse revoke role: %w", err)
	}
	if err := e.store.DeleteMembership(ctx, membID); err != nil {
		return fmt.Errorf("gatehouse revoke role: %w", err)
	}
	e.invalidateUser(ctx, m.TenantID, m.UserID)
	if e.plugins != nil {
		e.plugins.EmitRoleRevoked(ctx, m)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance management
// ──────────────────────────────────────────────────

// AddRoleInheritance makes child inherit every grant of parent. The edge is
// rejected if it would create a cycle: before the write, the parent's
// ancestry is walked and the child must not appear in it.
func (e *Engine) AddRoleInheritance(ctx context.Context, tenantID string, childID, parentID id.RoleID) (*inherit.Edge, error) {
	if childID.String() == parentID.String() {
		return nil, fmt.Errorf("%w: role cannot inherit itself", ErrCyclicInheritance)
	}
	for _, rid := range []id.RoleID{childID, parentID} {
		r, err := e.store.GetRole(ctx, rid)
		if err != nil {
			return nil, fmt.Errorf("gatehouse add inheritance: %w", err)
		}
		if r.TenantID != tenantID {
			return nil, fmt.Errorf("%w: role belongs to a different tenant", ErrRoleNotFound)
		}
	}

	cyclic, err := e.reaches(ctx, tenantID, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("gatehouse add inheritance: %w", err)
	}
	if cyclic {
		return nil, fmt.Errorf("%w: %s is an ancestor of %s", ErrCyclicInheritance, childID, parentID)
	}

	edge := &inherit.Edge{
		ID:        id.NewEdgeID(),
		TenantID:  tenantID,
		RoleID:    childID,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
	if err := e.store.CreateEdge(ctx, edge); err != nil {
		return nil, fmt.Errorf("gatehouse add inheritance: %w", err)
	}
	e.invalidateTenant(ctx, tenantID)
	if e.plugins != nil {
		e.plugins.EmitEdgeCreated(ctx, edge)
	}
	return edge, nil
}

// RemoveRoleInheritance deletes the (child, parent) edge in a tenant.
func (e *Engine) RemoveRoleInheritance(ctx context.Context, tenantID string, childID, parentID id.RoleID) error {
	edges, err := e.store.ListEdges(ctx, &inherit.ListFilter{
		TenantID: tenantID,
		RoleID:   &childID,
		ParentID: &parentID,
	})
	if err != nil {
		return fmt.Errorf("gatehouse remove inheritance: %w", err)
	}
	if len(edges) == 0 {
		return ErrEdgeNotFound
	}
	edgeID := edges[0].ID
	if err := e.store.DeleteEdge(ctx, edgeID); err != nil {
		return fmt.Errorf("gatehouse remove inheritance: %w", err)
	}
	e.invalidateTenant(ctx, tenantID)
	if e.plugins != nil {
		e.plugins.EmitEdgeDeleted(ctx, edgeID)
	}
	return nil
}

// reaches reports whether target appears in the ancestry of start.
func (e *Engine) reaches(ctx context.Context, tenantID string, start, target id.RoleID) (bool, error) {
	seen := map[string]struct{}{}
	frontier := []id.RoleID{start}
	for depth := 0; len(frontier) > 0 && depth < e.config.MaxInheritanceDepth; depth++ {
		var next []id.RoleID
		for _, rid := range frontier {
			if rid.String() == target.String() {
				return true, nil
			}
			if _, ok := seen[rid.String()]; ok {
				continue
			}
			seen[rid.String()] = struct{}{}
			parents, err := e.store.ListParents(ctx, tenantID, rid)
			if err != nil {
				return false, err
			}
			next = append(next, parents...)
		}
		frontier = next
	}
	return false, nil
}

// ──────────────────────────────────────────────────
// Token management
// ──────────────────────────────────────────────────

// IssueToken mints a new API token for a tenant and returns the secret.
// The secret is returned exactly once; only its hash is stored. Every scope
// must be "*" or a catalog "resource:action" pair.
func (e *Engine) IssueToken(ctx context.Context, t *token.Token) (string, error) {
	if t.TenantID == "" {
		return "", errors.New("gatehouse: token tenant is required")
	}
	for _, s := range t.Scopes {
		if err := resource.ValidateScope(s); err != nil {
			return "", fmt.Errorf("gatehouse issue token: %w", err)
		}
	}

	secret, err := token.NewSecret()
	if err != nil {
		return "", fmt.Errorf("gatehouse issue token: %w", err)
	}
	hash, err := token.HashSecret(e.config.TokenHashAlgorithm, secret)
	if err != nil {
		return "", fmt.Errorf("gatehouse issue token: %w", err)
	}

	if t.ID.IsNil() {
		t.ID = id.NewTokenID()
	}
	t.SecretHash = hash
	t.CreatedAt = time.Now()

	if err := e.store.CreateToken(ctx, t); err != nil {
		return "", fmt.Errorf("gatehouse issue token: %w", err)
	}
	if e.plugins != nil {
		e.plugins.EmitTokenIssued(ctx, t)
	}
	return secret, nil
}

// RevokeToken revokes a token. The revocation is effective for every lookup
// that starts after it commits; there is no grace window.
func (e *Engine) RevokeToken(ctx context.Context, tokenID id.TokenID) error {
	if err := e.store.RevokeToken(ctx, tokenID, time.Now()); err != nil {
		return fmt.Errorf("gatehouse revoke token: %w", err)
	}
	if e.plugins != nil {
		e.plugins.EmitTokenRevoked(ctx, tokenID)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Cache invalidation
// ──────────────────────────────────────────────────

func (e *Engine) invalidateTenant(ctx context.Context, tenantID string) {
	if e.cache == nil {
		return
	}
	e.cache.InvalidateTenant(ctx, tenantID)
}

func (e *Engine) invalidateUser(ctx context.Context, tenantID, userID string) {
	if e.cache == nil {
		return
	}
	e.cache.InvalidateUser(ctx, tenantID, userID)
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
