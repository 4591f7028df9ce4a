package gatehouse_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/store/memory"
	"github.com/xraph/gatehouse/token"
)

func newTestEngine(t *testing.T, opts ...gatehouse.Option) (*gatehouse.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := gatehouse.NewEngine(append([]gatehouse.Option{gatehouse.WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func mustCreateRole(t *testing.T, eng *gatehouse.Engine, tenantID, name string) *role.Role {
	t.Helper()
	r := &role.Role{TenantID: tenantID, Name: name}
	if err := eng.CreateRole(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func mustAddRule(t *testing.T, eng *gatehouse.Engine, tenantID, subject, resource, action string) *rule.Rule {
	t.Helper()
	r := &rule.Rule{TenantID: tenantID, Subject: subject, Resource: resource, Action: action}
	if err := eng.AddRule(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNewEngineRequiresStore(t *testing.T) {
	_, err := gatehouse.NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestEnforceRoleGrant(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	admin := mustCreateRole(t, eng, "org_1", "Admin")
	if _, err := eng.GrantRole(ctx, "org_1", admin.ID, "u1", "system"); err != nil {
		t.Fatal(err)
	}
	mustAddRule(t, eng, "org_1", admin.ID.String(), "customer", "read")

	res, err := eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed || res.Decision != gatehouse.DecisionAllow {
		t.Fatalf("expected allow, got %+v", res)
	}

	// Unmatched action is denied without a deny rule existing anywhere.
	res, err = eng.Enforce(ctx, "org_1", "u1", "customer", "delete")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Decision != gatehouse.DecisionDenyNoRule {
		t.Fatalf("expected deny_no_rule, got %+v", res)
	}
}

func TestEnforceNoRoles(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	res, err := eng.Enforce(ctx, "org_1", "stranger", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Decision != gatehouse.DecisionDenyNoRoles {
		t.Fatalf("expected deny_no_roles, got %+v", res)
	}
}

func TestEnforceWildcardResource(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	owner := mustCreateRole(t, eng, "org_1", "Owner")
	if _, err := eng.GrantRole(ctx, "org_1", owner.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}
	mustAddRule(t, eng, "org_1", owner.ID.String(), "*", "*")

	for _, pair := range [][2]string{
		{"customer", "read"},
		{"campaign", "delete"},
		{"token", "issue"},
	} {
		res, err := eng.Enforce(ctx, "org_1", "u1", pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("wildcard rule should grant %s:%s", pair[0], pair[1])
		}
	}
}

func TestEnforceWildcardAction(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	r := mustCreateRole(t, eng, "org_1", "Ops")
	if _, err := eng.GrantRole(ctx, "org_1", r.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}
	mustAddRule(t, eng, "org_1", r.ID.String(), "campaign", "*")

	res, err := eng.Enforce(ctx, "org_1", "u1", "campaign", "delete")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("campaign:* should grant campaign:delete")
	}

	res, err = eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("campaign:* must not leak into other resources")
	}
}

func TestEnforceGlobalTenantRule(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	r := mustCreateRole(t, eng, "org_1", "Support")
	if _, err := eng.GrantRole(ctx, "org_1", r.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}
	// Grant lives in the global domain, not in org_1.
	mustAddRule(t, eng, rule.GlobalTenant, r.ID.String(), "customer", "read")

	res, err := eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("global-domain rule should apply in every tenant")
	}
}

func TestEnforceDirectUserRule(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	// The user holds no roles; the rule names the user directly.
	mustAddRule(t, eng, "org_1", "u1", "audit", "read")

	res, err := eng.Enforce(ctx, "org_1", "u1", "audit", "read")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("direct user-subject rule should grant")
	}
}

func TestEnforceRejectsTenantMismatch(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	r := mustCreateRole(t, eng, "org_1", "Admin")
	if _, err := eng.GrantRole(ctx, "org_1", r.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}
	mustAddRule(t, eng, "org_1", r.ID.String(), "customer", "read")

	// Same user, different tenant: no roles, no rules there.
	res, err := eng.Enforce(ctx, "org_2", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("grants must not leak across tenants")
	}
}

func TestResolveRolesTransitivity(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	a := mustCreateRole(t, eng, "org_1", "A")
	b := mustCreateRole(t, eng, "org_1", "B")
	c := mustCreateRole(t, eng, "org_1", "C")
	if _, err := eng.AddRoleInheritance(ctx, "org_1", a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddRoleInheritance(ctx, "org_1", b.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.GrantRole(ctx, "org_1", a.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}

	roles, err := eng.ResolveRoles(ctx, "org_1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected closure of 3 roles, got %d", len(roles))
	}

	// A grant on the grandparent is effective for the child's holder.
	mustAddRule(t, eng, "org_1", c.ID.String(), "campaign", "delete")
	res, err := eng.Enforce(ctx, "org_1", "u1", "campaign", "delete")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("inherited grant should allow")
	}
}

func TestResolveRolesMultiParent(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	child := mustCreateRole(t, eng, "org_1", "Child")
	p1 := mustCreateRole(t, eng, "org_1", "Parent One")
	p2 := mustCreateRole(t, eng, "org_1", "Parent Two")
	for _, p := range []*role.Role{p1, p2} {
		if _, err := eng.AddRoleInheritance(ctx, "org_1", child.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.GrantRole(ctx, "org_1", child.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}

	roles, err := eng.ResolveRoles(ctx, "org_1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected child + both parents, got %d", len(roles))
	}
}

func TestResolveRolesCycleTerminates(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	a := mustCreateRole(t, eng, "org_1", "A")
	b := mustCreateRole(t, eng, "org_1", "B")
	// Bypass the engine's pre-check and plant a cycle directly.
	for _, e := range []*inherit.Edge{
		{ID: id.NewEdgeID(), TenantID: "org_1", RoleID: a.ID, ParentID: b.ID},
		{ID: id.NewEdgeID(), TenantID: "org_1", RoleID: b.ID, ParentID: a.ID},
	} {
		if err := s.CreateEdge(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.GrantRole(ctx, "org_1", a.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}

	roles, err := eng.ResolveRoles(ctx, "org_1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 2 {
		t.Fatalf("cycle walk should settle on both roles once, got %d", len(roles))
	}
}

func TestResolveRolesCycleLogged(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	eng, s := newTestEngine(t, gatehouse.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	a := mustCreateRole(t, eng, "org_1", "A")
	b := mustCreateRole(t, eng, "org_1", "B")
	for _, e := range []*inherit.Edge{
		{ID: id.NewEdgeID(), TenantID: "org_1", RoleID: a.ID, ParentID: b.ID},
		{ID: id.NewEdgeID(), TenantID: "org_1", RoleID: b.ID, ParentID: a.ID},
	} {
		if err := s.CreateEdge(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.GrantRole(ctx, "org_1", a.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.ResolveRoles(ctx, "org_1", "u1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "cyclic role inheritance") {
		t.Fatalf("expected a cycle error log, got: %s", buf.String())
	}

	// A diamond (two roles sharing one parent) is legitimate and must
	// resolve without cycle noise.
	buf.Reset()
	c := mustCreateRole(t, eng, "org_2", "C")
	d := mustCreateRole(t, eng, "org_2", "D")
	p := mustCreateRole(t, eng, "org_2", "P")
	for _, child := range []*role.Role{c, d} {
		if _, err := eng.AddRoleInheritance(ctx, "org_2", child.ID, p.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := eng.GrantRole(ctx, "org_2", child.ID, "u2", ""); err != nil {
			t.Fatal(err)
		}
	}
	roles, err := eng.ResolveRoles(ctx, "org_2", "u2")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 3 {
		t.Fatalf("expected both children + shared parent, got %d", len(roles))
	}
	if strings.Contains(buf.String(), "cyclic role inheritance") {
		t.Fatalf("shared parent must not be reported as a cycle: %s", buf.String())
	}
}

func TestAddRoleInheritanceRejectsCycle(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	a := mustCreateRole(t, eng, "org_1", "A")
	b := mustCreateRole(t, eng, "org_1", "B")
	c := mustCreateRole(t, eng, "org_1", "C")
	if _, err := eng.AddRoleInheritance(ctx, "org_1", a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddRoleInheritance(ctx, "org_1", b.ID, c.ID); err != nil {
		t.Fatal(err)
	}

	// Closing the loop c→a must be refused.
	_, err := eng.AddRoleInheritance(ctx, "org_1", c.ID, a.ID)
	if !errors.Is(err, gatehouse.ErrCyclicInheritance) {
		t.Fatalf("expected ErrCyclicInheritance, got %v", err)
	}

	// Self-edge likewise.
	_, err = eng.AddRoleInheritance(ctx, "org_1", a.ID, a.ID)
	if !errors.Is(err, gatehouse.ErrCyclicInheritance) {
		t.Fatalf("expected ErrCyclicInheritance for self edge, got %v", err)
	}
}

func TestAddRuleValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	err := eng.AddRule(ctx, &rule.Rule{TenantID: "org_1", Subject: "u1", Resource: "spaceship", Action: "read"})
	if !errors.Is(err, gatehouse.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for unknown resource, got %v", err)
	}

	err = eng.AddRule(ctx, &rule.Rule{TenantID: "org_1", Subject: "u1", Resource: "audit", Action: "write"})
	if !errors.Is(err, gatehouse.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule for unsupported action, got %v", err)
	}

	// Duplicate tuple.
	mustAddRule(t, eng, "org_1", "u1", "customer", "read")
	err = eng.AddRule(ctx, &rule.Rule{TenantID: "org_1", Subject: "u1", Resource: "customer", Action: "read"})
	if !errors.Is(err, gatehouse.ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}
}

func TestDeleteRoleGuards(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	r := mustCreateRole(t, eng, "org_1", "Team Lead")
	if _, err := eng.GrantRole(ctx, "org_1", r.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}

	err := eng.DeleteRole(ctx, r.ID)
	if !errors.Is(err, gatehouse.ErrRoleReferenced) {
		t.Fatalf("expected ErrRoleReferenced, got %v", err)
	}

	memberships, err := s.ListMemberships(ctx, &membership.ListFilter{TenantID: "org_1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeRole(ctx, memberships[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := eng.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	// System roles cannot be deleted at all.
	sys := &role.Role{TenantID: "org_1", Name: "Owner", IsSystem: true}
	if err := eng.CreateRole(ctx, sys); err != nil {
		t.Fatal(err)
	}
	err = eng.DeleteRole(ctx, sys.ID)
	if !errors.Is(err, gatehouse.ErrSystemRoleImmutable) {
		t.Fatalf("expected ErrSystemRoleImmutable, got %v", err)
	}
}

func TestGrantRoleWrongTenant(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	r := mustCreateRole(t, eng, "org_1", "Admin")
	_, err := eng.GrantRole(ctx, "org_2", r.ID, "u1", "")
	if !errors.Is(err, gatehouse.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}

	// Duplicate grant.
	if _, err := eng.GrantRole(ctx, "org_1", r.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}
	_, err = eng.GrantRole(ctx, "org_1", r.ID, "u1", "")
	if !errors.Is(err, gatehouse.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}
}

func TestIssueToken(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	tok := &token.Token{TenantID: "org_1", Name: "ci", Scopes: []string{"customer:read", "reward:write"}}
	secret, err := eng.IssueToken(ctx, tok)
	if err != nil {
		t.Fatal(err)
	}
	if secret == "" {
		t.Fatal("expected a secret")
	}
	if strings.Contains(tok.SecretHash, secret) {
		t.Fatal("secret must not be stored")
	}

	hash, err := token.HashSecret(token.AlgSHA256, secret)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := s.GetTokenBySecretHash(ctx, hash)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID.String() != tok.ID.String() {
		t.Fatal("stored token does not match issued token")
	}
}

func TestIssueTokenRejectsBadScope(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.IssueToken(ctx, &token.Token{TenantID: "org_1", Scopes: []string{"Customer:Read"}})
	if err == nil {
		t.Fatal("scope matching is case-sensitive; mixed case must be rejected at issuance")
	}

	_, err = eng.IssueToken(ctx, &token.Token{TenantID: "org_1", Scopes: []string{"customer"}})
	if err == nil {
		t.Fatal("scope without action must be rejected")
	}
}

func TestEnforceCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, gatehouse.WithCache(cache.NewMemory()))

	r := mustCreateRole(t, eng, "org_1", "Admin")
	if _, err := eng.GrantRole(ctx, "org_1", r.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}
	added := mustAddRule(t, eng, "org_1", r.ID.String(), "customer", "read")

	res, err := eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("expected allow")
	}

	// Removing the rule must invalidate the cached allow.
	if err := eng.RemoveRule(ctx, added.ID); err != nil {
		t.Fatal(err)
	}
	res, err = eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("stale cached allow served after rule removal")
	}

	// Sanity: the rule really is gone from the store.
	ok, err := s.HasRule(ctx, added.Tuple())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("rule should be deleted")
	}
}

// outageStore simulates a backend that loses connectivity mid-flight.
type outageStore struct {
	*memory.Store
	down bool
}

func (s *outageStore) ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.Store.ListRolesForUser(ctx, tenantID, userID)
}

func (s *outageStore) ListRulesForSubjects(ctx context.Context, tenantID string, subjects []string) ([]*rule.Rule, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.Store.ListRulesForSubjects(ctx, tenantID, subjects)
}

func TestEnforceStoreOutageIsRetryable(t *testing.T) {
	ctx := context.Background()
	s := &outageStore{Store: memory.New()}
	eng, err := gatehouse.NewEngine(gatehouse.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}

	admin := mustCreateRole(t, eng, "org_1", "Admin")
	if _, err := eng.GrantRole(ctx, "org_1", admin.ID, "u1", ""); err != nil {
		t.Fatal(err)
	}

	s.down = true
	_, err = eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if !errors.Is(err, gatehouse.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable during outage, got %v", err)
	}
	_, err = eng.ResolveRoles(ctx, "org_1", "u1")
	if !errors.Is(err, gatehouse.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable from resolution, got %v", err)
	}

	// Recovery: the same call decides normally once the store is back.
	s.down = false
	res, err := eng.Enforce(ctx, "org_1", "u1", "customer", "read")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("no rule grants the action, expected deny")
	}
}
