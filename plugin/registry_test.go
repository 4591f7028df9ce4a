package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/token"
)

// testPlugin implements every hook and counts invocations.
type testPlugin struct {
	name string
	fail bool

	beforeAuthorize    int
	afterAuthorize     int
	roleCreated        int
	roleDeleted        int
	ruleCreated        int
	ruleDeleted        int
	roleGranted        int
	roleRevoked        int
	edgeCreated        int
	edgeDeleted        int
	tokenIssued        int
	tokenRevoked       int
	tenantBootstrapped int
	shutdown           int
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) err() error {
	if p.fail {
		return errors.New("hook failed")
	}
	return nil
}

func (p *testPlugin) OnBeforeAuthorize(context.Context, any, string, string, string) error {
	p.beforeAuthorize++
	return p.err()
}

func (p *testPlugin) OnAfterAuthorize(context.Context, any, any) error {
	p.afterAuthorize++
	return p.err()
}

func (p *testPlugin) OnRoleCreated(context.Context, *role.Role) error {
	p.roleCreated++
	return p.err()
}

func (p *testPlugin) OnRoleDeleted(context.Context, id.RoleID) error {
	p.roleDeleted++
	return p.err()
}

func (p *testPlugin) OnRuleCreated(context.Context, *rule.Rule) error {
	p.ruleCreated++
	return p.err()
}

func (p *testPlugin) OnRuleDeleted(context.Context, id.RuleID) error {
	p.ruleDeleted++
	return p.err()
}

func (p *testPlugin) OnRoleGranted(context.Context, *membership.Membership) error {
	p.roleGranted++
	return p.err()
}

func (p *testPlugin) OnRoleRevoked(context.Context, *membership.Membership) error {
	p.roleRevoked++
	return p.err()
}

func (p *testPlugin) OnEdgeCreated(context.Context, *inherit.Edge) error {
	p.edgeCreated++
	return p.err()
}

func (p *testPlugin) OnEdgeDeleted(context.Context, id.EdgeID) error {
	p.edgeDeleted++
	return p.err()
}

func (p *testPlugin) OnTokenIssued(context.Context, *token.Token) error {
	p.tokenIssued++
	return p.err()
}

func (p *testPlugin) OnTokenRevoked(context.Context, id.TokenID) error {
	p.tokenRevoked++
	return p.err()
}

func (p *testPlugin) OnTenantBootstrapped(context.Context, string, string, int) error {
	p.tenantBootstrapped++
	return p.err()
}

func (p *testPlugin) OnShutdown(context.Context) error {
	p.shutdown++
	return p.err()
}

// minimalPlugin implements only the base interface.
type minimalPlugin struct{}

func (minimalPlugin) Name() string { return "minimal" }

func TestRegistryEmitsAllHooks(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())
	p := &testPlugin{name: "counter"}
	reg.Register(p)
	reg.Register(minimalPlugin{})

	if got := len(reg.Plugins()); got != 2 {
		t.Fatalf("Plugins() = %d, want 2", got)
	}

	now := time.Now()
	reg.EmitBeforeAuthorize(ctx, nil, "customer", "read", "org_1")
	reg.EmitAfterAuthorize(ctx, nil, nil)
	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), TenantID: "org_1", Slug: "admin", CreatedAt: now})
	reg.EmitRoleDeleted(ctx, id.NewRoleID())
	reg.EmitRuleCreated(ctx, &rule.Rule{ID: id.NewRuleID(), TenantID: "org_1", Subject: "admin", Resource: "*", Action: "*", CreatedAt: now})
	reg.EmitRuleDeleted(ctx, id.NewRuleID())
	reg.EmitRoleGranted(ctx, &membership.Membership{ID: id.NewMembershipID(), TenantID: "org_1", UserID: "u1"})
	reg.EmitRoleRevoked(ctx, &membership.Membership{ID: id.NewMembershipID(), TenantID: "org_1", UserID: "u1"})
	reg.EmitEdgeCreated(ctx, &inherit.Edge{ID: id.NewEdgeID(), TenantID: "org_1"})
	reg.EmitEdgeDeleted(ctx, id.NewEdgeID())
	reg.EmitTokenIssued(ctx, &token.Token{ID: id.NewTokenID(), TenantID: "org_1"})
	reg.EmitTokenRevoked(ctx, id.NewTokenID())
	reg.EmitTenantBootstrapped(ctx, "org_1", "organization", 8)
	reg.EmitShutdown(ctx)

	counts := map[string]int{
		"beforeAuthorize":    p.beforeAuthorize,
		"afterAuthorize":     p.afterAuthorize,
		"roleCreated":        p.roleCreated,
		"roleDeleted":        p.roleDeleted,
		"ruleCreated":        p.ruleCreated,
		"ruleDeleted":        p.ruleDeleted,
		"roleGranted":        p.roleGranted,
		"roleRevoked":        p.roleRevoked,
		"edgeCreated":        p.edgeCreated,
		"edgeDeleted":        p.edgeDeleted,
		"tokenIssued":        p.tokenIssued,
		"tokenRevoked":       p.tokenRevoked,
		"tenantBootstrapped": p.tenantBootstrapped,
		"shutdown":           p.shutdown,
	}
	for hook, n := range counts {
		if n != 1 {
			t.Errorf("%s invoked %d times, want 1", hook, n)
		}
	}
}

func TestRegistryHookErrorDoesNotStopDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())
	failing := &testPlugin{name: "failing", fail: true}
	ok := &testPlugin{name: "ok"}
	reg.Register(failing)
	reg.Register(ok)

	reg.EmitShutdown(ctx)

	if failing.shutdown != 1 {
		t.Errorf("failing plugin shutdown = %d, want 1", failing.shutdown)
	}
	if ok.shutdown != 1 {
		t.Errorf("ok plugin shutdown = %d, want 1", ok.shutdown)
	}
}

func TestRegistryNilLogger(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(&testPlugin{name: "failing", fail: true})

	// Must not panic when a hook fails with no logger configured.
	reg.EmitShutdown(context.Background())
}
