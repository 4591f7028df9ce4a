package gatehouse_test

import (
	"context"
	"sync"
	"testing"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/rule"
)

// 1 owner + 1 admin wildcard, 6 member grants, 3 viewer grants.
const seedRuleCount = 11

type staticLister struct {
	tenants []gatehouse.Tenant
	calls   int
}

func (l *staticLister) ListTenants(_ context.Context) ([]gatehouse.Tenant, error) {
	l.calls++
	return l.tenants, nil
}

func TestBootstrapSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := gatehouse.NewBootstrapper(eng)

	seeded, err := b.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization)
	if err != nil {
		t.Fatal(err)
	}
	if seeded != seedRuleCount {
		t.Fatalf("expected %d rules seeded, got %d", seedRuleCount, seeded)
	}

	for _, slug := range []string{"owner", "admin", "member", "viewer"} {
		r, err := s.GetRoleBySlug(ctx, "org_1", slug)
		if err != nil {
			t.Fatalf("seed role %s missing: %v", slug, err)
		}
		if !r.IsSystem {
			t.Fatalf("seed role %s should be a system role", slug)
		}
	}

	n, err := s.CountRulesByTenant(ctx, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if n != seedRuleCount {
		t.Fatalf("expected %d rules in store, got %d", seedRuleCount, n)
	}
}

func TestBootstrapSeededRolesEnforce(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := gatehouse.NewBootstrapper(eng)

	if _, err := b.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization); err != nil {
		t.Fatal(err)
	}

	admin, err := s.GetRoleBySlug(ctx, "org_1", "admin")
	if err != nil {
		t.Fatal(err)
	}
	member, err := s.GetRoleBySlug(ctx, "org_1", "member")
	if err != nil {
		t.Fatal(err)
	}
	viewer, err := s.GetRoleBySlug(ctx, "org_1", "viewer")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.GrantRole(ctx, "org_1", admin.ID, "alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.GrantRole(ctx, "org_1", member.ID, "bob", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.GrantRole(ctx, "org_1", viewer.ID, "carol", ""); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		user     string
		resource string
		action   string
		want     bool
	}{
		{"alice", "campaign", "delete", true}, // admin wildcard
		{"alice", "token", "issue", true},
		{"bob", "customer", "write", true},
		{"bob", "campaign", "delete", false}, // member has no delete
		{"carol", "customer", "read", true},
		{"carol", "customer", "write", false}, // viewer is read-only
	}
	for _, tc := range cases {
		res, err := eng.Enforce(ctx, "org_1", tc.user, tc.resource, tc.action)
		if err != nil {
			t.Fatal(err)
		}
		if res.Allowed != tc.want {
			t.Errorf("%s %s:%s = %v, want %v", tc.user, tc.resource, tc.action, res.Allowed, tc.want)
		}
	}
}

func TestBootstrapIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	b := gatehouse.NewBootstrapper(eng)
	if _, err := b.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization); err != nil {
		t.Fatal(err)
	}

	// Same instance short-circuits.
	seeded, err := b.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization)
	if err != nil {
		t.Fatal(err)
	}
	if seeded != 0 {
		t.Fatalf("repeat bootstrap seeded %d rules", seeded)
	}

	// A fresh instance (new process) finds everything present and adds nothing.
	b2 := gatehouse.NewBootstrapper(eng)
	seeded, err = b2.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization)
	if err != nil {
		t.Fatal(err)
	}
	if seeded != 0 {
		t.Fatalf("fresh-instance re-bootstrap seeded %d rules", seeded)
	}

	n, _ := s.CountRulesByTenant(ctx, "org_1")
	if n != seedRuleCount {
		t.Fatalf("expected %d rules after re-bootstrap, got %d", seedRuleCount, n)
	}
}

func TestBootstrapConcurrent(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := gatehouse.NewBootstrapper(eng)
			if _, err := b.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	n, err := s.CountRulesByTenant(ctx, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if n != seedRuleCount {
		t.Fatalf("concurrent bootstraps converged on %d rules, want %d", n, seedRuleCount)
	}
	roles, err := s.ListRoles(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 4 {
		t.Fatalf("expected 4 seed roles, got %d", len(roles))
	}
}

func TestBootstrapRejectsGlobalTenant(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := gatehouse.NewBootstrapper(eng)

	if _, err := b.Bootstrap(ctx, rule.GlobalTenant, gatehouse.LevelOrganization); err == nil {
		t.Fatal("bootstrapping the global domain must be rejected")
	}
	if _, err := b.Bootstrap(ctx, "", gatehouse.LevelOrganization); err == nil {
		t.Fatal("bootstrapping an empty tenant must be rejected")
	}
}

func TestWarmUpSeedsEmptyTenants(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := gatehouse.NewBootstrapper(eng)

	if _, err := b.Bootstrap(ctx, "org_1", gatehouse.LevelOrganization); err != nil {
		t.Fatal(err)
	}

	lister := &staticLister{tenants: []gatehouse.Tenant{
		{ID: "org_1", Level: gatehouse.LevelOrganization},
		{ID: "proj_9", Level: gatehouse.LevelProject},
	}}
	if err := b.WarmUp(ctx, lister); err != nil {
		t.Fatal(err)
	}

	n, _ := s.CountRulesByTenant(ctx, "proj_9")
	if n != seedRuleCount {
		t.Fatalf("warm-up should seed the empty tenant, got %d rules", n)
	}

	// Warm-up runs once per instance lifetime.
	if err := b.WarmUp(ctx, lister); err != nil {
		t.Fatal(err)
	}
	if lister.calls != 1 {
		t.Fatalf("expected 1 lister call, got %d", lister.calls)
	}
}
