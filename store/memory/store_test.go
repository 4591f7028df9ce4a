package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/token"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &role.Role{
		ID:       id.NewRoleID(),
		TenantID: "org_1",
		Name:     "Admin",
		Slug:     "admin",
	}

	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Admin" {
		t.Fatalf("expected Admin, got %s", got.Name)
	}

	got, err = s.GetRoleBySlug(ctx, "org_1", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != r.ID.String() {
		t.Fatal("slug lookup mismatch")
	}

	// Duplicate slug in the same tenant is rejected.
	dup := &role.Role{ID: id.NewRoleID(), TenantID: "org_1", Name: "Admin2", Slug: "admin"}
	if err := s.CreateRole(ctx, dup); err == nil {
		t.Fatal("expected duplicate slug rejection")
	}

	r.Name = "Super Admin"
	if err := s.UpdateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetRole(ctx, r.ID)
	if got.Name != "Super Admin" {
		t.Fatal("update failed")
	}

	list, _ := s.ListRoles(ctx, &role.ListFilter{TenantID: "org_1"})
	if len(list) != 1 {
		t.Fatalf("expected 1 role, got %d", len(list))
	}

	count, _ := s.CountRoles(ctx, &role.ListFilter{TenantID: "org_1"})
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetRole(ctx, r.ID)
	if !errors.Is(err, gatehouse.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound after delete, got %v", err)
	}
}

func TestMembershipCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	roleID := id.NewRoleID()

	m := &membership.Membership{
		ID:       id.NewMembershipID(),
		TenantID: "org_1",
		RoleID:   roleID,
		UserID:   "u1",
	}
	if err := s.CreateMembership(ctx, m); err != nil {
		t.Fatal(err)
	}

	// Same grant again is rejected.
	dup := &membership.Membership{
		ID:       id.NewMembershipID(),
		TenantID: "org_1",
		RoleID:   roleID,
		UserID:   "u1",
	}
	if err := s.CreateMembership(ctx, dup); !errors.Is(err, gatehouse.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}

	roles, err := s.ListRolesForUser(ctx, "org_1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0].String() != roleID.String() {
		t.Fatalf("unexpected roles for user: %v", roles)
	}

	tenants, err := s.ListTenantsForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tenants) != 1 || tenants[0] != "org_1" {
		t.Fatalf("unexpected tenants: %v", tenants)
	}

	if err := s.DeleteMembership(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	roles, _ = s.ListRolesForUser(ctx, "org_1", "u1")
	if len(roles) != 0 {
		t.Fatal("membership should be gone")
	}
}

func TestRuleTupleUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &rule.Rule{
		ID:       id.NewRuleID(),
		TenantID: "org_1",
		Subject:  "admin",
		Resource: "customer",
		Action:   "read",
	}
	if err := s.CreateRule(ctx, r); err != nil {
		t.Fatal(err)
	}

	dup := &rule.Rule{
		ID:       id.NewRuleID(),
		TenantID: "org_1",
		Subject:  "admin",
		Resource: "customer",
		Action:   "read",
	}
	if err := s.CreateRule(ctx, dup); !errors.Is(err, gatehouse.ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}

	ok, err := s.HasRule(ctx, r.Tuple())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected HasRule true")
	}

	if err := s.DeleteRuleTuple(ctx, r.Tuple()); err != nil {
		t.Fatal(err)
	}
	ok, _ = s.HasRule(ctx, r.Tuple())
	if ok {
		t.Fatal("expected HasRule false after tuple delete")
	}
}

func TestListRulesForSubjectsIncludesGlobal(t *testing.T) {
	ctx := context.Background()
	s := New()

	mk := func(tenant, subject string) {
		t.Helper()
		err := s.CreateRule(ctx, &rule.Rule{
			ID:       id.NewRuleID(),
			TenantID: tenant,
			Subject:  subject,
			Resource: "customer",
			Action:   "read",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	mk("org_1", "admin")
	mk(rule.GlobalTenant, "admin")
	mk("org_2", "admin")
	mk("org_1", "viewer")

	rules, err := s.ListRulesForSubjects(ctx, "org_1", []string{"admin"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected tenant + global rule, got %d", len(rules))
	}
	for _, r := range rules {
		if r.TenantID != "org_1" && r.TenantID != rule.GlobalTenant {
			t.Fatalf("unexpected tenant %s", r.TenantID)
		}
	}
}

func TestEdgeCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	child, parent := id.NewRoleID(), id.NewRoleID()

	e := &inherit.Edge{
		ID:       id.NewEdgeID(),
		TenantID: "org_1",
		RoleID:   child,
		ParentID: parent,
	}
	if err := s.CreateEdge(ctx, e); err != nil {
		t.Fatal(err)
	}

	dup := &inherit.Edge{ID: id.NewEdgeID(), TenantID: "org_1", RoleID: child, ParentID: parent}
	if err := s.CreateEdge(ctx, dup); !errors.Is(err, gatehouse.ErrDuplicateEdge) {
		t.Fatalf("expected ErrDuplicateEdge, got %v", err)
	}

	parents, err := s.ListParents(ctx, "org_1", child)
	if err != nil {
		t.Fatal(err)
	}
	if len(parents) != 1 || parents[0].String() != parent.String() {
		t.Fatalf("unexpected parents: %v", parents)
	}

	if err := s.DeleteEdgesByRole(ctx, parent); err != nil {
		t.Fatal(err)
	}
	parents, _ = s.ListParents(ctx, "org_1", child)
	if len(parents) != 0 {
		t.Fatal("edge should be gone after deleting by referenced role")
	}
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	tok := &token.Token{
		ID:         id.NewTokenID(),
		TenantID:   "org_1",
		Name:       "ci",
		SecretHash: "abc123",
		Scopes:     []string{"customer:read"},
		CreatedAt:  time.Now(),
	}
	if err := s.CreateToken(ctx, tok); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTokenBySecretHash(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != tok.ID.String() {
		t.Fatal("hash lookup mismatch")
	}

	_, err = s.GetTokenBySecretHash(ctx, "wrong")
	if !errors.Is(err, gatehouse.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	now := time.Now()
	if err := s.RevokeToken(ctx, tok.ID, now); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetToken(ctx, tok.ID)
	if got.RevokedAt == nil {
		t.Fatal("expected RevokedAt set")
	}
	first := *got.RevokedAt

	// Revoking again keeps the original timestamp.
	if err := s.RevokeToken(ctx, tok.ID, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetToken(ctx, tok.ID)
	if !got.RevokedAt.Equal(first) {
		t.Fatal("second revoke must be a no-op")
	}

	// Revoked tokens are hidden by default from listings.
	list, _ := s.ListTokens(ctx, &token.ListFilter{TenantID: "org_1"})
	if len(list) != 0 {
		t.Fatalf("expected 0 active tokens, got %d", len(list))
	}
	list, _ = s.ListTokens(ctx, &token.ListFilter{TenantID: "org_1", IncludeRevoked: true})
	if len(list) != 1 {
		t.Fatalf("expected 1 token with revoked included, got %d", len(list))
	}

	// A nil filter defaults to hiding revoked tokens, same as every backend.
	list, _ = s.ListTokens(ctx, nil)
	if len(list) != 0 {
		t.Fatalf("nil filter must hide revoked tokens, got %d", len(list))
	}
	count, _ := s.CountTokens(ctx, nil)
	if count != 0 {
		t.Fatalf("nil-filter count must hide revoked tokens, got %d", count)
	}
}

func TestAuditEvents(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := &audit.Event{
		ID:        id.NewAuditEventID(),
		TenantID:  "org_1",
		Decision:  "allow",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	recent := &audit.Event{
		ID:        id.NewAuditEventID(),
		TenantID:  "org_1",
		Decision:  "deny_no_rule",
		CreatedAt: time.Now(),
	}
	for _, e := range []*audit.Event{old, recent} {
		if err := s.CreateEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListEvents(ctx, &audit.QueryFilter{TenantID: "org_1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 events, got %d", len(list))
	}
	if list[0].ID.String() != recent.ID.String() {
		t.Fatal("expected newest-first ordering")
	}

	list, _ = s.ListEvents(ctx, &audit.QueryFilter{TenantID: "org_1", Decision: "allow"})
	if len(list) != 1 {
		t.Fatalf("expected 1 allow event, got %d", len(list))
	}

	n, err := s.PurgeEvents(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged event, got %d", n)
	}
}

func TestDeepCopyIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	tok := &token.Token{
		ID:         id.NewTokenID(),
		TenantID:   "org_1",
		SecretHash: "h",
		Scopes:     []string{"customer:read"},
	}
	if err := s.CreateToken(ctx, tok); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetToken(ctx, tok.ID)
	got.Scopes[0] = "mutated"

	again, _ := s.GetToken(ctx, tok.ID)
	if again.Scopes[0] != "customer:read" {
		t.Fatal("stored token must not share scope slice with callers")
	}
}
