package gatehouse_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/resource"
	"github.com/xraph/gatehouse/token"
)

// fakeIDP validates a single known session credential.
type fakeIDP struct {
	credential string
	userID     string
}

func (f *fakeIDP) ValidateSession(_ context.Context, credential string) (string, error) {
	if credential == f.credential {
		return f.userID, nil
	}
	return "", gatehouse.ErrUnauthenticated
}

func TestAuthorizeTokenPath(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	authz := gatehouse.NewAuthorizer(eng)

	tok := &token.Token{TenantID: "org_1", Name: "ci", Scopes: []string{"customer:read"}}
	secret, err := eng.IssueToken(ctx, tok)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/customers", nil)
	req.Header.Set("Authorization", "Bearer "+secret)

	res, err := authz.Authorize(ctx, req, resource.TypeCustomer, resource.ActionRead, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed() || res.Path != audit.PathToken {
		t.Fatalf("expected token-path allow, got %+v", res)
	}

	// Scope list does not cover writes.
	req = httptest.NewRequest("POST", "/customers", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	res, err = authz.Authorize(ctx, req, resource.TypeCustomer, resource.ActionWrite, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed() || res.Decision != gatehouse.DecisionDenyScope {
		t.Fatalf("expected deny_scope, got %+v", res)
	}

	// Tenant binding: the token cannot act in another tenant even with "*".
	req = httptest.NewRequest("GET", "/customers", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	res, err = authz.Authorize(ctx, req, resource.TypeCustomer, resource.ActionRead, "org_2")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed() || res.Decision != gatehouse.DecisionDenyTenant {
		t.Fatalf("expected deny_tenant, got %+v", res)
	}

	// One audit event per call.
	n, err := s.CountEvents(ctx, &audit.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("expected 3 audit events, got %d", n)
	}
}

func TestAuthorizeRevokedAndExpiredToken(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	authz := gatehouse.NewAuthorizer(eng)

	tok := &token.Token{TenantID: "org_1", Scopes: []string{"*"}}
	secret, err := eng.IssueToken(ctx, tok)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeToken(ctx, tok.ID); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/customers", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	res, err := authz.Authorize(ctx, req, resource.TypeCustomer, resource.ActionRead, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != gatehouse.StatusUnauthenticated || res.Decision != gatehouse.DecisionTokenRevoked {
		t.Fatalf("expected token_revoked, got %+v", res)
	}

	// Expired token on a fresh registry entry.
	past := time.Now().Add(-time.Hour)
	tok2 := &token.Token{TenantID: "org_1", Scopes: []string{"*"}, ExpiresAt: &past}
	secret2, err := eng.IssueToken(ctx, tok2)
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest("GET", "/customers", nil)
	req.Header.Set("Authorization", "Bearer "+secret2)
	res, err = authz.Authorize(ctx, req, resource.TypeCustomer, resource.ActionRead, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != gatehouse.StatusUnauthenticated || res.Decision != gatehouse.DecisionTokenExpired {
		t.Fatalf("expected token_expired, got %+v", res)
	}

	// The distinction survives into the audit trail.
	events, err := s.ListEvents(ctx, &audit.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	decisions := map[string]bool{}
	for _, e := range events {
		decisions[e.Decision] = true
	}
	if !decisions[string(gatehouse.DecisionTokenRevoked)] || !decisions[string(gatehouse.DecisionTokenExpired)] {
		t.Fatalf("audit trail missing token decisions: %v", decisions)
	}
}

func TestAuthorizeSessionPath(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	idp := &fakeIDP{credential: "sess-abc", userID: "alice"}
	authz := gatehouse.NewAuthorizer(eng, gatehouse.WithIdentityProvider(idp))

	admin := mustCreateRole(t, eng, "org_1", "Admin")
	if _, err := eng.GrantRole(ctx, "org_1", admin.ID, "alice", ""); err != nil {
		t.Fatal(err)
	}
	mustAddRule(t, eng, "org_1", admin.ID.String(), "campaign", "*")

	req := httptest.NewRequest("DELETE", "/campaigns/c1", nil)
	req.Header.Set("Cookie", gatehouse.DefaultSessionCookie+"=sess-abc")

	res, err := authz.Authorize(ctx, req, resource.TypeCampaign, resource.ActionDelete, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed() || res.Path != audit.PathSession {
		t.Fatalf("expected session-path allow, got %+v", res)
	}

	// Wrong credential: unauthenticated, audited on the none path.
	req = httptest.NewRequest("DELETE", "/campaigns/c1", nil)
	req.Header.Set("Cookie", gatehouse.DefaultSessionCookie+"=sess-wrong")
	res, err = authz.Authorize(ctx, req, resource.TypeCampaign, resource.ActionDelete, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != gatehouse.StatusUnauthenticated {
		t.Fatalf("expected unauthenticated, got %+v", res)
	}

	events, err := s.ListEvents(ctx, &audit.QueryFilter{TenantID: "org_1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}
}

func TestAuthorizeNoCredential(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	authz := gatehouse.NewAuthorizer(eng)

	req := httptest.NewRequest("GET", "/customers", nil)
	res, err := authz.Authorize(ctx, req, resource.TypeCustomer, resource.ActionRead, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != gatehouse.StatusUnauthenticated || res.Decision != gatehouse.DecisionUnauthenticated {
		t.Fatalf("expected unauthenticated, got %+v", res)
	}
}

func TestAuthorizeRejectsUnknownResource(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	authz := gatehouse.NewAuthorizer(eng)

	req := httptest.NewRequest("GET", "/x", nil)
	_, err := authz.Authorize(ctx, req, resource.Type("spaceship"), resource.ActionRead, "org_1")
	if err == nil {
		t.Fatal("unknown resource types must be rejected at the boundary")
	}
}

func TestAuthorizePrincipalSkipsResolution(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	authz := gatehouse.NewAuthorizer(eng)

	p := &gatehouse.Principal{
		Kind:     gatehouse.KindAPIToken,
		ID:       "tok_x",
		TenantID: "org_1",
		Scopes:   []string{"*"},
	}
	res, err := authz.AuthorizePrincipal(ctx, p, resource.TypeReward, resource.ActionWrite, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed() {
		t.Fatalf("expected allow via wildcard scope, got %+v", res)
	}

	res, err = authz.AuthorizePrincipal(ctx, nil, resource.TypeReward, resource.ActionWrite, "org_1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != gatehouse.StatusUnauthenticated {
		t.Fatalf("nil principal should be unauthenticated, got %+v", res)
	}
}
