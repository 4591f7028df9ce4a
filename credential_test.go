package gatehouse_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/token"
)

func TestResolveBearerToken(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	resolver := gatehouse.NewResolver(eng, nil)

	tok := &token.Token{TenantID: "org_1", Scopes: []string{"customer:read"}}
	secret, err := eng.IssueToken(ctx, tok)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+secret)

	p, err := resolver.Resolve(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != gatehouse.KindAPIToken || p.TenantID != "org_1" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if len(p.Scopes) != 1 || p.Scopes[0] != "customer:read" {
		t.Fatalf("unexpected scopes: %v", p.Scopes)
	}
}

func TestResolveUnknownBearerSecret(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	resolver := gatehouse.NewResolver(eng, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-secret")

	_, err := resolver.Resolve(ctx, req)
	if !errors.Is(err, gatehouse.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolveInvalidBearerDoesNotFallThrough(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	idp := &fakeIDP{credential: "sess-abc", userID: "alice"}
	resolver := gatehouse.NewResolver(eng, idp)

	// A valid session cookie rides along with a dead bearer token.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer revoked-or-bogus")
	req.Header.Set("Cookie", gatehouse.DefaultSessionCookie+"=sess-abc")

	_, err := resolver.Resolve(ctx, req)
	if !gatehouse.IsUnauthenticated(err) {
		t.Fatalf("dead bearer token must not be downgraded to session auth, got %v", err)
	}
}

func TestResolveRevokedTokenSentinel(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	resolver := gatehouse.NewResolver(eng, nil)

	tok := &token.Token{TenantID: "org_1", Scopes: []string{"*"}}
	secret, err := eng.IssueToken(ctx, tok)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeToken(ctx, tok.ID); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+secret)

	_, err = resolver.Resolve(ctx, req)
	if !errors.Is(err, gatehouse.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
	// Still part of the unauthenticated family for callers.
	if !gatehouse.IsUnauthenticated(err) {
		t.Fatal("ErrTokenRevoked should be unauthenticated to callers")
	}
}

func TestResolveSessionBuildsMemberships(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	idp := &fakeIDP{credential: "sess-abc", userID: "alice"}
	resolver := gatehouse.NewResolver(eng, idp)

	r1 := mustCreateRole(t, eng, "org_1", "Admin")
	r2 := mustCreateRole(t, eng, "org_2", "Viewer")
	if _, err := eng.GrantRole(ctx, "org_1", r1.ID, "alice", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.GrantRole(ctx, "org_2", r2.ID, "alice", ""); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", gatehouse.DefaultSessionCookie+"=sess-abc")

	p, err := resolver.Resolve(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != gatehouse.KindUser || p.ID != "alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if len(p.Memberships) != 2 {
		t.Fatalf("expected memberships in 2 tenants, got %d", len(p.Memberships))
	}
}

func TestResolveCustomCookieName(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	idp := &fakeIDP{credential: "sess-abc", userID: "alice"}
	resolver := gatehouse.NewResolver(eng, idp, gatehouse.WithSessionCookie("sid"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "sid=sess-abc")

	p, err := resolver.Resolve(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestHTTPIdentityProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sessions/validate" {
			http.NotFound(w, r)
			return
		}
		var in struct {
			Credential string `json:"credential"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if in.Credential != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"user_id": "alice"})
	}))
	defer srv.Close()

	idp := gatehouse.NewHTTPIdentityProvider(srv.URL)

	userID, err := idp.ValidateSession(context.Background(), "good")
	if err != nil {
		t.Fatal(err)
	}
	if userID != "alice" {
		t.Fatalf("expected alice, got %s", userID)
	}

	_, err = idp.ValidateSession(context.Background(), "bad")
	if !errors.Is(err, gatehouse.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestHTTPIdentityProviderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // Connection refused from here on.

	idp := gatehouse.NewHTTPIdentityProvider(srv.URL)
	_, err := idp.ValidateSession(context.Background(), "good")
	if !errors.Is(err, gatehouse.ErrIdentityProviderUnavailable) {
		t.Fatalf("expected ErrIdentityProviderUnavailable, got %v", err)
	}
}
