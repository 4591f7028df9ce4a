package gatehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xraph/gatehouse/token"
)

// DefaultSessionCookie is the cookie the resolver reads session credentials
// from when not overridden.
const DefaultSessionCookie = "session"

// IdentityProvider validates opaque session credentials against the external
// identity system and returns the user ID they belong to.
//
// Implementations return ErrUnauthenticated for a credential that is not a
// valid live session, and ErrIdentityProviderUnavailable when the provider
// cannot be reached.
type IdentityProvider interface {
	ValidateSession(ctx context.Context, credential string) (userID string, err error)
}

// Resolver turns an incoming HTTP request into a Principal.
//
// A Bearer Authorization header is always tried first, and a present but
// invalid bearer token never falls through to session auth: an attacker
// holding a dead token must not be quietly downgraded to whatever cookie
// rides along. Only when no bearer token is present is the session cookie
// consulted.
type Resolver struct {
	engine *Engine
	idp    IdentityProvider
	logger *slog.Logger

	cookieName string
}

// ResolverOption is a functional option for the Resolver.
type ResolverOption func(*Resolver)

// WithSessionCookie overrides the session cookie name.
func WithSessionCookie(name string) ResolverOption {
	return func(r *Resolver) { r.cookieName = name }
}

// NewResolver creates a credential resolver. The identity provider may be
// nil, in which case only bearer tokens resolve.
func NewResolver(engine *Engine, idp IdentityProvider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		engine:     engine,
		idp:        idp,
		logger:     engine.logger,
		cookieName: DefaultSessionCookie,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve extracts and validates the request's credential and returns the
// acting principal. With no usable credential it returns ErrUnauthenticated;
// an expired or revoked bearer token returns the more specific sentinel.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*Principal, error) {
	if secret, ok := bearerSecret(req); ok {
		return r.resolveToken(ctx, secret)
	}
	if c, err := req.Cookie(r.cookieName); err == nil && c.Value != "" {
		return r.resolveSession(ctx, c.Value)
	}
	return nil, ErrUnauthenticated
}

func (r *Resolver) resolveToken(ctx context.Context, secret string) (*Principal, error) {
	hash, err := token.HashSecret(r.engine.config.TokenHashAlgorithm, secret)
	if err != nil {
		return nil, fmt.Errorf("gatehouse resolve token: %w", err)
	}
	t, err := r.engine.store.GetTokenBySecretHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: resolve token: %v", ErrStoreUnavailable, err)
	}
	if t.Revoked() {
		return nil, ErrTokenRevoked
	}
	if t.Expired(time.Now()) {
		return nil, ErrTokenExpired
	}

	// Last-used is informational; a failed touch never blocks the request.
	if err := r.engine.store.TouchToken(ctx, t.ID, time.Now()); err != nil {
		r.logger.Debug("token touch failed",
			slog.String("token_id", t.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return &Principal{
		Kind:     KindAPIToken,
		ID:       t.ID.String(),
		TenantID: t.TenantID,
		Scopes:   t.Scopes,
	}, nil
}

func (r *Resolver) resolveSession(ctx context.Context, credential string) (*Principal, error) {
	if r.idp == nil {
		return nil, ErrUnauthenticated
	}
	userID, err := r.idp.ValidateSession(ctx, credential)
	if err != nil {
		return nil, err
	}

	tenants, err := r.engine.store.ListTenantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve session: %v", ErrStoreUnavailable, err)
	}
	memberships := make([]Membership, 0, len(tenants))
	for _, tenantID := range tenants {
		roleIDs, err := r.engine.store.ListRolesForUser(ctx, tenantID, userID)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve session: %v", ErrStoreUnavailable, err)
		}
		memberships = append(memberships, Membership{TenantID: tenantID, RoleIDs: roleIDs})
	}

	return &Principal{
		Kind:        KindUser,
		ID:          userID,
		Memberships: memberships,
	}, nil
}

// bearerSecret extracts the secret from a Bearer Authorization header.
// A present but malformed header counts as a bearer attempt with an empty
// secret, so it fails token auth instead of falling through to the cookie.
func bearerSecret(req *http.Request) (string, bool) {
	h := req.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, rest, _ := strings.Cut(h, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// HTTPIdentityProvider validates sessions against a remote identity service
// over HTTP. It posts the credential to <endpoint>/v1/sessions/validate and
// expects {"user_id": "..."} back.
type HTTPIdentityProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPIdentityProvider creates a client for the identity service at the
// given base endpoint.
func NewHTTPIdentityProvider(endpoint string) *HTTPIdentityProvider {
	return &HTTPIdentityProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ValidateSession implements IdentityProvider.
func (p *HTTPIdentityProvider) ValidateSession(ctx context.Context, credential string) (string, error) {
	body, err := json.Marshal(map[string]string{"credential": credential})
	if err != nil {
		return "", fmt.Errorf("gatehouse identity provider: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint+"/v1/sessions/validate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gatehouse identity provider: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var out struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("%w: %v", ErrIdentityProviderUnavailable, err)
		}
		if out.UserID == "" {
			return "", ErrUnauthenticated
		}
		return out.UserID, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthenticated
	default:
		return "", fmt.Errorf("%w: unexpected status %d", ErrIdentityProviderUnavailable, resp.StatusCode)
	}
}
