// Package token defines the bearer access Token entity and its registry.
//
// Tokens are opaque secrets resolved by server-side lookup only: no claims
// are embedded in the secret, so revocation takes effect the moment the
// registry row is updated. A token is bound to exactly one tenant and
// carries explicit "resource:action" scope strings instead of roles.
package token

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Token is an issued bearer credential. Immutable after issuance except for
// revocation (RevokedAt set once) and the best-effort LastUsedAt touch.
type Token struct {
	ID         id.TokenID `json:"id" db:"id"`
	TenantID   string     `json:"tenant_id" db:"tenant_id"`
	Name       string     `json:"name,omitempty" db:"name"`
	SecretHash string     `json:"-" db:"secret_hash"`
	Scopes     []string   `json:"scopes" db:"-"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// Expired reports whether the token is past its expiry at the given time.
// A token without ExpiresAt never expires.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// Revoked reports whether the token has been revoked.
func (t *Token) Revoked() bool {
	return t.RevokedAt != nil
}

// HasScope reports whether the token's scope list covers the given
// "resource:action" pair. Matching is case-sensitive: the exact scope
// string or the full wildcard "*", nothing else.
func (t *Token) HasScope(resource, action string) bool {
	want := resource + ":" + action
	for _, s := range t.Scopes {
		if s == "*" || s == want {
			return true
		}
	}
	return false
}

// ListFilter contains filters for listing tokens.
type ListFilter struct {
	TenantID       string `json:"tenant_id,omitempty"`
	IncludeRevoked bool   `json:"include_revoked,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}
