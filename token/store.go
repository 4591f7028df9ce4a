package token

import (
	"context"
	"time"

	"github.com/xraph/gatehouse/id"
)

// Registry defines persistence operations for issued tokens.
//
// RevokeToken must be linearizable with GetTokenBySecretHash per tenant: a
// lookup that starts after a revocation commits must observe RevokedAt.
type Registry interface {
	// CreateToken persists a newly issued token.
	CreateToken(ctx context.Context, t *Token) error

	// GetToken retrieves a token by ID.
	GetToken(ctx context.Context, tokenID id.TokenID) (*Token, error)

	// GetTokenBySecretHash retrieves a token by its secret hash.
	GetTokenBySecretHash(ctx context.Context, hash string) (*Token, error)

	// RevokeToken marks a token revoked at the given time. Revoking an
	// already-revoked token is a no-op.
	RevokeToken(ctx context.Context, tokenID id.TokenID, at time.Time) error

	// TouchToken records the time a token was last used. Best-effort.
	TouchToken(ctx context.Context, tokenID id.TokenID, at time.Time) error

	// DeleteToken removes a token by ID.
	DeleteToken(ctx context.Context, tokenID id.TokenID) error

	// ListTokens returns tokens matching the filter.
	ListTokens(ctx context.Context, filter *ListFilter) ([]*Token, error)

	// CountTokens returns the number of tokens matching the filter.
	CountTokens(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteTokensByTenant removes all tokens for a tenant.
	DeleteTokensByTenant(ctx context.Context, tenantID string) error
}
