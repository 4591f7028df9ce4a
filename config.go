package gatehouse

import (
	"time"

	"github.com/xraph/gatehouse/token"
)

// Config holds configuration for the Gatehouse engine and authorizer.
// Secret material (the identity-provider credential, deployment secrets)
// is supplied out-of-band by the host and treated as opaque.
type Config struct {
	// IdentityProviderEndpoint is the base URL of the external identity
	// provider used to validate session credentials.
	IdentityProviderEndpoint string `json:"identity_provider_endpoint,omitempty"`

	// TokenHashAlgorithm selects the server-side hash for token secrets.
	// Defaults to sha256.
	TokenHashAlgorithm token.Algorithm `json:"token_hash_algorithm,omitempty"`

	// PolicyBootstrapOnStartup enables the bootstrapper's warm-up pass that
	// re-seeds tenants with zero recorded policies.
	PolicyBootstrapOnStartup bool `json:"policy_bootstrap_on_startup,omitempty"`

	// MaxInheritanceDepth bounds the role inheritance walk. Defaults to 10.
	MaxInheritanceDepth int `json:"max_inheritance_depth,omitempty"`

	// CacheTTL is the time-to-live for cached role-path decisions.
	// Zero means no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TokenHashAlgorithm:  token.AlgSHA256,
		MaxInheritanceDepth: 10,
	}
}
