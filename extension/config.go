package extension

import "time"

// Config holds the Gatehouse extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.gatehouse" or "gatehouse" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// IdentityProviderEndpoint is the base URL of the external identity
	// provider used to validate session credentials.
	IdentityProviderEndpoint string `json:"identity_provider_endpoint" mapstructure:"identity_provider_endpoint" yaml:"identity_provider_endpoint"`

	// SessionCookie overrides the session cookie name.
	SessionCookie string `json:"session_cookie" mapstructure:"session_cookie" yaml:"session_cookie"`

	// BootstrapOnStartup enables the warm-up pass that re-seeds tenants
	// with zero recorded policies.
	BootstrapOnStartup bool `json:"bootstrap_on_startup" mapstructure:"bootstrap_on_startup" yaml:"bootstrap_on_startup"`

	// MaxInheritanceDepth bounds the role inheritance walk.
	MaxInheritanceDepth int `json:"max_inheritance_depth" mapstructure:"max_inheritance_depth" yaml:"max_inheritance_depth"`

	// CacheTTL is the time-to-live for cached role-path decisions.
	// Zero disables decision caching.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxInheritanceDepth: 10,
	}
}
