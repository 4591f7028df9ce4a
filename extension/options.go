package extension

import (
	"log/slog"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/store"
)

// ExtOption configures the Gatehouse Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, gatehouse.WithStore(s))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...gatehouse.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithIdentityProvider sets the session identity provider. Takes precedence
// over the endpoint configured in Config.
func WithIdentityProvider(idp gatehouse.IdentityProvider) ExtOption {
	return func(e *Extension) {
		e.idp = idp
	}
}

// WithTenantLister sets the tenant enumerator used by the bootstrap
// warm-up pass on start.
func WithTenantLister(l gatehouse.TenantLister) ExtOption {
	return func(e *Extension) {
		e.tenantLister = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
