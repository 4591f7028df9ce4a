// Package extension provides a Forge extension entry point for Gatehouse.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/api"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "gatehouse"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant authorization core (policies, roles, tokens, audit)"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Gatehouse as a Forge extension.
type Extension struct {
	config       Config
	eng          *gatehouse.Engine
	authz        *gatehouse.Authorizer
	boot         *gatehouse.Bootstrapper
	apiHandler   *api.API
	logger       *slog.Logger
	engineOpts   []gatehouse.Option
	plugins      []plugin.Plugin
	idp          gatehouse.IdentityProvider
	tenantLister gatehouse.TenantLister
}

// New creates a Gatehouse Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying Gatehouse engine.
func (e *Extension) Engine() *gatehouse.Engine { return e.eng }

// Authorizer returns the HTTP authorization facade.
func (e *Extension) Authorizer() *gatehouse.Authorizer { return e.authz }

// Bootstrapper returns the tenant policy bootstrapper.
func (e *Extension) Bootstrapper() *gatehouse.Bootstrapper { return e.boot }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// authorizer and bootstrapper, registers them in the DI container, and
// optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*gatehouse.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("gatehouse: register engine in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*gatehouse.Authorizer, error) {
		return e.authz, nil
	}); err != nil {
		return fmt.Errorf("gatehouse: register authorizer in container: %w", err)
	}
	if err := vessel.Provide(fapp.Container(), func() (*gatehouse.Bootstrapper, error) {
		return e.boot, nil
	}); err != nil {
		return fmt.Errorf("gatehouse: register bootstrapper in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Build engine options.
	opts := make([]gatehouse.Option, 0, len(e.engineOpts)+len(e.plugins)+2)
	opts = append(opts, gatehouse.WithLogger(logger))

	engCfg := gatehouse.DefaultConfig()
	if e.config.IdentityProviderEndpoint != "" {
		engCfg.IdentityProviderEndpoint = e.config.IdentityProviderEndpoint
	}
	if e.config.MaxInheritanceDepth > 0 {
		engCfg.MaxInheritanceDepth = e.config.MaxInheritanceDepth
	}
	if e.config.CacheTTL > 0 {
		engCfg.CacheTTL = e.config.CacheTTL
	}
	engCfg.PolicyBootstrapOnStartup = e.config.BootstrapOnStartup
	opts = append(opts, gatehouse.WithConfig(engCfg))

	// Try to resolve store from DI container, fall back to option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, gatehouse.WithStore(s))
	}

	// Append user-provided options (may override store and config).
	opts = append(opts, e.engineOpts...)

	// Register lifecycle hook plugins.
	for _, x := range e.plugins {
		opts = append(opts, gatehouse.WithPlugin(x))
	}

	eng, err := gatehouse.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("gatehouse: create engine: %w", err)
	}
	e.eng = eng

	// Build the credential resolver and authorization facade.
	idp := e.idp
	if idp == nil && e.config.IdentityProviderEndpoint != "" {
		idp = gatehouse.NewHTTPIdentityProvider(e.config.IdentityProviderEndpoint)
	}
	var resolverOpts []gatehouse.ResolverOption
	if e.config.SessionCookie != "" {
		resolverOpts = append(resolverOpts, gatehouse.WithSessionCookie(e.config.SessionCookie))
	}
	resolver := gatehouse.NewResolver(eng, idp, resolverOpts...)
	e.authz = gatehouse.NewAuthorizer(eng, gatehouse.WithResolver(resolver))

	e.boot = gatehouse.NewBootstrapper(eng)

	// Create API handler.
	e.apiHandler = api.New(eng, e.authz, e.boot, fapp.Router())

	// Register HTTP routes unless disabled.
	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("gatehouse: register routes: %w", err)
		}
	}

	return nil
}

// Start begins the engine, runs migrations if enabled, and optionally
// re-seeds empty tenants.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gatehouse: extension not initialized")
	}

	// Run migrations unless disabled.
	if !e.config.DisableMigrate {
		s := e.eng.Store()
		if s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("gatehouse: migration failed: %w", err)
			}
		}
	}

	if err := e.eng.Start(ctx); err != nil {
		return err
	}

	if e.config.BootstrapOnStartup && e.tenantLister != nil {
		if err := e.boot.WarmUp(ctx, e.tenantLister); err != nil {
			return fmt.Errorf("gatehouse: bootstrap warm-up: %w", err)
		}
	}

	return nil
}

// Stop gracefully shuts down the engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gatehouse: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("gatehouse: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all gatehouse API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
