// Package api provides HTTP handlers for the Gatehouse authorization core.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// API wires all Gatehouse HTTP handlers together.
type API struct {
	eng    *gatehouse.Engine
	authz  *gatehouse.Authorizer
	boot   *gatehouse.Bootstrapper
	router forge.Router
}

// New creates an API from an engine, its authorizer, and a Forge router.
// The bootstrapper backs the admin re-seed endpoint.
func New(eng *gatehouse.Engine, authz *gatehouse.Authorizer, boot *gatehouse.Bootstrapper, router forge.Router) *API {
	return &API{eng: eng, authz: authz, boot: boot, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("gatehouse: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerAuthorizeRoutes,
		a.registerRoleRoutes,
		a.registerRuleRoutes,
		a.registerMembershipRoutes,
		a.registerInheritanceRoutes,
		a.registerTokenRoutes,
		a.registerAuditRoutes,
		a.registerBootstrapRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
