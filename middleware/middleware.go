// Package middleware provides HTTP authorization middleware for Gatehouse.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/resource"
)

// Require enforces that the acting principal may perform the action on the
// resource type. The credential is resolved from the request (bearer token
// first, then session cookie), the tenant from the route's tenantId
// parameter, falling back to the request context scope. Denied requests get
// 403; requests without a valid credential get 401.
func Require(authz *gatehouse.Authorizer, res resource.Type, act resource.Action) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			result, err := authz.Authorize(ctx.Context(), ctx.Request(), res, act, ctx.Param("tenantId"))
			if err != nil {
				return unavailableResponse(ctx)
			}
			switch result.Status {
			case gatehouse.StatusAllowed:
				return next(ctx)
			case gatehouse.StatusUnauthenticated:
				return unauthenticatedResponse(ctx)
			default:
				return denyResponse(ctx)
			}
		}
	}
}

// RequireAny allows the request if any of the resource/action pairs is
// granted. Pairs are checked in order; the first allow wins.
func RequireAny(authz *gatehouse.Authorizer, pairs ...[2]string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			tenantID := ctx.Param("tenantId")
			unauthenticated := false
			for _, pair := range pairs {
				result, err := authz.Authorize(ctx.Context(), ctx.Request(),
					resource.Type(pair[0]), resource.Action(pair[1]), tenantID)
				if err != nil {
					return unavailableResponse(ctx)
				}
				if result.Allowed() {
					return next(ctx)
				}
				if result.Status == gatehouse.StatusUnauthenticated {
					unauthenticated = true
				}
			}
			if unauthenticated {
				return unauthenticatedResponse(ctx)
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if every resource/action pair is
// granted.
func RequireAll(authz *gatehouse.Authorizer, pairs ...[2]string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			tenantID := ctx.Param("tenantId")
			for _, pair := range pairs {
				result, err := authz.Authorize(ctx.Context(), ctx.Request(),
					resource.Type(pair[0]), resource.Action(pair[1]), tenantID)
				if err != nil {
					return unavailableResponse(ctx)
				}
				if result.Status == gatehouse.StatusUnauthenticated {
					return unauthenticatedResponse(ctx)
				}
				if !result.Allowed() {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

func unauthenticatedResponse(ctx forge.Context) error {
	return writeError(ctx, http.StatusUnauthorized, "authentication required")
}

func denyResponse(ctx forge.Context) error {
	return writeError(ctx, http.StatusForbidden, "access denied")
}

func unavailableResponse(ctx forge.Context) error {
	return writeError(ctx, http.StatusServiceUnavailable, "authorization unavailable")
}

func writeError(ctx forge.Context, status int, msg string) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
