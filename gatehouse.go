// Package gatehouse provides the multi-tenant authorization core for a SaaS
// backend: credential resolution, policy enforcement with hierarchical role
// inheritance, per-tenant policy bootstrap, and bearer-token scope checks.
//
// Every protected call goes through the Authorizer facade, which resolves
// the acting principal (browser session or bearer API token), evaluates the
// whitelist policy for the target tenant, and emits exactly one audit event:
//
//	eng, err := gatehouse.NewEngine(
//	    gatehouse.WithStore(memStore),
//	)
//	authz := gatehouse.NewAuthorizer(eng,
//	    gatehouse.WithIdentityProvider(idp),
//	)
//	res, err := authz.Authorize(ctx, req, resource.TypeCampaign, resource.ActionDelete, "org_1")
package gatehouse

import (
	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
)

// PrincipalKind identifies the type of actor making a request.
type PrincipalKind string

const (
	// KindUser represents a session-authenticated human user.
	KindUser PrincipalKind = "user"

	// KindAPIToken represents a bearer API token.
	KindAPIToken PrincipalKind = "api_token"
)

// Membership names the roles a user holds in one tenant.
type Membership struct {
	TenantID string      `json:"tenant_id"`
	RoleIDs  []id.RoleID `json:"role_ids"`
}

// Principal is the resolved identity behind a request. It is derived per
// request during credential resolution and never persisted.
//
// Exactly one of the two authorization paths applies: a user principal is
// checked through its role memberships, a token principal through its scope
// list and tenant binding.
type Principal struct {
	Kind PrincipalKind `json:"kind"`
	ID   string        `json:"id"`

	// TenantID is the token's tenant binding. Empty for users.
	TenantID string `json:"tenant_id,omitempty"`

	// Scopes is the token's "resource:action" grant list. Nil for users.
	Scopes []string `json:"scopes,omitempty"`

	// Memberships are the user's per-tenant role assignments. Nil for tokens.
	Memberships []Membership `json:"memberships,omitempty"`
}

// TenantLevel distinguishes the two levels of the tenant hierarchy.
type TenantLevel string

const (
	// LevelOrganization is the top tenant level.
	LevelOrganization TenantLevel = "organization"

	// LevelProject is a tenant owned by an organization.
	LevelProject TenantLevel = "project"
)

// Tenant identifies an organization or project for bootstrap purposes.
// Tenant records themselves live outside the core.
type Tenant struct {
	ID    string      `json:"id"`
	Level TenantLevel `json:"level"`
}

// Status is the terminal outcome of an authorization call.
type Status string

const (
	// StatusAllowed means the request is permitted.
	StatusAllowed Status = "allowed"

	// StatusDenied means a valid principal lacks the required grant.
	StatusDenied Status = "denied"

	// StatusUnauthenticated means no valid credential was resolved.
	StatusUnauthenticated Status = "unauthenticated"
)

// Decision is the fine-grained authorization outcome, recorded in audit
// events and check results.
type Decision string

const (
	// DecisionAllow means a matching rule or scope granted the request.
	DecisionAllow Decision = "allow"

	// DecisionDenyNoRoles means the user holds no roles in the tenant.
	DecisionDenyNoRoles Decision = "deny_no_roles"

	// DecisionDenyNoRule means no rule grants the required permission.
	DecisionDenyNoRule Decision = "deny_no_rule"

	// DecisionDenyScope means the token's scope list does not cover the pair.
	DecisionDenyScope Decision = "deny_scope"

	// DecisionDenyTenant means the token is bound to a different tenant.
	DecisionDenyTenant Decision = "deny_tenant"

	// DecisionUnauthenticated means no valid credential was found.
	DecisionUnauthenticated Decision = "unauthenticated"

	// DecisionTokenExpired means the bearer token is past its expiry.
	DecisionTokenExpired Decision = "token_expired"

	// DecisionTokenRevoked means the bearer token has been revoked.
	DecisionTokenRevoked Decision = "token_revoked"
)

// Result is the outcome of an Authorizer call.
type Result struct {
	Status     Status     `json:"status"`
	Decision   Decision   `json:"decision"`
	Reason     string     `json:"reason,omitempty"`
	Path       audit.Path `json:"path"`
	EvalTimeNs int64      `json:"eval_time_ns"`
}

// Allowed reports whether the request was permitted.
func (r *Result) Allowed() bool { return r.Status == StatusAllowed }

// CheckResult is the outcome of an Enforce evaluation on the role path.
type CheckResult struct {
	Allowed  bool      `json:"allowed"`
	Decision Decision  `json:"decision"`
	Reason   string    `json:"reason,omitempty"`
	RuleID   id.RuleID `json:"rule_id,omitempty"`
}
