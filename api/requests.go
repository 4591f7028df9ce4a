package api

// ──────────────────────────────────────────────────
// Authorize requests
// ──────────────────────────────────────────────────

// AuthorizeRequest is the body for an authorization check on behalf of a
// described principal.
type AuthorizeRequest struct {
	PrincipalKind string   `json:"principal_kind" description:"Principal type (user, api_token)"`
	PrincipalID   string   `json:"principal_id" description:"Principal identifier"`
	TenantID      string   `json:"tenant_id" description:"Tenant under evaluation"`
	TokenTenantID string   `json:"token_tenant_id,omitempty" description:"Token's tenant binding (api_token only)"`
	Scopes        []string `json:"scopes,omitempty" description:"Token scope list (api_token only)"`
	Resource      string   `json:"resource" description:"Resource type"`
	Action        string   `json:"action" description:"Action verb"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	TenantID    string         `json:"tenant_id" description:"Owning tenant"`
	Name        string         `json:"name" description:"Role name"`
	Slug        string         `json:"slug,omitempty" description:"URL-safe slug (defaults to slugified name)"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        string         `json:"name,omitempty" description:"Role name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	Search   string `query:"search" description:"Search by name"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Rule requests
// ──────────────────────────────────────────────────

// CreateRuleRequest is the body for creating a whitelist rule.
type CreateRuleRequest struct {
	TenantID string `json:"tenant_id" description:"Owning tenant, or * for the global domain"`
	Subject  string `json:"subject" description:"Role ID or user ID the rule grants to"`
	Resource string `json:"resource" description:"Resource type, or *"`
	Action   string `json:"action" description:"Action verb, or *"`
}

// GetRuleRequest is the path parameter for getting a rule.
type GetRuleRequest struct {
	RuleID string `path:"ruleId" description:"Rule ID"`
}

// ListRulesRequest holds query parameters for listing rules.
type ListRulesRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	Subject  string `query:"subject" description:"Filter by subject"`
	Resource string `query:"resource" description:"Filter by resource type"`
	Action   string `query:"action" description:"Filter by action"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Membership requests
// ──────────────────────────────────────────────────

// GrantRoleRequest is the body for granting a role to a user.
type GrantRoleRequest struct {
	TenantID  string `json:"tenant_id" description:"Tenant the grant applies in"`
	RoleID    string `json:"role_id" description:"Role to grant"`
	UserID    string `json:"user_id" description:"User receiving the role"`
	GrantedBy string `json:"granted_by,omitempty" description:"Actor performing the grant"`
}

// GetMembershipRequest is the path parameter for a membership.
type GetMembershipRequest struct {
	MembershipID string `path:"membershipId" description:"Membership ID"`
}

// ListMembershipsRequest holds query parameters for listing memberships.
type ListMembershipsRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	UserID   string `query:"user_id" description:"Filter by user"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Inheritance requests
// ──────────────────────────────────────────────────

// CreateEdgeRequest is the body for adding a role inheritance edge.
type CreateEdgeRequest struct {
	TenantID string `json:"tenant_id" description:"Tenant the edge applies in"`
	ParentID string `json:"parent_id" description:"Parent role the child inherits from"`
}

// DeleteEdgeRequest holds the tenant scope for removing an inheritance edge.
type DeleteEdgeRequest struct {
	TenantID string `query:"tenant_id" description:"Tenant the edge applies in"`
}

// ListEdgesRequest holds query parameters for listing inheritance edges.
type ListEdgesRequest struct {
	TenantID string `query:"tenant_id" description:"Filter by tenant"`
	RoleID   string `query:"role_id" description:"Filter by child role"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Token requests
// ──────────────────────────────────────────────────

// IssueTokenRequest is the body for issuing an API token.
type IssueTokenRequest struct {
	TenantID  string   `json:"tenant_id" description:"Tenant the token is bound to"`
	Name      string   `json:"name,omitempty" description:"Human-readable token name"`
	Scopes    []string `json:"scopes" description:"Scope list: * or resource:action pairs"`
	ExpiresIn int64    `json:"expires_in,omitempty" description:"Lifetime in seconds (0 = never expires)"`
}

// GetTokenRequest is the path parameter for a token.
type GetTokenRequest struct {
	TokenID string `path:"tokenId" description:"Token ID"`
}

// ListTokensRequest holds query parameters for listing tokens.
type ListTokensRequest struct {
	TenantID       string `query:"tenant_id" description:"Filter by tenant"`
	IncludeRevoked bool   `query:"include_revoked" description:"Include revoked tokens"`
	Limit          int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset         int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Audit requests
// ──────────────────────────────────────────────────

// ListEventsRequest holds query parameters for listing audit events.
type ListEventsRequest struct {
	TenantID    string `query:"tenant_id" description:"Filter by tenant"`
	PrincipalID string `query:"principal_id" description:"Filter by principal"`
	Resource    string `query:"resource" description:"Filter by resource type"`
	Action      string `query:"action" description:"Filter by action"`
	Decision    string `query:"decision" description:"Filter by decision code"`
	Limit       int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset      int    `query:"offset" description:"Results to skip"`
}

// GetEventRequest is the path parameter for an audit event.
type GetEventRequest struct {
	EventID string `path:"eventId" description:"Audit event ID"`
}

// ──────────────────────────────────────────────────
// Bootstrap requests
// ──────────────────────────────────────────────────

// BootstrapRequest is the body for seeding a tenant's default policies.
type BootstrapRequest struct {
	Level string `json:"level" description:"Tenant level (organization, project)"`
}
