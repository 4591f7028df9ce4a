package api

// AuthorizeResponse is the response for an authorization check.
type AuthorizeResponse struct {
	Allowed  bool   `json:"allowed" description:"Whether the request is allowed"`
	Status   string `json:"status" description:"Outcome status (allow, deny, unauthenticated)"`
	Decision string `json:"decision" description:"Decision code"`
	Reason   string `json:"reason,omitempty" description:"Human-readable reason"`
	Path     string `json:"path,omitempty" description:"Credential path (token, session)"`
}

// IssueTokenResponse carries the issued token and its secret. The secret
// is returned exactly once and is not recoverable afterwards.
type IssueTokenResponse struct {
	TokenID   string   `json:"token_id" description:"Token identifier"`
	Secret    string   `json:"secret" description:"Bearer secret, shown only at issuance"`
	TenantID  string   `json:"tenant_id" description:"Tenant the token is bound to"`
	Scopes    []string `json:"scopes" description:"Granted scopes"`
	ExpiresAt string   `json:"expires_at,omitempty" description:"Expiry timestamp (RFC 3339)"`
}

// BootstrapResponse reports the outcome of a tenant bootstrap run.
type BootstrapResponse struct {
	TenantID string `json:"tenant_id" description:"Seeded tenant"`
	Level    string `json:"level" description:"Tenant level"`
	Seeded   int    `json:"seeded" description:"Number of rules created by this run"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T `json:"items" description:"List of items"`
	Limit  int `json:"limit" description:"Page size"`
	Offset int `json:"offset" description:"Page offset"`
}
