// Package rule defines the policy Rule entity: a whitelist grant of an
// action on a resource type to a subject within a tenant.
package rule

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// GlobalTenant is the wildcard tenant domain. Rules scoped to it apply in
// every tenant and are evaluated alongside any tenant-scoped query.
const GlobalTenant = "*"

// Rule grants a subject (a role ID or a user ID) permission to perform an
// action on a resource type within a tenant. There is no deny effect:
// absence of a matching rule is always a deny.
type Rule struct {
	ID        id.RuleID `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Subject   string    `json:"subject" db:"subject"`
	Resource  string    `json:"resource" db:"resource"`
	Action    string    `json:"action" db:"action"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Tuple is the identity of a rule: the store enforces uniqueness on it and
// the bootstrapper uses it for check-then-add idempotence.
type Tuple struct {
	TenantID string `json:"tenant_id"`
	Subject  string `json:"subject"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Tuple returns the rule's identity tuple.
func (r *Rule) Tuple() Tuple {
	return Tuple{
		TenantID: r.TenantID,
		Subject:  r.Subject,
		Resource: r.Resource,
		Action:   r.Action,
	}
}

// ListFilter contains filters for listing rules.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
