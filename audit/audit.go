// Package audit defines the authorization audit Event entity. Events are
// write-once and append-only: one per authorization decision.
package audit

import (
	"time"

	"github.com/xraph/gatehouse/id"
)

// Path records which credential path produced a decision.
type Path string

const (
	// PathToken means the decision was taken on the bearer-token scope path.
	PathToken Path = "token"

	// PathSession means the decision was taken on the session/role path.
	PathSession Path = "session"

	// PathNone means no credential was resolved.
	PathNone Path = "none"
)

// Event is a single authorization decision record.
type Event struct {
	ID            id.AuditEventID `json:"id" db:"id"`
	TenantID      string          `json:"tenant_id" db:"tenant_id"`
	PrincipalKind string          `json:"principal_kind" db:"principal_kind"`
	PrincipalID   string          `json:"principal_id" db:"principal_id"`
	Resource      string          `json:"resource" db:"resource"`
	Action        string          `json:"action" db:"action"`
	Path          Path            `json:"path" db:"path"`
	Decision      string          `json:"decision" db:"decision"`
	Reason        string          `json:"reason,omitempty" db:"reason"`
	EvalTimeNs    int64           `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying audit events.
type QueryFilter struct {
	TenantID    string     `json:"tenant_id,omitempty"`
	PrincipalID string     `json:"principal_id,omitempty"`
	Resource    string     `json:"resource,omitempty"`
	Action      string     `json:"action,omitempty"`
	Decision    string     `json:"decision,omitempty"`
	After       *time.Time `json:"after,omitempty"`
	Before      *time.Time `json:"before,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}
