package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/token"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:gatehouse_roles"`
	ID              string         `grove:"id,pk"`
	TenantID        string         `grove:"tenant_id,notnull"`
	Name            string         `grove:"name,notnull"`
	Slug            string         `grove:"slug,notnull"`
	Description     string         `grove:"description"`
	IsSystem        bool           `grove:"is_system,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		TenantID:    r.TenantID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Membership model
// ──────────────────────────────────────────────────

type membershipModel struct {
	grove.BaseModel `grove:"table:gatehouse_memberships"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	RoleID          string    `grove:"role_id,notnull"`
	UserID          string    `grove:"user_id,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func membershipToModel(m *membership.Membership) *membershipModel {
	return &membershipModel{
		ID:        m.ID.String(),
		TenantID:  m.TenantID,
		RoleID:    m.RoleID.String(),
		UserID:    m.UserID,
		GrantedBy: m.GrantedBy,
		CreatedAt: m.CreatedAt,
	}
}

func membershipFromModel(m *membershipModel) *membership.Membership {
	mid, _ := id.ParseMembershipID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	return &membership.Membership{
		ID:        mid,
		TenantID:  m.TenantID,
		RoleID:    rid,
		UserID:    m.UserID,
		GrantedBy: m.GrantedBy,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Rule model
// ──────────────────────────────────────────────────

type ruleModel struct {
	grove.BaseModel `grove:"table:gatehouse_rules"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	Subject         string    `grove:"subject,notnull"`
	Resource        string    `grove:"resource,notnull"`
	Action          string    `grove:"action,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func ruleToModel(r *rule.Rule) *ruleModel {
	return &ruleModel{
		ID:        r.ID.String(),
		TenantID:  r.TenantID,
		Subject:   r.Subject,
		Resource:  r.Resource,
		Action:    r.Action,
		CreatedAt: r.CreatedAt,
	}
}

func ruleFromModel(m *ruleModel) *rule.Rule {
	rid, _ := id.ParseRuleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &rule.Rule{
		ID:        rid,
		TenantID:  m.TenantID,
		Subject:   m.Subject,
		Resource:  m.Resource,
		Action:    m.Action,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Inheritance edge model
// ──────────────────────────────────────────────────

type edgeModel struct {
	grove.BaseModel `grove:"table:gatehouse_role_edges"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	RoleID          string    `grove:"role_id,notnull"`
	ParentID        string    `grove:"parent_id,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func edgeToModel(e *inherit.Edge) *edgeModel {
	return &edgeModel{
		ID:        e.ID.String(),
		TenantID:  e.TenantID,
		RoleID:    e.RoleID.String(),
		ParentID:  e.ParentID.String(),
		CreatedAt: e.CreatedAt,
	}
}

func edgeFromModel(m *edgeModel) *inherit.Edge {
	eid, _ := id.ParseEdgeID(m.ID)       //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	pid, _ := id.ParseRoleID(m.ParentID) //nolint:errcheck // stored IDs are always valid
	return &inherit.Edge{
		ID:        eid,
		TenantID:  m.TenantID,
		RoleID:    rid,
		ParentID:  pid,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Token model
// ──────────────────────────────────────────────────

type tokenModel struct {
	grove.BaseModel `grove:"table:gatehouse_tokens"`
	ID              string     `grove:"id,pk"`
	TenantID        string     `grove:"tenant_id,notnull"`
	Name            string     `grove:"name"`
	SecretHash      string     `grove:"secret_hash,notnull"`
	Scopes          []string   `grove:"scopes,type:jsonb"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	RevokedAt       *time.Time `grove:"revoked_at"`
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	LastUsedAt      *time.Time `grove:"last_used_at"`
}

func tokenToModel(t *token.Token) *tokenModel {
	return &tokenModel{
		ID:         t.ID.String(),
		TenantID:   t.TenantID,
		Name:       t.Name,
		SecretHash: t.SecretHash,
		Scopes:     t.Scopes,
		ExpiresAt:  t.ExpiresAt,
		RevokedAt:  t.RevokedAt,
		CreatedAt:  t.CreatedAt,
		LastUsedAt: t.LastUsedAt,
	}
}

func tokenFromModel(m *tokenModel) *token.Token {
	tid, _ := id.ParseTokenID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &token.Token{
		ID:         tid,
		TenantID:   m.TenantID,
		Name:       m.Name,
		SecretHash: m.SecretHash,
		Scopes:     m.Scopes,
		ExpiresAt:  m.ExpiresAt,
		RevokedAt:  m.RevokedAt,
		CreatedAt:  m.CreatedAt,
		LastUsedAt: m.LastUsedAt,
	}
}

// ──────────────────────────────────────────────────
// Audit event model
// ──────────────────────────────────────────────────

type eventModel struct {
	grove.BaseModel `grove:"table:gatehouse_audit_events"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	PrincipalKind   string    `grove:"principal_kind"`
	PrincipalID     string    `grove:"principal_id"`
	Resource        string    `grove:"resource,notnull"`
	Action          string    `grove:"action,notnull"`
	Path            string    `grove:"path,notnull"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func eventToModel(e *audit.Event) *eventModel {
	return &eventModel{
		ID:            e.ID.String(),
		TenantID:      e.TenantID,
		PrincipalKind: e.PrincipalKind,
		PrincipalID:   e.PrincipalID,
		Resource:      e.Resource,
		Action:        e.Action,
		Path:          string(e.Path),
		Decision:      e.Decision,
		Reason:        e.Reason,
		EvalTimeNs:    e.EvalTimeNs,
		CreatedAt:     e.CreatedAt,
	}
}

func eventFromModel(m *eventModel) *audit.Event {
	eid, _ := id.ParseAuditEventID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &audit.Event{
		ID:            eid,
		TenantID:      m.TenantID,
		PrincipalKind: m.PrincipalKind,
		PrincipalID:   m.PrincipalID,
		Resource:      m.Resource,
		Action:        m.Action,
		Path:          audit.Path(m.Path),
		Decision:      m.Decision,
		Reason:        m.Reason,
		EvalTimeNs:    m.EvalTimeNs,
		CreatedAt:     m.CreatedAt,
	}
}
