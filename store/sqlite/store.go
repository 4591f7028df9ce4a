// Package sqlite provides a SQLite implementation of the Gatehouse
// composite store using grove ORM with Go-based migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/store"
	"github.com/xraph/gatehouse/token"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Gatehouse store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("gatehouse/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create role: %w", err)
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(tenant_id, slug) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("gatehouse/sqlite: role slug %q already exists in tenant %q", r.Slug, r.TenantID)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, gatehouse.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get role: %w", err)
	}
	return roleFromModel(m)
}

func (s *Store) GetRoleBySlug(ctx context.Context, tenantID, slug string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).
		Where("tenant_id = ?", tenantID).
		Where("slug = ?", slug).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, gatehouse.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get role by slug: %w", err)
	}
	return roleFromModel(m)
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m, err := roleToModel(r)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: update role: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse/sqlite: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list roles: %w", err)
	}
	result := make([]*role.Role, 0, len(models))
	for i := range models {
		r, err := roleFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*roleModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.IsSystem != nil {
			q = q.Where("is_system = ?", *filter.IsSystem)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRolesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*roleModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete roles by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	model := membershipToModel(m)
	res, err := s.sdb.NewInsert(model).
		OnConflict("(tenant_id, role_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create membership: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gatehouse.ErrDuplicateMembership
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, membID id.MembershipID) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).Where("id = ?", membID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s: %w", membID, gatehouse.ErrMembershipNotFound)
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get membership: %w", err)
	}
	return membershipFromModel(m), nil
}

func (s *Store) DeleteMembership(ctx context.Context, membID id.MembershipID) error {
	res, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("id = ?", membID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete membership: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("membership %s: %w", membID, gatehouse.ErrMembershipNotFound)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*membershipModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	var models []membershipModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list roles for user: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		rid, err := id.ParseRoleID(m.RoleID)
		if err == nil {
			result = append(result, rid)
		}
	}
	return result, nil
}

func (s *Store) ListTenantsForUser(ctx context.Context, userID string) ([]string, error) {
	var models []membershipModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list tenants for user: %w", err)
	}
	seen := make(map[string]struct{}, len(models))
	result := make([]string, 0, len(models))
	for _, m := range models {
		if _, ok := seen[m.TenantID]; ok {
			continue
		}
		seen[m.TenantID] = struct{}{}
		result = append(result, m.TenantID)
	}
	return result, nil
}

func (s *Store) DeleteMembershipsByUser(ctx context.Context, tenantID, userID string) error {
	_, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete memberships by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembershipsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete memberships by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembershipsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete memberships by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Rule operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	m := ruleToModel(r)
	res, err := s.sdb.NewInsert(m).
		OnConflict("(tenant_id, subject, resource, action) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gatehouse.ErrDuplicateRule
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID id.RuleID) (*rule.Rule, error) {
	m := new(ruleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", ruleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("rule %s: %w", ruleID, gatehouse.ErrRuleNotFound)
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get rule: %w", err)
	}
	return ruleFromModel(m), nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.RuleID) error {
	res, err := s.sdb.NewDelete((*ruleModel)(nil)).
		Where("id = ?", ruleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rule %s: %w", ruleID, gatehouse.ErrRuleNotFound)
	}
	return nil
}

func (s *Store) DeleteRuleTuple(ctx context.Context, t rule.Tuple) error {
	_, err := s.sdb.NewDelete((*ruleModel)(nil)).
		Where("tenant_id = ?", t.TenantID).
		Where("subject = ?", t.Subject).
		Where("resource = ?", t.Resource).
		Where("action = ?", t.Action).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete rule tuple: %w", err)
	}
	return nil
}

func (s *Store) HasRule(ctx context.Context, t rule.Tuple) (bool, error) {
	count, err := s.sdb.NewSelect((*ruleModel)(nil)).
		Where("tenant_id = ?", t.TenantID).
		Where("subject = ?", t.Subject).
		Where("resource = ?", t.Resource).
		Where("action = ?", t.Action).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("gatehouse/sqlite: has rule: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListRules(ctx context.Context, filter *rule.ListFilter) ([]*rule.Rule, error) {
	var models []ruleModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Subject != "" {
			q = q.Where("subject = ?", filter.Subject)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list rules: %w", err)
	}
	result := make([]*rule.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRules(ctx context.Context, filter *rule.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*ruleModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.Subject != "" {
			q = q.Where("subject = ?", filter.Subject)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: count rules: %w", err)
	}
	return count, nil
}

func (s *Store) ListRulesForSubjects(ctx context.Context, tenantID string, subjects []string) ([]*rule.Rule, error) {
	if len(subjects) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(subjects)), ", ")
	args := make([]any, len(subjects))
	for i, sub := range subjects {
		args[i] = sub
	}

	var models []ruleModel
	err := s.sdb.NewSelect(&models).
		Where("(tenant_id = ? OR tenant_id = ?)", tenantID, rule.GlobalTenant).
		Where("subject IN ("+placeholders+")", args...).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list rules for subjects: %w", err)
	}
	result := make([]*rule.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRulesByTenant(ctx context.Context, tenantID string) (int64, error) {
	count, err := s.sdb.NewSelect((*ruleModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: count rules by tenant: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRulesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*ruleModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete rules by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance edge operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEdge(ctx context.Context, e *inherit.Edge) error {
	m := edgeToModel(e)
	res, err := s.sdb.NewInsert(m).
		OnConflict("(tenant_id, role_id, parent_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create edge: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gatehouse.ErrDuplicateEdge
	}
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, edgeID id.EdgeID) error {
	res, err := s.sdb.NewDelete((*edgeModel)(nil)).
		Where("id = ?", edgeID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete edge: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("edge %s: %w", edgeID, gatehouse.ErrEdgeNotFound)
	}
	return nil
}

func (s *Store) DeleteEdgeTuple(ctx context.Context, tenantID string, roleID, parentID id.RoleID) error {
	_, err := s.sdb.NewDelete((*edgeModel)(nil)).
		Where("tenant_id = ?", tenantID).
		Where("role_id = ?", roleID.String()).
		Where("parent_id = ?", parentID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete edge tuple: %w", err)
	}
	return nil
}

func (s *Store) ListParents(ctx context.Context, tenantID string, roleID id.RoleID) ([]id.RoleID, error) {
	var models []edgeModel
	err := s.sdb.NewSelect(&models).
		Where("tenant_id = ?", tenantID).
		Where("role_id = ?", roleID.String()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list parents: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		pid, err := id.ParseRoleID(m.ParentID)
		if err == nil {
			result = append(result, pid)
		}
	}
	return result, nil
}

func (s *Store) ListEdges(ctx context.Context, filter *inherit.ListFilter) ([]*inherit.Edge, error) {
	var models []edgeModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.ParentID != nil {
			q = q.Where("parent_id = ?", filter.ParentID.String())
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list edges: %w", err)
	}
	result := make([]*inherit.Edge, len(models))
	for i := range models {
		result[i] = edgeFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteEdgesByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*edgeModel)(nil)).
		Where("role_id = ? OR parent_id = ?", roleID.String(), roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete edges by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteEdgesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*edgeModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete edges by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Token operations
// ──────────────────────────────────────────────────

func (s *Store) CreateToken(ctx context.Context, t *token.Token) error {
	m, err := tokenToModel(t)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: create token: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse/sqlite: create token: %w", err)
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	m := new(tokenModel)
	err := s.sdb.NewSelect(m).Where("id = ?", tokenID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get token: %w", err)
	}
	return tokenFromModel(m)
}

func (s *Store) GetTokenBySecretHash(ctx context.Context, hash string) (*token.Token, error) {
	m := new(tokenModel)
	err := s.sdb.NewSelect(m).Where("secret_hash = ?", hash).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, gatehouse.ErrTokenNotFound
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get token by secret: %w", err)
	}
	return tokenFromModel(m)
}

func (s *Store) RevokeToken(ctx context.Context, tokenID id.TokenID, at time.Time) error {
	t, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}
	if t.RevokedAt != nil {
		return nil
	}
	t.RevokedAt = &at
	m, err := tokenToModel(t)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: revoke token: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse/sqlite: revoke token: %w", err)
	}
	return nil
}

func (s *Store) TouchToken(ctx context.Context, tokenID id.TokenID, at time.Time) error {
	t, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}
	t.LastUsedAt = &at
	m, err := tokenToModel(t)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: touch token: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse/sqlite: touch token: %w", err)
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID id.TokenID) error {
	res, err := s.sdb.NewDelete((*tokenModel)(nil)).
		Where("id = ?", tokenID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
	}
	return nil
}

func (s *Store) ListTokens(ctx context.Context, filter *token.ListFilter) ([]*token.Token, error) {
	var models []tokenModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if !filter.IncludeRevoked {
			q = q.Where("revoked_at IS NULL")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	} else {
		q = q.Where("revoked_at IS NULL")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list tokens: %w", err)
	}
	result := make([]*token.Token, 0, len(models))
	for i := range models {
		t, err := tokenFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, nil
}

func (s *Store) CountTokens(ctx context.Context, filter *token.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*tokenModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if !filter.IncludeRevoked {
			q = q.Where("revoked_at IS NULL")
		}
	} else {
		q = q.Where("revoked_at IS NULL")
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: count tokens: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteTokensByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*tokenModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete tokens by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit event operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEvent(ctx context.Context, e *audit.Event) error {
	m := eventToModel(e)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse/sqlite: create audit event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID id.AuditEventID) (*audit.Event, error) {
	m := new(eventModel)
	err := s.sdb.NewSelect(m).Where("id = ?", eventID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("audit event %s: %w", eventID, gatehouse.ErrEventNotFound)
		}
		return nil, fmt.Errorf("gatehouse/sqlite: get audit event: %w", err)
	}
	return eventFromModel(m), nil
}

func (s *Store) ListEvents(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Event, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse/sqlite: list audit events: %w", err)
	}
	result := make([]*audit.Event, len(models))
	for i := range models {
		result[i] = eventFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountEvents(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*eventModel)(nil))
	if filter != nil {
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.Resource != "" {
			q = q.Where("resource = ?", filter.Resource)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: count audit events: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*eventModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: purge audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("gatehouse/sqlite: purge audit events rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteEventsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.sdb.NewDelete((*eventModel)(nil)).
		Where("tenant_id = ?", tenantID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse/sqlite: delete audit events by tenant: %w", err)
	}
	return nil
}
