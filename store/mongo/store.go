// Package mongo provides a MongoDB implementation of the Gatehouse composite
// store using grove ORM. Migrations create the unique indexes that back the
// duplicate-detection semantics of the SQL backends.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

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

// Collection name constants.
const (
	colRoles       = "gatehouse_roles"
	colMemberships = "gatehouse_memberships"
	colRules       = "gatehouse_rules"
	colRoleEdges   = "gatehouse_role_edges"
	colTokens      = "gatehouse_tokens"
	colAuditEvents = "gatehouse_audit_events"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Gatehouse store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all gatehouse collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("gatehouse/mongo: migrate %s indexes: %w", col, err)
		}
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all gatehouse
// collections. The unique indexes mirror the SQL backends' constraints so
// duplicate writes surface the same sentinel errors everywhere.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "is_system", Value: 1}}},
		},
		colMemberships: {
			{
				Keys: bson.D{
					{Key: "tenant_id", Value: 1},
					{Key: "role_id", Value: 1},
					{Key: "user_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colRules: {
			{
				Keys: bson.D{
					{Key: "tenant_id", Value: 1},
					{Key: "subject", Value: 1},
					{Key: "resource", Value: 1},
					{Key: "action", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "subject", Value: 1}}},
		},
		colRoleEdges: {
			{
				Keys: bson.D{
					{Key: "tenant_id", Value: 1},
					{Key: "role_id", Value: 1},
					{Key: "parent_id", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "role_id", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
		colTokens: {
			{
				Keys:    bson.D{{Key: "secret_hash", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colAuditEvents: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "principal_id", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("gatehouse: role slug %q already exists in tenant %q", r.Slug, r.TenantID)
		}
		return fmt.Errorf("gatehouse: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, gatehouse.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, tenantID, slug string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"tenant_id": tenantID, "slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role slug %q: %w", slug, gatehouse.ErrRoleNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get role by slug: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, gatehouse.ErrRoleNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.IsSystem != nil {
			f["is_system"] = *filter.IsSystem
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRolesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete roles by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	model := membershipToModel(m)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return gatehouse.ErrDuplicateMembership
		}
		return fmt.Errorf("gatehouse: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, membID id.MembershipID) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": membID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership %s: %w", membID, gatehouse.ErrMembershipNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get membership: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) DeleteMembership(ctx context.Context, membID id.MembershipID) error {
	res, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Filter(bson.M{"_id": membID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete membership: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("membership %s: %w", membID, gatehouse.ErrMembershipNotFound)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
	}
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, tenantID, userID string) ([]id.RoleID, error) {
	var models []membershipModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list roles for user: %w", err)
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list tenants for user: %w", err)
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
	_, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID, "user_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete memberships by user: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembershipsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete memberships by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembershipsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete memberships by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Rule operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	m := ruleToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return gatehouse.ErrDuplicateRule
		}
		return fmt.Errorf("gatehouse: create rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID id.RuleID) (*rule.Rule, error) {
	var m ruleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ruleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("rule %s: %w", ruleID, gatehouse.ErrRuleNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get rule: %w", err)
	}
	return ruleFromModel(&m), nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.RuleID) error {
	res, err := s.mdb.NewDelete((*ruleModel)(nil)).
		Filter(bson.M{"_id": ruleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete rule: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("rule %s: %w", ruleID, gatehouse.ErrRuleNotFound)
	}
	return nil
}

func (s *Store) DeleteRuleTuple(ctx context.Context, t rule.Tuple) error {
	_, err := s.mdb.NewDelete((*ruleModel)(nil)).
		Many().
		Filter(bson.M{
			"tenant_id": t.TenantID,
			"subject":   t.Subject,
			"resource":  t.Resource,
			"action":    t.Action,
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete rule tuple: %w", err)
	}
	return nil
}

func (s *Store) HasRule(ctx context.Context, t rule.Tuple) (bool, error) {
	count, err := s.mdb.NewFind((*ruleModel)(nil)).
		Filter(bson.M{
			"tenant_id": t.TenantID,
			"subject":   t.Subject,
			"resource":  t.Resource,
			"action":    t.Action,
		}).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("gatehouse: has rule: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListRules(ctx context.Context, filter *rule.ListFilter) ([]*rule.Rule, error) {
	var models []ruleModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.Subject != "" {
			f["subject"] = filter.Subject
		}
		if filter.Resource != "" {
			f["resource"] = filter.Resource
		}
		if filter.Action != "" {
			f["action"] = filter.Action
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list rules: %w", err)
	}
	result := make([]*rule.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRules(ctx context.Context, filter *rule.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.Subject != "" {
			f["subject"] = filter.Subject
		}
		if filter.Resource != "" {
			f["resource"] = filter.Resource
		}
		if filter.Action != "" {
			f["action"] = filter.Action
		}
	}
	count, err := s.mdb.NewFind((*ruleModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count rules: %w", err)
	}
	return count, nil
}

func (s *Store) ListRulesForSubjects(ctx context.Context, tenantID string, subjects []string) ([]*rule.Rule, error) {
	if len(subjects) == 0 {
		return nil, nil
	}
	var models []ruleModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"tenant_id": bson.M{"$in": []string{tenantID, rule.GlobalTenant}},
			"subject":   bson.M{"$in": subjects},
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list rules for subjects: %w", err)
	}
	result := make([]*rule.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRulesByTenant(ctx context.Context, tenantID string) (int64, error) {
	count, err := s.mdb.NewFind((*ruleModel)(nil)).
		Filter(bson.M{"tenant_id": tenantID}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count rules by tenant: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRulesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*ruleModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete rules by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance edge operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEdge(ctx context.Context, e *inherit.Edge) error {
	m := edgeToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return gatehouse.ErrDuplicateEdge
		}
		return fmt.Errorf("gatehouse: create edge: %w", err)
	}
	return nil
}

func (s *Store) DeleteEdge(ctx context.Context, edgeID id.EdgeID) error {
	res, err := s.mdb.NewDelete((*edgeModel)(nil)).
		Filter(bson.M{"_id": edgeID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete edge: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("edge %s: %w", edgeID, gatehouse.ErrEdgeNotFound)
	}
	return nil
}

func (s *Store) DeleteEdgeTuple(ctx context.Context, tenantID string, roleID, parentID id.RoleID) error {
	_, err := s.mdb.NewDelete((*edgeModel)(nil)).
		Many().
		Filter(bson.M{
			"tenant_id": tenantID,
			"role_id":   roleID.String(),
			"parent_id": parentID.String(),
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete edge tuple: %w", err)
	}
	return nil
}

func (s *Store) ListParents(ctx context.Context, tenantID string, roleID id.RoleID) ([]id.RoleID, error) {
	var models []edgeModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"tenant_id": tenantID, "role_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gatehouse: list parents: %w", err)
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
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
		if filter.ParentID != nil {
			f["parent_id"] = filter.ParentID.String()
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list edges: %w", err)
	}
	result := make([]*inherit.Edge, len(models))
	for i := range models {
		result[i] = edgeFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteEdgesByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*edgeModel)(nil)).
		Many().
		Filter(bson.M{
			"$or": []bson.M{
				{"role_id": roleID.String()},
				{"parent_id": roleID.String()},
			},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete edges by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteEdgesByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*edgeModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete edges by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Token operations
// ──────────────────────────────────────────────────

func (s *Store) CreateToken(ctx context.Context, t *token.Token) error {
	m := tokenToModel(t)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: create token: %w", err)
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get token: %w", err)
	}
	return tokenFromModel(&m), nil
}

func (s *Store) GetTokenBySecretHash(ctx context.Context, hash string) (*token.Token, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"secret_hash": hash}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, gatehouse.ErrTokenNotFound
		}
		return nil, fmt.Errorf("gatehouse: get token by secret: %w", err)
	}
	return tokenFromModel(&m), nil
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
	m := tokenToModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: revoke token: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
	}
	return nil
}

func (s *Store) TouchToken(ctx context.Context, tokenID id.TokenID, at time.Time) error {
	t, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}
	t.LastUsedAt = &at
	m := tokenToModel(t)
	if _, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: touch token: %w", err)
	}
	return nil
}

func (s *Store) DeleteToken(ctx context.Context, tokenID id.TokenID) error {
	res, err := s.mdb.NewDelete((*tokenModel)(nil)).
		Filter(bson.M{"_id": tokenID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete token: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
	}
	return nil
}

func (s *Store) ListTokens(ctx context.Context, filter *token.ListFilter) ([]*token.Token, error) {
	var models []tokenModel
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if !filter.IncludeRevoked {
			f["revoked_at"] = nil
		}
	} else {
		f["revoked_at"] = nil
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list tokens: %w", err)
	}
	result := make([]*token.Token, len(models))
	for i := range models {
		result[i] = tokenFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountTokens(ctx context.Context, filter *token.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.TenantID != "" {
			f["tenant_id"] = filter.TenantID
		}
		if !filter.IncludeRevoked {
			f["revoked_at"] = nil
		}
	} else {
		f["revoked_at"] = nil
	}
	count, err := s.mdb.NewFind((*tokenModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count tokens: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteTokensByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*tokenModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete tokens by tenant: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit event operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEvent(ctx context.Context, e *audit.Event) error {
	m := eventToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("gatehouse: create audit event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID id.AuditEventID) (*audit.Event, error) {
	var m eventModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": eventID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("audit event %s: %w", eventID, gatehouse.ErrEventNotFound)
		}
		return nil, fmt.Errorf("gatehouse: get audit event: %w", err)
	}
	return eventFromModel(&m), nil
}

func eventQueryFilter(filter *audit.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TenantID != "" {
		f["tenant_id"] = filter.TenantID
	}
	if filter.PrincipalID != "" {
		f["principal_id"] = filter.PrincipalID
	}
	if filter.Resource != "" {
		f["resource"] = filter.Resource
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListEvents(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Event, error) {
	var models []eventModel
	q := s.mdb.NewFind(&models).
		Filter(eventQueryFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("gatehouse: list audit events: %w", err)
	}
	result := make([]*audit.Event, len(models))
	for i := range models {
		result[i] = eventFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountEvents(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*eventModel)(nil)).
		Filter(eventQueryFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: count audit events: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*eventModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("gatehouse: purge audit events: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteEventsByTenant(ctx context.Context, tenantID string) error {
	_, err := s.mdb.NewDelete((*eventModel)(nil)).
		Many().
		Filter(bson.M{"tenant_id": tenantID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gatehouse: delete audit events by tenant: %w", err)
	}
	return nil
}
