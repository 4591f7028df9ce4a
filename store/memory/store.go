// Package memory provides an in-memory implementation of the Gatehouse
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/id"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/token"
)

// Compile-time interface checks.
var (
	_ role.Store       = (*Store)(nil)
	_ membership.Store = (*Store)(nil)
	_ rule.Store       = (*Store)(nil)
	_ inherit.Store    = (*Store)(nil)
	_ token.Registry   = (*Store)(nil)
	_ audit.Store      = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Gatehouse entities.
type Store struct {
	mu sync.RWMutex

	roles       map[string]*role.Role
	memberships map[string]*membership.Membership
	rules       map[string]*rule.Rule
	edges       map[string]*inherit.Edge
	tokens      map[string]*token.Token
	events      map[string]*audit.Event
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]*role.Role),
		memberships: make(map[string]*membership.Membership),
		rules:       make(map[string]*rule.Rule),
		edges:       make(map[string]*inherit.Edge),
		tokens:      make(map[string]*token.Token),
		events:      make(map[string]*audit.Event),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.TenantID == r.TenantID && existing.Slug == r.Slug {
			return fmt.Errorf("role slug %q already exists in tenant %s", r.Slug, r.TenantID)
		}
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, gatehouse.ErrRoleNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleBySlug(_ context.Context, tenantID, slug string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.TenantID == tenantID && r.Slug == slug {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role slug %q: %w", slug, gatehouse.ErrRoleNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, gatehouse.ErrRoleNotFound)
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.TenantID != "" && r.TenantID != filter.TenantID {
				continue
			}
			if filter.IsSystem != nil && r.IsSystem != *filter.IsSystem {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	return applyPagination(result, paginationOpts(filter)), nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	list, err := s.ListRoles(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteRolesByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.roles {
		if r.TenantID == tenantID {
			delete(s.roles, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.TenantID == m.TenantID &&
			existing.RoleID.String() == m.RoleID.String() &&
			existing.UserID == m.UserID {
			return fmt.Errorf("membership %s/%s/%s: %w",
				m.TenantID, m.RoleID, m.UserID, gatehouse.ErrDuplicateMembership)
		}
	}
	s.memberships[m.ID.String()] = copyMembership(m)
	return nil
}

func (s *Store) GetMembership(_ context.Context, membID id.MembershipID) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membID.String()]
	if !ok {
		return nil, fmt.Errorf("membership %s: %w", membID, gatehouse.ErrMembershipNotFound)
	}
	return copyMembership(m), nil
}

func (s *Store) DeleteMembership(_ context.Context, membID id.MembershipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memberships, membID.String())
	return nil
}

func (s *Store) ListMemberships(_ context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Membership, 0, len(s.memberships))
	for _, m := range s.memberships {
		if filter != nil {
			if filter.TenantID != "" && m.TenantID != filter.TenantID {
				continue
			}
			if filter.RoleID != nil && m.RoleID.String() != filter.RoleID.String() {
				continue
			}
			if filter.UserID != "" && m.UserID != filter.UserID {
				continue
			}
		}
		result = append(result, copyMembership(m))
	}
	return applyPagination(result, membershipPagination(filter)), nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	list, err := s.ListMemberships(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListRolesForUser(_ context.Context, tenantID, userID string) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []id.RoleID
	for _, m := range s.memberships {
		if m.TenantID == tenantID && m.UserID == userID {
			result = append(result, m.RoleID)
		}
	}
	return result, nil
}

func (s *Store) ListTenantsForUser(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var result []string
	for _, m := range s.memberships {
		if m.UserID != userID {
			continue
		}
		if _, ok := seen[m.TenantID]; ok {
			continue
		}
		seen[m.TenantID] = struct{}{}
		result = append(result, m.TenantID)
	}
	sort.Strings(result)
	return result, nil
}

func (s *Store) DeleteMembershipsByUser(_ context.Context, tenantID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.memberships {
		if m.TenantID == tenantID && m.UserID == userID {
			delete(s.memberships, k)
		}
	}
	return nil
}

func (s *Store) DeleteMembershipsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.memberships {
		if m.RoleID.String() == roleID.String() {
			delete(s.memberships, k)
		}
	}
	return nil
}

func (s *Store) DeleteMembershipsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.memberships {
		if m.TenantID == tenantID {
			delete(s.memberships, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Rule Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRule(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rules {
		if existing.Tuple() == r.Tuple() {
			return fmt.Errorf("rule %s/%s/%s/%s: %w",
				r.TenantID, r.Subject, r.Resource, r.Action, gatehouse.ErrDuplicateRule)
		}
	}
	s.rules[r.ID.String()] = copyRule(r)
	return nil
}

func (s *Store) GetRule(_ context.Context, ruleID id.RuleID) (*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID.String()]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", ruleID, gatehouse.ErrRuleNotFound)
	}
	return copyRule(r), nil
}

func (s *Store) DeleteRule(_ context.Context, ruleID id.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, ruleID.String())
	return nil
}

func (s *Store) DeleteRuleTuple(_ context.Context, t rule.Tuple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.rules {
		if r.Tuple() == t {
			delete(s.rules, k)
			return nil
		}
	}
	return nil
}

func (s *Store) HasRule(_ context.Context, t rule.Tuple) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.Tuple() == t {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListRules(_ context.Context, filter *rule.ListFilter) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*rule.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if filter != nil {
			if filter.TenantID != "" && r.TenantID != filter.TenantID {
				continue
			}
			if filter.Subject != "" && r.Subject != filter.Subject {
				continue
			}
			if filter.Resource != "" && r.Resource != filter.Resource {
				continue
			}
			if filter.Action != "" && r.Action != filter.Action {
				continue
			}
		}
		result = append(result, copyRule(r))
	}
	return applyPagination(result, rulePagination(filter)), nil
}

func (s *Store) CountRules(ctx context.Context, filter *rule.ListFilter) (int64, error) {
	list, err := s.ListRules(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListRulesForSubjects(_ context.Context, tenantID string, subjects []string) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]struct{}, len(subjects))
	for _, sub := range subjects {
		want[sub] = struct{}{}
	}
	var result []*rule.Rule
	for _, r := range s.rules {
		if r.TenantID != tenantID && r.TenantID != rule.GlobalTenant {
			continue
		}
		if _, ok := want[r.Subject]; !ok {
			continue
		}
		result = append(result, copyRule(r))
	}
	return result, nil
}

func (s *Store) CountRulesByTenant(_ context.Context, tenantID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.rules {
		if r.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteRulesByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.rules {
		if r.TenantID == tenantID {
			delete(s.rules, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance Store
// ──────────────────────────────────────────────────

func (s *Store) CreateEdge(_ context.Context, e *inherit.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.edges {
		if existing.TenantID == e.TenantID &&
			existing.RoleID.String() == e.RoleID.String() &&
			existing.ParentID.String() == e.ParentID.String() {
			return fmt.Errorf("edge %s→%s: %w", e.RoleID, e.ParentID, gatehouse.ErrDuplicateEdge)
		}
	}
	s.edges[e.ID.String()] = copyEdge(e)
	return nil
}

func (s *Store) DeleteEdge(_ context.Context, edgeID id.EdgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, edgeID.String())
	return nil
}

func (s *Store) DeleteEdgeTuple(_ context.Context, tenantID string, roleID, parentID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.edges {
		if e.TenantID == tenantID &&
			e.RoleID.String() == roleID.String() &&
			e.ParentID.String() == parentID.String() {
			delete(s.edges, k)
			return nil
		}
	}
	return nil
}

func (s *Store) ListParents(_ context.Context, tenantID string, roleID id.RoleID) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []id.RoleID
	for _, e := range s.edges {
		if e.TenantID == tenantID && e.RoleID.String() == roleID.String() {
			result = append(result, e.ParentID)
		}
	}
	return result, nil
}

func (s *Store) ListEdges(_ context.Context, filter *inherit.ListFilter) ([]*inherit.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*inherit.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		if filter != nil {
			if filter.TenantID != "" && e.TenantID != filter.TenantID {
				continue
			}
			if filter.RoleID != nil && e.RoleID.String() != filter.RoleID.String() {
				continue
			}
			if filter.ParentID != nil && e.ParentID.String() != filter.ParentID.String() {
				continue
			}
		}
		result = append(result, copyEdge(e))
	}
	return applyPagination(result, edgePagination(filter)), nil
}

func (s *Store) DeleteEdgesByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rk := roleID.String()
	for k, e := range s.edges {
		if e.RoleID.String() == rk || e.ParentID.String() == rk {
			delete(s.edges, k)
		}
	}
	return nil
}

func (s *Store) DeleteEdgesByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.edges {
		if e.TenantID == tenantID {
			delete(s.edges, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Token Registry
// ──────────────────────────────────────────────────

func (s *Store) CreateToken(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID.String()] = copyToken(t)
	return nil
}

func (s *Store) GetToken(_ context.Context, tokenID id.TokenID) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[tokenID.String()]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
	}
	return copyToken(t), nil
}

func (s *Store) GetTokenBySecretHash(_ context.Context, hash string) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.SecretHash == hash {
			return copyToken(t), nil
		}
	}
	return nil, fmt.Errorf("token secret: %w", gatehouse.ErrTokenNotFound)
}

func (s *Store) RevokeToken(_ context.Context, tokenID id.TokenID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID.String()]
	if !ok {
		return fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
	}
	if t.RevokedAt == nil {
		t.RevokedAt = &at
	}
	return nil
}

func (s *Store) TouchToken(_ context.Context, tokenID id.TokenID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID.String()]
	if !ok {
		return fmt.Errorf("token %s: %w", tokenID, gatehouse.ErrTokenNotFound)
	}
	t.LastUsedAt = &at
	return nil
}

func (s *Store) DeleteToken(_ context.Context, tokenID id.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenID.String())
	return nil
}

func (s *Store) ListTokens(_ context.Context, filter *token.ListFilter) ([]*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*token.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		if filter != nil {
			if filter.TenantID != "" && t.TenantID != filter.TenantID {
				continue
			}
			if !filter.IncludeRevoked && t.RevokedAt != nil {
				continue
			}
		} else if t.RevokedAt != nil {
			continue
		}
		result = append(result, copyToken(t))
	}
	return applyPagination(result, tokenPagination(filter)), nil
}

func (s *Store) CountTokens(ctx context.Context, filter *token.ListFilter) (int64, error) {
	list, err := s.ListTokens(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteTokensByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tokens {
		if t.TenantID == tenantID {
			delete(s.tokens, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateEvent(_ context.Context, e *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID.String()] = copyEvent(e)
	return nil
}

func (s *Store) GetEvent(_ context.Context, eventID id.AuditEventID) (*audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID.String()]
	if !ok {
		return nil, fmt.Errorf("audit event %s: %w", eventID, gatehouse.ErrEventNotFound)
	}
	return copyEvent(e), nil
}

func (s *Store) ListEvents(_ context.Context, filter *audit.QueryFilter) ([]*audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*audit.Event, 0, len(s.events))
	for _, e := range s.events {
		if filter != nil {
			if filter.TenantID != "" && e.TenantID != filter.TenantID {
				continue
			}
			if filter.PrincipalID != "" && e.PrincipalID != filter.PrincipalID {
				continue
			}
			if filter.Resource != "" && e.Resource != filter.Resource {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.Decision != "" && e.Decision != filter.Decision {
				continue
			}
			if filter.After != nil && !e.CreatedAt.After(*filter.After) {
				continue
			}
			if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
				continue
			}
		}
		result = append(result, copyEvent(e))
	}
	// Newest first.
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return applyPagination(result, eventPagination(filter)), nil
}

func (s *Store) CountEvents(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	list, err := s.ListEvents(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.events {
		if e.CreatedAt.Before(before) {
			delete(s.events, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteEventsByTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.events {
		if e.TenantID == tenantID {
			delete(s.events, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyRole(r *role.Role) *role.Role {
	c := *r
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyMembership(m *membership.Membership) *membership.Membership {
	c := *m
	return &c
}

func copyRule(r *rule.Rule) *rule.Rule {
	c := *r
	return &c
}

func copyEdge(e *inherit.Edge) *inherit.Edge {
	c := *e
	return &c
}

func copyToken(t *token.Token) *token.Token {
	c := *t
	if t.Scopes != nil {
		c.Scopes = append([]string(nil), t.Scopes...)
	}
	return &c
}

func copyEvent(e *audit.Event) *audit.Event {
	c := *e
	return &c
}

type pagOpts struct {
	limit  int
	offset int
}

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset > 0 && p.offset >= len(items) {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationOpts(f *role.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func membershipPagination(f *membership.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func rulePagination(f *rule.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func edgePagination(f *inherit.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func tokenPagination(f *token.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func eventPagination(f *audit.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}
