package rule

import (
	"context"

	"github.com/xraph/gatehouse/id"
)

// Store defines persistence operations for policy rules.
//
// Implementations must reject a CreateRule whose tuple already exists, so
// that concurrent bootstrap runs converge on exactly one copy of each rule.
type Store interface {
	// CreateRule persists a new rule.
	CreateRule(ctx context.Context, r *Rule) error

	// GetRule retrieves a rule by ID.
	GetRule(ctx context.Context, ruleID id.RuleID) (*Rule, error)

	// DeleteRule removes a rule by ID.
	DeleteRule(ctx context.Context, ruleID id.RuleID) error

	// DeleteRuleTuple removes the rule matching the exact tuple, if present.
	DeleteRuleTuple(ctx context.Context, t Tuple) error

	// HasRule reports whether a rule with the exact tuple exists.
	HasRule(ctx context.Context, t Tuple) (bool, error)

	// ListRules returns rules matching the filter.
	ListRules(ctx context.Context, filter *ListFilter) ([]*Rule, error)

	// CountRules returns the number of rules matching the filter.
	CountRules(ctx context.Context, filter *ListFilter) (int64, error)

	// ListRulesForSubjects returns the rules in the given tenant or the
	// global domain whose subject is one of the given subjects.
	ListRulesForSubjects(ctx context.Context, tenantID string, subjects []string) ([]*Rule, error)

	// CountRulesByTenant returns the number of rules scoped to a tenant.
	// The bootstrapper's warm-up pass uses this to find tenants whose
	// policies were never seeded.
	CountRulesByTenant(ctx context.Context, tenantID string) (int64, error)

	// DeleteRulesByTenant removes all rules for a tenant.
	DeleteRulesByTenant(ctx context.Context, tenantID string) error
}
