package gatehouse

import "github.com/xraph/gatehouse/rule"

// ruleMatchesTenant checks that a rule applies in the tenant under
// evaluation: its tenant must equal the tenant or the global domain.
func ruleMatchesTenant(r *rule.Rule, tenantID string) bool {
	return r.TenantID == tenantID || r.TenantID == rule.GlobalTenant
}

// ruleGrants checks whether a rule grants the (resource, action) pair.
// A wildcard resource grants everything; an exact resource grants the exact
// action or all actions via the action wildcard. Whitelist-only: there is no
// deny effect to consider.
func ruleGrants(r *rule.Rule, resource, action string) bool {
	if r.Resource == "*" {
		return true
	}
	if r.Resource != resource {
		return false
	}
	return r.Action == action || r.Action == "*"
}
