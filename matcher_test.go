package gatehouse

import (
	"testing"

	"github.com/xraph/gatehouse/rule"
)

func TestRuleGrants(t *testing.T) {
	cases := []struct {
		name     string
		rule     rule.Rule
		resource string
		action   string
		want     bool
	}{
		{"exact match", rule.Rule{Resource: "customer", Action: "read"}, "customer", "read", true},
		{"action mismatch", rule.Rule{Resource: "customer", Action: "read"}, "customer", "write", false},
		{"resource mismatch", rule.Rule{Resource: "customer", Action: "read"}, "reward", "read", false},
		{"wildcard resource", rule.Rule{Resource: "*", Action: "*"}, "campaign", "delete", true},
		{"wildcard resource exact action", rule.Rule{Resource: "*", Action: "read"}, "campaign", "delete", true},
		{"wildcard action", rule.Rule{Resource: "campaign", Action: "*"}, "campaign", "delete", true},
		{"wildcard action wrong resource", rule.Rule{Resource: "campaign", Action: "*"}, "customer", "read", false},
		{"case sensitive", rule.Rule{Resource: "customer", Action: "read"}, "Customer", "read", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ruleGrants(&tc.rule, tc.resource, tc.action); got != tc.want {
				t.Fatalf("ruleGrants(%+v, %s, %s) = %v, want %v", tc.rule, tc.resource, tc.action, got, tc.want)
			}
		})
	}
}

func TestRuleMatchesTenant(t *testing.T) {
	cases := []struct {
		name   string
		tenant string
		check  string
		want   bool
	}{
		{"same tenant", "org_1", "org_1", true},
		{"other tenant", "org_1", "org_2", false},
		{"global domain", rule.GlobalTenant, "org_1", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &rule.Rule{TenantID: tc.tenant}
			if got := ruleMatchesTenant(r, tc.check); got != tc.want {
				t.Fatalf("ruleMatchesTenant(%s, %s) = %v, want %v", tc.tenant, tc.check, got, tc.want)
			}
		})
	}
}
