package resource

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		typ      Type
		action   Action
		wantErr  error
	}{
		{"customer read", TypeCustomer, ActionRead, nil},
		{"campaign delete", TypeCampaign, ActionDelete, nil},
		{"token issue", TypeToken, ActionIssue, nil},
		{"member grant", TypeMember, ActionGrant, nil},
		{"wildcard resource", Wildcard, ActionAny, nil},
		{"wildcard action on known type", TypeReward, ActionAny, nil},
		{"audit is read-only", TypeAudit, ActionDelete, ErrUnknownAction},
		{"customer cannot issue", TypeCustomer, ActionIssue, ErrUnknownAction},
		{"unknown type", Type("invoice"), ActionRead, ErrUnknownResource},
		{"unknown action on wildcard", Wildcard, Action("explode"), ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.typ, tt.action)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate(%q, %q) = %v, want nil", tt.typ, tt.action, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate(%q, %q) = %v, want %v", tt.typ, tt.action, err, tt.wantErr)
			}
		})
	}
}

func TestValidateScope(t *testing.T) {
	valid := []string{"*", "customer:read", "reward:write", "token:revoke"}
	for _, s := range valid {
		if err := ValidateScope(s); err != nil {
			t.Errorf("ValidateScope(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "customer", "customer:", ":read", "customer:fly", "invoice:read", "Customer:read"}
	for _, s := range invalid {
		if err := ValidateScope(s); err == nil {
			t.Errorf("ValidateScope(%q) = nil, want error", s)
		}
	}
}

func TestScope(t *testing.T) {
	if got := Scope(TypeReward, ActionRead); got != "reward:read" {
		t.Errorf("Scope = %q, want %q", got, "reward:read")
	}
}

func TestActionsCopies(t *testing.T) {
	a := Actions(TypeCustomer)
	if len(a) == 0 {
		t.Fatal("expected actions for customer")
	}
	a[0] = Action("mutated")
	b := Actions(TypeCustomer)
	if b[0] == Action("mutated") {
		t.Error("Actions returned shared backing slice")
	}
	if Actions(Type("nope")) != nil {
		t.Error("expected nil for unknown type")
	}
}
