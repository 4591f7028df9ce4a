// Package resource defines the closed catalog of resource types and action
// verbs the authorization core understands. Unknown (resource, action) pairs
// are rejected at the API boundary instead of silently passing through
// unprotected.
package resource

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies a protected resource kind.
type Type string

// Resource types for the business domain plus the core's own entities.
const (
	TypeCustomer Type = "customer"
	TypeReward   Type = "reward"
	TypeCampaign Type = "campaign"
	TypeMember   Type = "member"
	TypeToken    Type = "token"
	TypeRole     Type = "role"
	TypeRule     Type = "rule"
	TypeTenant   Type = "tenant"
	TypeAudit    Type = "audit"

	// Wildcard matches every resource type in a policy rule.
	Wildcard Type = "*"
)

// Action identifies what a subject wants to do with a resource.
type Action string

// Action verbs recognized by the catalog.
const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionIssue  Action = "issue"
	ActionRevoke Action = "revoke"
	ActionGrant  Action = "grant"

	// ActionAny matches every action in a policy rule.
	ActionAny Action = "*"
)

var (
	// ErrUnknownResource is returned for a resource type outside the catalog.
	ErrUnknownResource = errors.New("resource: unknown resource type")

	// ErrUnknownAction is returned for an action a resource type does not support.
	ErrUnknownAction = errors.New("resource: unknown action")

	// ErrInvalidScope is returned for a malformed token scope string.
	ErrInvalidScope = errors.New("resource: invalid scope")
)

// crud is the action set shared by record-like resources.
var crud = []Action{ActionRead, ActionWrite, ActionCreate, ActionUpdate, ActionDelete}

// catalog maps each resource type to its allowed actions.
var catalog = map[Type][]Action{
	TypeCustomer: crud,
	TypeReward:   crud,
	TypeCampaign: crud,
	TypeMember:   {ActionRead, ActionGrant, ActionRevoke, ActionDelete},
	TypeToken:    {ActionRead, ActionIssue, ActionRevoke, ActionDelete},
	TypeRole:     {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
	TypeRule:     {ActionRead, ActionCreate, ActionDelete},
	TypeTenant:   {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
	TypeAudit:    {ActionRead},
}

// Types returns all catalog resource types.
func Types() []Type {
	out := make([]Type, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	return out
}

// Actions returns the allowed actions for a resource type, or nil if the
// type is not in the catalog.
func Actions(t Type) []Action {
	acts, ok := catalog[t]
	if !ok {
		return nil
	}
	out := make([]Action, len(acts))
	copy(out, acts)
	return out
}

// Validate checks a (resource, action) pair against the catalog. Wildcards
// are valid on either side: they are meaningful in policy rules and token
// scopes even though a concrete check always names both parts.
func Validate(t Type, a Action) error {
	if t == Wildcard {
		if a != ActionAny && !actionKnown(a) {
			return fmt.Errorf("%w: %q", ErrUnknownAction, a)
		}
		return nil
	}
	acts, ok := catalog[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResource, t)
	}
	if a == ActionAny {
		return nil
	}
	for _, allowed := range acts {
		if allowed == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %q on %q", ErrUnknownAction, a, t)
}

// ValidateScope checks a token scope string: "*" or "<resource>:<action>"
// where the pair is in the catalog. Case-sensitive, no globs.
func ValidateScope(scope string) error {
	if scope == "*" {
		return nil
	}
	t, a, ok := strings.Cut(scope, ":")
	if !ok || t == "" || a == "" {
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return Validate(Type(t), Action(a))
}

// Scope renders the canonical "<resource>:<action>" scope string.
func Scope(t Type, a Action) string {
	return string(t) + ":" + string(a)
}

func actionKnown(a Action) bool {
	switch a {
	case ActionRead, ActionWrite, ActionCreate, ActionUpdate, ActionDelete,
		ActionIssue, ActionRevoke, ActionGrant:
		return true
	}
	return false
}
