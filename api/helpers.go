package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/gatehouse"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, gatehouse.ErrSystemRoleImmutable) || errors.Is(err, gatehouse.ErrRoleReferenced) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, gatehouse.ErrDuplicateRule) ||
		errors.Is(err, gatehouse.ErrDuplicateMembership) ||
		errors.Is(err, gatehouse.ErrDuplicateEdge) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, gatehouse.ErrCyclicInheritance) || errors.Is(err, gatehouse.ErrInvalidRule) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, gatehouse.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gatehouse.ErrRoleNotFound) ||
		errors.Is(err, gatehouse.ErrRuleNotFound) ||
		errors.Is(err, gatehouse.ErrMembershipNotFound) ||
		errors.Is(err, gatehouse.ErrTokenNotFound) ||
		errors.Is(err, gatehouse.ErrEventNotFound) ||
		errors.Is(err, gatehouse.ErrEdgeNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
