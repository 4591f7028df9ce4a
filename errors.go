package gatehouse

import "errors"

var (
	// ErrUnauthenticated is returned when no valid credential is found.
	ErrUnauthenticated = errors.New("gatehouse: unauthenticated")

	// ErrAccessDenied is returned when a valid principal lacks permission.
	ErrAccessDenied = errors.New("gatehouse: access denied")

	// ErrTokenExpired marks a bearer token past its expiry. It is a subtype
	// of ErrUnauthenticated: callers see the same terminal outcome, audit
	// events record the distinction.
	ErrTokenExpired = errors.New("gatehouse: token expired")

	// ErrTokenRevoked marks a revoked bearer token. Subtype of
	// ErrUnauthenticated like ErrTokenExpired.
	ErrTokenRevoked = errors.New("gatehouse: token revoked")

	// ErrStoreUnavailable is returned for transient store failures. It must
	// surface to the caller as a retryable failure, never as a deny.
	ErrStoreUnavailable = errors.New("gatehouse: policy store unavailable")

	// ErrInvalidRule is returned when a rule fails validation. Permanent.
	ErrInvalidRule = errors.New("gatehouse: invalid rule")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("gatehouse: role not found")

	// ErrRuleNotFound is returned when a rule cannot be found.
	ErrRuleNotFound = errors.New("gatehouse: rule not found")

	// ErrMembershipNotFound is returned when a membership cannot be found.
	ErrMembershipNotFound = errors.New("gatehouse: membership not found")

	// ErrTokenNotFound is returned when a token cannot be found.
	ErrTokenNotFound = errors.New("gatehouse: token not found")

	// ErrEventNotFound is returned when an audit event cannot be found.
	ErrEventNotFound = errors.New("gatehouse: audit event not found")

	// ErrEdgeNotFound is returned when an inheritance edge cannot be found.
	ErrEdgeNotFound = errors.New("gatehouse: inheritance edge not found")

	// ErrRoleReferenced is returned when deleting a role that still has
	// memberships, rules, or inheritance edges pointing at it.
	ErrRoleReferenced = errors.New("gatehouse: role still referenced")

	// ErrSystemRoleImmutable is returned when trying to modify a system role.
	ErrSystemRoleImmutable = errors.New("gatehouse: system role cannot be modified")

	// ErrDuplicateRule is returned when a rule with the same tuple exists.
	ErrDuplicateRule = errors.New("gatehouse: rule already exists")

	// ErrDuplicateMembership is returned when a role is already granted.
	ErrDuplicateMembership = errors.New("gatehouse: role already granted to user")

	// ErrDuplicateEdge is returned when an inheritance edge already exists.
	ErrDuplicateEdge = errors.New("gatehouse: inheritance edge already exists")

	// ErrCyclicInheritance is returned when role inheritance would create a
	// cycle, or when the resolver detects one that slipped into the store.
	ErrCyclicInheritance = errors.New("gatehouse: cyclic role inheritance detected")

	// ErrInheritanceDepthExceeded is returned when the inheritance walk
	// exceeds the configured maximum depth.
	ErrInheritanceDepthExceeded = errors.New("gatehouse: role inheritance depth exceeded")

	// ErrIdentityProviderUnavailable is returned when the external identity
	// provider cannot be reached. Retryable, distinct from a failed login.
	ErrIdentityProviderUnavailable = errors.New("gatehouse: identity provider unavailable")
)

// IsUnauthenticated reports whether err belongs to the unauthenticated
// family: no credential, an expired token, or a revoked token. The three are
// indistinguishable to callers so that token lifecycle details do not leak.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenRevoked)
}
