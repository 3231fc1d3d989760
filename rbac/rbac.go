package rbac

import "errors"

// ErrEmptyRequirement is returned when a combinator is called with no
// required roles. An empty requirement is a misconfigured guard, not a
// rule that everybody satisfies.
var ErrEmptyRequirement = errors.New("no required roles given")

// RoleSet is a flat set of role names. Roles have no hierarchy and no
// inheritance; membership is exact string equality.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from role names. Duplicates collapse.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Names returns the set's members in unspecified order.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// Contains is the direct membership test, no combinators.
func (s RoleSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// RequireAny reports whether the principal holds at least one of the
// required roles. An empty requirement list is a configuration error.
func RequireAny(have RoleSet, required []string) (bool, error) {
	if len(required) == 0 {
		return false, ErrEmptyRequirement
	}

	for _, name := range required {
		if have.Contains(name) {
			return true, nil
		}
	}

	return false, nil
}

// RequireAll reports whether the required roles are a subset of the
// principal's role set. An empty requirement list is a configuration error.
func RequireAll(have RoleSet, required []string) (bool, error) {
	if len(required) == 0 {
		return false, ErrEmptyRequirement
	}

	for _, name := range required {
		if !have.Contains(name) {
			return false, nil
		}
	}

	return true, nil
}

// IsAdmin is RequireAny over the configured administrator roles. It is
// deliberately defined in terms of the general combinator rather than a
// separate code path.
func IsAdmin(have RoleSet, adminRoles []string) (bool, error) {
	return RequireAny(have, adminRoles)
}
