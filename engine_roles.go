package fastauth

import (
	"context"
	"errors"

	"github.com/fastauth/fastauth/rbac"
)

// RolesFor returns the role names currently assigned to a username.
func (e *Engine) RolesFor(ctx context.Context, username string) ([]string, error) {
	set, _, err := e.roleSetFor(ctx, username)
	if err != nil {
		return nil, err
	}
	return set.Names(), nil
}

// HasAnyRole reports whether the principal holds at least one of the
// required roles. An empty requirement list is a configuration error, never
// a vacuous allow.
func (e *Engine) HasAnyRole(ctx context.Context, username string, required ...string) (bool, error) {
	set, _, err := e.roleSetFor(ctx, username)
	if err != nil {
		return false, err
	}
	return e.evaluate(rbac.RequireAny(set, required))
}

// HasAllRoles reports whether the principal holds every required role.
func (e *Engine) HasAllRoles(ctx context.Context, username string, required ...string) (bool, error) {
	set, _, err := e.roleSetFor(ctx, username)
	if err != nil {
		return false, err
	}
	return e.evaluate(rbac.RequireAll(set, required))
}

// IsInRole is the single-role membership check.
func (e *Engine) IsInRole(ctx context.Context, username, role string) (bool, error) {
	return e.HasAnyRole(ctx, username, role)
}

// IsAdmin reports whether the principal holds any of the configured
// administrator roles.
func (e *Engine) IsAdmin(ctx context.Context, username string) (bool, error) {
	set, _, err := e.roleSetFor(ctx, username)
	if err != nil {
		return false, err
	}
	return e.evaluate(rbac.IsAdmin(set, e.config.Authz.AdminRoles))
}

// RequireAnyRole enforces HasAnyRole: a denied check surfaces
// [ErrPermissionDenied] instead of a boolean.
func (e *Engine) RequireAnyRole(ctx context.Context, username string, required ...string) error {
	ok, err := e.HasAnyRole(ctx, username, required...)
	if err != nil {
		return err
	}
	if !ok {
		return e.denied(ctx, username, required)
	}
	return nil
}

// RequireAllRoles enforces HasAllRoles: a denied check surfaces
// [ErrPermissionDenied] instead of a boolean.
func (e *Engine) RequireAllRoles(ctx context.Context, username string, required ...string) error {
	ok, err := e.HasAllRoles(ctx, username, required...)
	if err != nil {
		return err
	}
	if !ok {
		return e.denied(ctx, username, required)
	}
	return nil
}

// CreateRole registers a new role name. Duplicate names surface
// [ErrRoleExists].
func (e *Engine) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	store, err := e.roleStore()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrRoleNotFound.withMessage("role name must not be empty")
	}

	existing, err := store.FindByName(ctx, name)
	if err != nil {
		return nil, internalError(err)
	}
	if existing != nil {
		return nil, ErrRoleExists
	}

	created, err := store.Create(ctx, &Role{Name: name, Description: description})
	if err != nil {
		return nil, internalError(err)
	}
	if created == nil {
		return nil, internalError(errors.New("store returned nil role"))
	}

	e.emitAudit(ctx, auditEventRoleCreated, true, "", nil, func() map[string]string {
		return map[string]string{"role": name}
	})

	return created, nil
}

// GetRole looks a role up by name. A missing role surfaces [ErrRoleNotFound].
func (e *Engine) GetRole(ctx context.Context, name string) (*Role, error) {
	store, err := e.roleStore()
	if err != nil {
		return nil, err
	}

	role, err := store.FindByName(ctx, name)
	if err != nil {
		return nil, internalError(err)
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	return role, nil
}

// AssignRole grants a role to a username. Both sides must exist:
// [ErrUserNotFound] and [ErrRoleNotFound] are kept distinct because this is
// an administrative operation, not a login path.
func (e *Engine) AssignRole(ctx context.Context, username, roleName string) error {
	store, err := e.roleStore()
	if err != nil {
		return err
	}

	user, err := e.principalByUsername(ctx, username)
	if err != nil {
		return err
	}

	role, err := store.FindByName(ctx, roleName)
	if err != nil {
		return internalError(err)
	}
	if role == nil {
		return ErrRoleNotFound
	}

	if err := store.Assign(ctx, user.ID, role.ID); err != nil {
		return internalError(err)
	}

	e.emitAudit(ctx, auditEventRoleAssigned, true, user.ID, nil, func() map[string]string {
		return map[string]string{"role": roleName}
	})

	return nil
}

// RevokeRole removes a role from a username.
func (e *Engine) RevokeRole(ctx context.Context, username, roleName string) error {
	store, err := e.roleStore()
	if err != nil {
		return err
	}

	user, err := e.principalByUsername(ctx, username)
	if err != nil {
		return err
	}

	role, err := store.FindByName(ctx, roleName)
	if err != nil {
		return internalError(err)
	}
	if role == nil {
		return ErrRoleNotFound
	}

	if err := store.Revoke(ctx, user.ID, role.ID); err != nil {
		return internalError(err)
	}

	e.emitAudit(ctx, auditEventRoleRevoked, true, user.ID, nil, func() map[string]string {
		return map[string]string{"role": roleName}
	})

	return nil
}

func (e *Engine) roleStore() (RoleStore, error) {
	if e.roles == nil {
		return nil, configInvalid("role store not configured")
	}
	return e.roles, nil
}

func (e *Engine) principalByUsername(ctx context.Context, username string) (*Principal, error) {
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, internalError(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (e *Engine) roleSetFor(ctx context.Context, username string) (rbac.RoleSet, *Principal, error) {
	store, err := e.roleStore()
	if err != nil {
		return nil, nil, err
	}

	user, err := e.principalByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	roles, err := store.ListForPrincipal(ctx, user.ID)
	if err != nil {
		return nil, nil, internalError(err)
	}

	set := make(rbac.RoleSet, len(roles))
	for _, role := range roles {
		set[role.Name] = struct{}{}
	}

	return set, user, nil
}

// evaluate translates the combinator's empty-requirement error into the
// public taxonomy and passes the verdict through untouched.
func (e *Engine) evaluate(ok bool, err error) (bool, error) {
	if err != nil {
		if errors.Is(err, rbac.ErrEmptyRequirement) {
			return false, configInvalid("required role list must not be empty")
		}
		return false, internalError(err)
	}
	return ok, nil
}

func (e *Engine) denied(ctx context.Context, username string, required []string) error {
	e.metricInc(MetricPermissionDenied)
	e.emitAudit(ctx, auditEventPermissionDenied, false, "", ErrPermissionDenied, func() map[string]string {
		return map[string]string{"identifier": username}
	})
	return ErrPermissionDenied
}
