package fastauth

import "net/http"

// Kind identifies one member of the closed error taxonomy. Every failure
// produced by this module carries exactly one Kind; the set is closed and
// transport adapters may switch over it exhaustively.
type Kind uint8

const (
	// KindCredentialsInvalid covers password mismatch (and unknown
	// identifiers during login, to avoid account enumeration).
	KindCredentialsInvalid Kind = iota
	// KindTokenInvalid covers signature verification failures.
	KindTokenInvalid
	// KindTokenExpired covers structurally valid, correctly signed tokens
	// whose expiry has passed.
	KindTokenExpired
	// KindTokenMalformed covers token strings that cannot be parsed.
	KindTokenMalformed
	// KindTokenKindMismatch covers an access token presented where a refresh
	// token is required, or vice versa.
	KindTokenKindMismatch
	// KindUserNotFound covers identity lookups outside the login path.
	KindUserNotFound
	// KindUserExists covers identity creation conflicts.
	KindUserExists
	// KindRoleNotFound covers role lookups by name.
	KindRoleNotFound
	// KindRoleExists covers role creation conflicts.
	KindRoleExists
	// KindPermissionDenied covers failed authorization checks.
	KindPermissionDenied
	// KindInactiveAccount covers principals with the disabled flag set.
	KindInactiveAccount
	// KindConfigInvalid covers misconfiguration detected at construction
	// time. Fatal at startup, never deferred to request time.
	KindConfigInvalid
	// KindInternal is the generic server-error kind that collaborator
	// faults are translated to before crossing the boundary.
	KindInternal
)

// Error is a single immutable failure value: taxonomy kind, stable machine
// code, human-readable message, and a suggested transport status. Errors are
// produced at the point of failure and never mutated; use [Error.Is] via
// errors.Is to match on kind regardless of message detail.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind. This makes
// errors.Is(err, ErrTokenExpired) match derived errors that carry a more
// specific message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// withMessage derives a copy of e with a different message. The sentinel
// itself is never mutated.
func (e *Error) withMessage(msg string) *Error {
	derived := *e
	derived.Message = msg
	return &derived
}

var (
	// ErrCredentialsInvalid is returned when login credentials do not match.
	ErrCredentialsInvalid = &Error{Kind: KindCredentialsInvalid, Code: "credentials_invalid", Message: "invalid credentials", Status: http.StatusUnauthorized}
	// ErrTokenInvalid is returned when a token signature cannot be verified.
	ErrTokenInvalid = &Error{Kind: KindTokenInvalid, Code: "token_invalid", Message: "invalid token", Status: http.StatusUnauthorized}
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = &Error{Kind: KindTokenExpired, Code: "token_expired", Message: "token expired", Status: http.StatusUnauthorized}
	// ErrTokenMalformed is returned when a token string cannot be parsed.
	ErrTokenMalformed = &Error{Kind: KindTokenMalformed, Code: "token_malformed", Message: "malformed token", Status: http.StatusUnauthorized}
	// ErrTokenKindMismatch is returned when a token of the wrong kind is
	// presented (access where refresh is required, or vice versa).
	ErrTokenKindMismatch = &Error{Kind: KindTokenKindMismatch, Code: "token_kind_mismatch", Message: "wrong token kind", Status: http.StatusUnauthorized}
	// ErrUserNotFound is returned when an identity lookup finds nothing.
	ErrUserNotFound = &Error{Kind: KindUserNotFound, Code: "user_not_found", Message: "user not found", Status: http.StatusNotFound}
	// ErrUserExists is returned on identity creation conflicts.
	ErrUserExists = &Error{Kind: KindUserExists, Code: "user_exists", Message: "user already exists", Status: http.StatusConflict}
	// ErrRoleNotFound is returned when a role lookup by name finds nothing.
	ErrRoleNotFound = &Error{Kind: KindRoleNotFound, Code: "role_not_found", Message: "role not found", Status: http.StatusNotFound}
	// ErrRoleExists is returned on role creation conflicts.
	ErrRoleExists = &Error{Kind: KindRoleExists, Code: "role_exists", Message: "role already exists", Status: http.StatusConflict}
	// ErrPermissionDenied is returned when an authorization check is denied.
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied, Code: "permission_denied", Message: "permission denied", Status: http.StatusForbidden}
	// ErrInactiveAccount is returned when the principal is disabled.
	ErrInactiveAccount = &Error{Kind: KindInactiveAccount, Code: "inactive_account", Message: "account is inactive", Status: http.StatusForbidden}
	// ErrConfigInvalid is returned by construction-time validation.
	ErrConfigInvalid = &Error{Kind: KindConfigInvalid, Code: "config_invalid", Message: "invalid configuration", Status: http.StatusInternalServerError}
	// ErrInternal is the generic server-error value collaborator faults are
	// translated to.
	ErrInternal = &Error{Kind: KindInternal, Code: "internal_error", Message: "internal error", Status: http.StatusInternalServerError}
)

// configInvalid derives an [ErrConfigInvalid] carrying a field-level detail
// message.
func configInvalid(detail string) *Error {
	return ErrConfigInvalid.withMessage("invalid configuration: " + detail)
}

// internalError translates an arbitrary collaborator fault into the generic
// server-error kind. The original error text is deliberately dropped so
// storage internals never leak through the boundary.
func internalError(err error) *Error {
	if err == nil {
		return nil
	}
	if typed, ok := err.(*Error); ok {
		return typed
	}
	return ErrInternal
}
