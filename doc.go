// Package fastauth is an embeddable authentication and authorization core:
// it issues and verifies signed, time-bounded access/refresh token pairs,
// evaluates role-based access policies over composable role sets, and
// normalizes every failure into a closed taxonomy of typed errors.
//
// The package is designed to be mounted inside a host HTTP service. The host
// keeps ownership of routing, persistent storage, and configuration
// discovery; fastauth consumes those through the narrow [UserStore] and
// [RoleStore] interfaces and exposes [Engine] operations plus the middleware
// guards as its public surface.
//
// # Architecture boundaries
//
//   - fastauth is the public surface: [Engine], [Builder], [Config], the
//     [Error] taxonomy, and the collaborator interfaces.
//   - Token encoding lives in the token subpackage, credential hashing in
//     password, the pure role combinators in rbac. Redis-backed throttling
//     and revocation live under internal/ and are never exported.
//   - The core holds no mutable shared state after [Builder.Build]: tokens
//     are stateless signed artifacts, role checks are pure functions, and
//     the only I/O is the collaborator lookups the caller injects.
//
// # Failure contract
//
// Every failure path yields exactly one immutable [Error] with a stable
// machine code and a suggested transport status. Internal collaborator
// faults are translated to the closest taxonomy kind (or the generic server
// kind) before they cross the boundary; raw storage errors never leak.
package fastauth
