// Package middleware adapts the engine to net/http: bearer-token guards
// that verify access tokens and stash the result in the request context,
// role-requirement guards on top of them, and a Mapper that renders the
// engine's typed errors as a stable JSON error envelope.
package middleware
