// Package rbac evaluates role-based access requirements over flat,
// composable role sets.
//
// The evaluators are pure functions: they take the principal's role set and
// the declared requirement and return a boolean verdict. They never raise
// permission errors themselves; the caller decides what a denied verdict
// means at its boundary. The only error they produce is a configuration
// error for an empty requirement list, which is a programming mistake and
// not a vacuous allow.
package rbac
