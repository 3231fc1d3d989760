// Package revocation implements a Redis-backed token denylist keyed by
// token ID (jti). Entries expire together with the token they revoke, so
// the set never grows beyond the live-token horizon.
package revocation
