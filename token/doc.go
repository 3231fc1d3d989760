// Package token encodes, decodes, and validates the signed, expiring
// credentials issued by the engine.
//
// A token is a compact URL-safe JWS with three segments (header, claims,
// signature). Claims carry the subject, the token kind (access or refresh),
// issued-at and expiry timestamps, a unique token ID, and an opaque
// extension map. Signature verification always happens before any expiry
// check, so tampered tokens never reveal anything about their claimed
// expiry. Clock skew is not tolerated unless a leeway is configured
// explicitly.
//
// The codec is pure over its inputs plus the injected clock; concurrent use
// requires no locking.
package token
