// Package password provides one-way credential hashing and constant-time
// verification using argon2id in the standard PHC string format.
//
// Verification never fails loudly: a malformed or unsupported stored hash
// is reported as a non-match rather than an error, so inconsistent stored
// data cannot crash an authentication flow. Hashing and verification are
// pure functions over the input bytes; concurrent use requires no locking.
package password
