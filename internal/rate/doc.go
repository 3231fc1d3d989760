// Package rate implements Redis-backed fixed-window rate limiting for
// login and refresh operations.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - fa:rl:u: — login per-username
//   - fa:rl:ip: — login per-IP
//   - fa:rr:s: — refresh per-subject
package rate
