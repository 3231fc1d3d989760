// Package audit defines the structured audit event model and the
// asynchronous dispatcher that forwards events to a host-supplied sink.
//
// Dispatch never blocks the authentication hot path: with DropIfFull set,
// events beyond the buffer are counted and discarded; otherwise emission
// waits on the caller's context. Close drains the buffer before returning.
package audit
