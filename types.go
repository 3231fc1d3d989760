package fastauth

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/fastauth/fastauth/internal/audit"
	internalmetrics "github.com/fastauth/fastauth/internal/metrics"
	"github.com/fastauth/fastauth/token"
)

// Principal is the authenticated identity tracked by the external user
// store. The core only reads the identifier, credential hash, and
// active/disabled flag; creation and destruction belong to the store.
type Principal struct {
	ID           string
	Username     string
	PasswordHash string
	Disabled     bool
}

// Role is a named permission bucket assignable to a Principal. Roles form a
// flat set: no hierarchy, no inheritance. Role names are unique within the
// system; the store enforces the invariant.
type Role struct {
	ID          string
	Name        string
	Description string
}

// TokenPair is an access token and a refresh token issued together at
// login. Both share the same subject; the access token is short-lived, the
// refresh token long-lived (access expiry never exceeds refresh expiry).
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessClaims  *token.Claims
	RefreshClaims *token.Claims
}

// AuthResult is returned by [Engine.VerifyAccess]. It carries the verified
// subject and the decoded claims.
type AuthResult struct {
	Subject string
	Claims  *token.Claims
}

// UserStore is the identity-lookup collaborator the host must implement.
// Lookups return (nil, nil) when no principal matches; a non-nil error means
// the store itself failed and is translated to the generic server kind.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	Create(ctx context.Context, p *Principal) (*Principal, error)
}

// CredentialUpdater is an optional extension of [UserStore]. When the store
// implements it, the engine transparently rehashes credentials on login
// whenever the stored hash uses weaker parameters than the current config.
type CredentialUpdater interface {
	UpdateCredentialHash(ctx context.Context, userID, newHash string) error
}

// RoleStore is the role-lookup collaborator. FindByName returns (nil, nil)
// when no role matches. Every lookup is a point-in-time read; the core
// performs no transactions of its own.
type RoleStore interface {
	FindByName(ctx context.Context, name string) (*Role, error)
	ListForPrincipal(ctx context.Context, principalID string) ([]Role, error)
	Create(ctx context.Context, r *Role) (*Role, error)
	Assign(ctx context.Context, principalID, roleID string) error
	Revoke(ctx context.Context, principalID, roleID string) error
}

// Clock is the injected time source. The zero value (nil) falls back to
// time.Now. Tests substitute a fake clock to drive expiry deterministically.
type Clock func() time.Time

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events, one per
// line, to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricLoginRateLimited counts throttled login attempts.
	MetricLoginRateLimited = internalmetrics.MetricLoginRateLimited
	// MetricRefreshSuccess counts successful access-token refreshes.
	MetricRefreshSuccess = internalmetrics.MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refreshes.
	MetricRefreshFailure = internalmetrics.MetricRefreshFailure
	// MetricRefreshRateLimited counts throttled refresh attempts.
	MetricRefreshRateLimited = internalmetrics.MetricRefreshRateLimited
	// MetricVerifySuccess counts successful access-token verifications.
	MetricVerifySuccess = internalmetrics.MetricVerifySuccess
	// MetricVerifyFailure counts rejected access-token verifications.
	MetricVerifyFailure = internalmetrics.MetricVerifyFailure
	// MetricTokenRevoked counts revoked tokens.
	MetricTokenRevoked = internalmetrics.MetricTokenRevoked
	// MetricPermissionDenied counts denied role checks.
	MetricPermissionDenied = internalmetrics.MetricPermissionDenied
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess = internalmetrics.MetricRegisterSuccess
	// MetricRegisterDuplicate counts account creation conflicts.
	MetricRegisterDuplicate = internalmetrics.MetricRegisterDuplicate
	// MetricVerifyLatency is the optional VerifyAccess latency histogram.
	MetricVerifyLatency = internalmetrics.MetricVerifyLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot
