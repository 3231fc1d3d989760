package fastauth

import (
	"context"
	"errors"
	"log"
	"time"

	internalaudit "github.com/fastauth/fastauth/internal/audit"
	internalmetrics "github.com/fastauth/fastauth/internal/metrics"
	"github.com/fastauth/fastauth/internal/rate"
	"github.com/fastauth/fastauth/internal/revocation"
	"github.com/fastauth/fastauth/password"
	"github.com/fastauth/fastauth/token"
	"github.com/google/uuid"
)

// Engine is the authentication and authorization core. It is immutable after
// Build and safe for concurrent use; all persistent state lives behind the
// injected stores.
type Engine struct {
	config Config
	clock  Clock
	codec  *token.Codec
	hasher *password.Hasher
	users  UserStore
	roles  RoleStore

	limiter     *rate.Limiter
	revocations *revocation.Store
	audit       *internalaudit.Dispatcher
	metrics     *internalmetrics.Metrics
}

// Close releases engine-owned background resources. Currently that is only
// the audit dispatcher; the Redis client belongs to the host and is not
// closed here.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// Login authenticates a username/password pair and issues a fresh token
// pair. Unknown usernames and wrong passwords are indistinguishable to the
// caller: both surface [ErrCredentialsInvalid]. Disabled accounts surface
// [ErrInactiveAccount] only after the credential has been verified.
func (e *Engine) Login(ctx context.Context, username, secret string) (*TokenPair, error) {
	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, username, ip); err != nil {
			return nil, e.loginRateLimited(ctx, username, err)
		}
	}

	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, internalError(err)
	}
	if user == nil || !e.hasher.Verify(secret, user.PasswordHash) {
		if e.limiter != nil {
			if err := e.limiter.IncrementLogin(ctx, username, ip); err != nil {
				return nil, e.loginRateLimited(ctx, username, err)
			}
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrCredentialsInvalid, func() map[string]string {
			return map[string]string{"identifier": username}
		})
		return nil, ErrCredentialsInvalid
	}
	if user.Disabled {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrInactiveAccount, nil)
		return nil, ErrInactiveAccount
	}

	e.maybeRehash(ctx, user, secret)

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, username, ip); err != nil {
			// Best effort: a stale counter only shortens the budget for
			// the next failed attempts.
			log.Print("fastauth: failed to reset login counter: ", err)
		}
	}

	pair, err := e.Issue(ctx, user)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)

	return pair, nil
}

// Issue mints a fresh access/refresh token pair for the principal. Both
// tokens share the subject; each carries its own unique token ID.
func (e *Engine) Issue(ctx context.Context, user *Principal) (*TokenPair, error) {
	if user == nil || user.Username == "" {
		return nil, internalError(errors.New("nil principal"))
	}

	now := e.clock()

	accessClaims := token.NewClaims(user.Username, token.KindAccess, uuid.NewString(), now, e.config.Token.AccessTTL)
	accessToken, err := e.codec.Encode(accessClaims)
	if err != nil {
		return nil, internalError(err)
	}

	refreshClaims := token.NewClaims(user.Username, token.KindRefresh, uuid.NewString(), now, e.config.Token.RefreshTTL)
	refreshToken, err := e.codec.Encode(refreshClaims)
	if err != nil {
		return nil, internalError(err)
	}

	return &TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}, nil
}

// VerifyAccess validates an access token and returns the authenticated
// subject with its claims. Signature verification happens before the expiry
// check; a refresh token presented here is rejected with
// [ErrTokenKindMismatch].
func (e *Engine) VerifyAccess(ctx context.Context, tokenStr string) (*AuthResult, error) {
	started := time.Now()

	claims, err := e.decode(ctx, tokenStr, token.KindAccess)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		return nil, err
	}

	e.metricInc(MetricVerifySuccess)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(started))
	}

	return &AuthResult{
		Subject: claims.Subject,
		Claims:  claims,
	}, nil
}

// Refresh validates a refresh token and mints a new access token for the
// same subject. The refresh token itself is not rotated and its expiry is
// never extended; when it expires, the subject must log in again.
func (e *Engine) Refresh(ctx context.Context, refreshStr string) (string, error) {
	claims, err := e.decode(ctx, refreshStr, token.KindRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", err, nil)
		return "", err
	}

	if e.limiter != nil {
		if err := e.limiter.CheckRefresh(ctx, claims.Subject); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				e.emitAudit(ctx, auditEventRefreshRateLimited, false, "", nil, func() map[string]string {
					return map[string]string{"subject": claims.Subject}
				})
				return "", ErrPermissionDenied.withMessage("too many refresh attempts")
			}
			e.metricInc(MetricRefreshFailure)
			return "", internalError(err)
		}
	}

	accessClaims := token.NewClaims(claims.Subject, token.KindAccess, uuid.NewString(), e.clock(), e.config.Token.AccessTTL)
	accessToken, err := e.codec.Encode(accessClaims)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return "", internalError(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, "", nil, func() map[string]string {
		return map[string]string{"subject": claims.Subject}
	})

	return accessToken, nil
}

// Revoke invalidates a single token, of either kind, ahead of its natural
// expiry by denylisting its token ID until that expiry. Requires revocation
// to be enabled and Redis configured.
func (e *Engine) Revoke(ctx context.Context, tokenStr string) error {
	if e.revocations == nil {
		return configInvalid("revocation is not enabled")
	}

	claims, err := e.codec.Decode(tokenStr)
	if err != nil {
		return mapTokenError(err)
	}
	if claims.ID == "" {
		return ErrTokenMalformed.withMessage("token has no id")
	}

	if err := e.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return internalError(err)
	}

	e.metricInc(MetricTokenRevoked)
	e.emitAudit(ctx, auditEventTokenRevoked, true, "", nil, func() map[string]string {
		return map[string]string{"subject": claims.Subject, "kind": string(claims.Kind)}
	})

	return nil
}

// Register creates a new principal with a freshly hashed credential.
// A username already in use surfaces [ErrUserExists].
func (e *Engine) Register(ctx context.Context, username, secret string) (*Principal, error) {
	if username == "" {
		return nil, ErrUserExists.withMessage("username must not be empty")
	}

	existing, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, internalError(err)
	}
	if existing != nil {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrUserExists, func() map[string]string {
			return map[string]string{"identifier": username}
		})
		return nil, ErrUserExists
	}

	hash, err := e.hasher.Hash(secret)
	if err != nil {
		return nil, internalError(err)
	}

	created, err := e.users.Create(ctx, &Principal{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, internalError(err)
	}
	if created == nil {
		return nil, internalError(errors.New("store returned nil principal"))
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, created.ID, nil, nil)

	return created, nil
}

// CurrentUser resolves an access token to its living principal. The token
// being valid is not enough: the principal must still exist and be active.
func (e *Engine) CurrentUser(ctx context.Context, accessStr string) (*Principal, error) {
	result, err := e.VerifyAccess(ctx, accessStr)
	if err != nil {
		return nil, err
	}

	user, err := e.users.FindByUsername(ctx, result.Subject)
	if err != nil {
		return nil, internalError(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Disabled {
		return nil, ErrInactiveAccount
	}

	return user, nil
}

// decode parses and validates a token, checks the expected kind, and
// consults the revocation denylist when enabled.
func (e *Engine) decode(ctx context.Context, tokenStr string, want token.Kind) (*token.Claims, error) {
	claims, err := e.codec.Decode(tokenStr)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if claims.Kind != want {
		return nil, ErrTokenKindMismatch
	}

	if e.revocations != nil && claims.ID != "" {
		revoked, err := e.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, internalError(err)
		}
		if revoked {
			return nil, ErrTokenInvalid.withMessage("token revoked")
		}
	}

	return claims, nil
}

// maybeRehash upgrades the stored credential hash after a successful verify
// when the store supports it. Failure is logged and otherwise ignored: the
// login itself already succeeded.
func (e *Engine) maybeRehash(ctx context.Context, user *Principal, secret string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	updater, ok := e.users.(CredentialUpdater)
	if !ok || !e.hasher.NeedsUpgrade(user.PasswordHash) {
		return
	}

	newHash, err := e.hasher.Hash(secret)
	if err != nil {
		log.Print("fastauth: credential rehash failed: ", err)
		return
	}
	if err := updater.UpdateCredentialHash(ctx, user.ID, newHash); err != nil {
		log.Print("fastauth: credential hash update failed: ", err)
	}
}

func (e *Engine) loginRateLimited(ctx context.Context, username string, err error) error {
	if !errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginFailure)
		return internalError(err)
	}

	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, "", nil, func() map[string]string {
		return map[string]string{"identifier": username}
	})

	return ErrPermissionDenied.withMessage("too many login attempts")
}

// mapTokenError translates codec sentinels into the public taxonomy.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrMalformed):
		return ErrTokenMalformed
	case errors.Is(err, token.ErrInvalid):
		return ErrTokenInvalid
	default:
		return internalError(err)
	}
}
