package fastauth

import (
	"context"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshFailure     = "refresh_failure"
	auditEventRefreshRateLimited = "refresh_rate_limited"
	auditEventTokenRevoked       = "token_revoked"
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventPermissionDenied   = "permission_denied"
	auditEventRoleCreated        = "role_created"
	auditEventRoleAssigned       = "role_assigned"
	auditEventRoleRevoked        = "role_revoked"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:   e.clock().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		IP:          clientIPFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if typed, ok := err.(*Error); ok && typed != nil {
		event.ErrorCode = typed.Code
	}

	e.audit.Emit(ctx, event)
}
