package authsync

import (
	"context"
	"errors"

	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/tokenstore"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterFailure       = "register_failure"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshFailure        = "refresh_failure"
	auditEventRefreshSkipped        = "refresh_skipped"
	auditEventSessionExpired        = "session_expired"
	auditEventLogout                = "logout"
	auditEventLogoutRemoteFailed    = "logout_remote_failed"
	auditEventLogoutAll             = "logout_all"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventProfileUpdateApplied  = "profile_update_applied"
	auditEventProfileUpdateRollback = "profile_update_rollback"
	auditEventProfileUpdateSettled  = "profile_update_settled"
	auditEventProfileUpdateFailure  = "profile_update_failure"
	auditEventUserFetchFailure      = "user_fetch_failure"
)

// AuditErrorCode defines a public type used by authsync APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized        AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrInvalidRegistration AuditErrorCode = "invalid_registration"
	auditErrTransient           AuditErrorCode = "transient_failure"
	auditErrRequestRejected     AuditErrorCode = "request_rejected"
	auditErrNotAuthenticated    AuditErrorCode = "not_authenticated"
	auditErrNotRefreshable      AuditErrorCode = "not_refreshable"
	auditErrPasswordPolicy      AuditErrorCode = "password_policy"
	auditErrPasswordReuse       AuditErrorCode = "password_reuse"
	auditErrEmptyPatch          AuditErrorCode = "empty_patch"
	auditErrStoreUnavailable    AuditErrorCode = "store_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
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
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidRegistration):
		return auditErrInvalidRegistration
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrNotRefreshable):
		return auditErrNotRefreshable
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrEmptyProfilePatch):
		return auditErrEmptyPatch
	case errors.Is(err, tokenstore.ErrStoreUnavailable),
		errors.Is(err, tokenstore.ErrCorruptRecord):
		return auditErrStoreUnavailable
	case api.IsAuth(err):
		return auditErrUnauthorized
	case api.IsTransient(err):
		return auditErrTransient
	case api.IsRequest(err):
		return auditErrRequestRejected
	default:
		return auditErrInternal
	}
}
