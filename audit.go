package goSession

import (
	"context"
	"errors"
)

const (
	auditEventSessionLoad        = "session_load"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLogout             = "logout"
	auditEventRemoteRevokeFailed = "remote_revoke_failure"
	auditEventUpdateUserSuccess  = "update_user_success"
	auditEventUpdateUserFailure  = "update_user_failure"
)

// AuditErrorCode is the stable error classification carried in [AuditEvent].Error.
type AuditErrorCode string

const (
	auditErrStorageRead      AuditErrorCode = "storage_read"
	auditErrStorageWrite     AuditErrorCode = "storage_write"
	auditErrSerialization    AuditErrorCode = "serialization"
	auditErrRemoteRevoke     AuditErrorCode = "remote_revoke"
	auditErrRemoteRejected   AuditErrorCode = "remote_rejected"
	auditErrNotAuthenticated AuditErrorCode = "not_authenticated"
	auditErrInvalidUser      AuditErrorCode = "invalid_user"
	auditErrNotReady         AuditErrorCode = "not_ready"
	auditErrClosed           AuditErrorCode = "closed"
	auditErrCanceled         AuditErrorCode = "canceled"
	auditErrInternal         AuditErrorCode = "internal_error"
)

// errRemoteRejected marks a revoke the service answered with success=false.
var errRemoteRejected = errors.New("remote session service rejected revoke")

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrSerialization):
		return auditErrSerialization
	case errors.Is(err, ErrStorageWrite):
		return auditErrStorageWrite
	case errors.Is(err, ErrStorageRead):
		return auditErrStorageRead
	case errors.Is(err, ErrRemoteRevoke):
		return auditErrRemoteRevoke
	case errors.Is(err, errRemoteRejected):
		return auditErrRemoteRejected
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrInvalidUser):
		return auditErrInvalidUser
	case errors.Is(err, ErrManagerNotReady):
		return auditErrNotReady
	case errors.Is(err, ErrManagerClosed):
		return auditErrClosed
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
