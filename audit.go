package scholarauth

import (
	"io"

	"github.com/DESMOND-77/scholarauth/internal/audit"
)

// AuditEvent is a single security-relevant occurrence emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives audit events; implementations must be safe for
// concurrent use by the dispatcher goroutine.
type AuditSink = audit.Sink

// Audit event types, mirrored from the internal dispatcher so sinks can
// switch on them without importing internal packages.
const (
	AuditLoginSuccess      = audit.TypeLoginSuccess
	AuditLoginFailure      = audit.TypeLoginFailure
	AuditLoginLocked       = audit.TypeLoginLocked
	AuditRegisterSuccess   = audit.TypeRegisterSuccess
	AuditRegisterDuplicate = audit.TypeRegisterDuplicate
	AuditTokenRefresh      = audit.TypeTokenRefresh
	AuditTokenRefreshReuse = audit.TypeTokenRefreshReuse
	AuditTokenBlacklist    = audit.TypeTokenBlacklist
	AuditLogout            = audit.TypeLogout
	AuditResetRequest      = audit.TypeResetRequest
	AuditResetConfirm      = audit.TypeResetConfirm
	AuditPasswordChange    = audit.TypePasswordChange
	AuditVerifyRequest     = audit.TypeVerifyRequest
	AuditVerifyConfirm     = audit.TypeVerifyConfirm
)

// NewAuditChannelSink returns a sink that buffers events on a channel for
// the host application to drain.
func NewAuditChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewAuditJSONWriterSink returns a sink that writes one JSON object per
// line to w.
func NewAuditJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
