package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of issuance action being logged.
type AuditEvent string

const (
	AuditCSRGenerated  AuditEvent = "csr_generated"
	AuditCAGenerated   AuditEvent = "ca_generated"
	AuditCertSigned    AuditEvent = "cert_signed"
	AuditInspect       AuditEvent = "inspect"
	AuditRequestFailed AuditEvent = "request_failed"
	AuditAuthFailed    AuditEvent = "auth_failed"
)

// auditLogger wraps slog.Logger for structured audit logging. Private key
// material never appears in audit attributes, only subjects and serials.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry with a per-request ID.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("request_id", requestID(r.Context())),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}
