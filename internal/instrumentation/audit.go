package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/donna/internal/logging"
)

// BookingAudit captures one scheduling request end to end for the audit log.
type BookingAudit struct {
	RequestID      string
	IdempotencyKey string
	Source         string // "http" or "mcp"
	Title          string
	Start          time.Time
	Invitees       []string
	Status         string
	MeetingRef     string
	Failures       []string

	StartTime time.Time
	Duration  time.Duration
	TraceID   string
}

// NewBookingAudit starts timing an audit record.
func NewBookingAudit(ctx context.Context, requestID, source string) *BookingAudit {
	return &BookingAudit{
		RequestID: requestID,
		Source:    source,
		StartTime: time.Now(),
		TraceID:   GetTraceID(ctx),
	}
}

// Complete stamps the duration and final status.
func (a *BookingAudit) Complete(status string) *BookingAudit {
	a.Duration = time.Since(a.StartTime)
	a.Status = status
	return a
}

func (a *BookingAudit) attrs(includePII bool) []any {
	invitees := logging.Invitees(a.Invitees)
	if includePII {
		invitees = slog.Any(logging.KeyInvitees, a.Invitees)
	}

	args := []any{
		slog.String("source", a.Source),
		slog.String(logging.KeyStatus, a.Status),
		slog.Duration(logging.KeyDuration, a.Duration),
		invitees,
		slog.Any("invitee_domains", InviteeDomains(a.Invitees)),
	}
	if a.RequestID != "" {
		args = append(args, slog.String(logging.KeyRequestID, a.RequestID))
	}
	if a.IdempotencyKey != "" {
		args = append(args, slog.String("idempotency_key", a.IdempotencyKey))
	}
	if includePII && a.Title != "" {
		args = append(args, slog.String("title", a.Title))
	}
	if !a.Start.IsZero() {
		args = append(args, slog.Time("start", a.Start))
	}
	if a.MeetingRef != "" {
		args = append(args, slog.String(logging.KeyMeetingRef, a.MeetingRef))
	}
	if len(a.Failures) > 0 {
		args = append(args, slog.Any("failures", a.Failures))
	}
	if a.TraceID != "" {
		args = append(args, slog.String("trace_id", a.TraceID))
	}
	return args
}

// AuditLogger writes booking audit records.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default().
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogBooking writes a. Failed bookings log at warn level.
func (al *AuditLogger) LogBooking(a *BookingAudit) {
	if al == nil || !al.enabled || a == nil {
		return
	}
	if a.Status == "failed" {
		al.logger.Warn("booking_failed", a.attrs(al.includePII)...)
		return
	}
	al.logger.Info("booking_completed", a.attrs(al.includePII)...)
}
