package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func auditTo(buf *bytes.Buffer, cfg AuditLoggingConfig) *AuditLogger {
	return NewAuditLogger(slog.New(slog.NewJSONHandler(buf, nil)), cfg)
}

func sampleAudit() *BookingAudit {
	a := NewBookingAudit(context.Background(), "req-1", "http")
	a.Title = "Sync"
	a.Start = time.Date(2025, 1, 21, 14, 0, 0, 0, time.UTC)
	a.Invitees = []string{"bob@x.com", "organizer@y.com"}
	a.MeetingRef = "m-123"
	return a
}

func TestAuditLogger_HashesInviteesByDefault(t *testing.T) {
	var buf bytes.Buffer
	auditTo(&buf, AuditLoggingConfig{Enabled: true}).LogBooking(sampleAudit().Complete("booked"))

	out := buf.String()
	if strings.Contains(out, "bob@x.com") {
		t.Errorf("invitee address leaked into audit log: %s", out)
	}
	if strings.Contains(out, `"title"`) {
		t.Errorf("title should only be logged with PII enabled: %s", out)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["msg"] != "booking_completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["status"] != "booked" || entry["request_id"] != "req-1" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	auditTo(&buf, AuditLoggingConfig{Enabled: true, IncludePII: true}).LogBooking(sampleAudit().Complete("booked"))

	if !strings.Contains(buf.String(), "bob@x.com") {
		t.Errorf("expected clear-text invitees with PII enabled: %s", buf.String())
	}
}

func TestAuditLogger_FailedIsWarn(t *testing.T) {
	var buf bytes.Buffer
	a := sampleAudit()
	a.Failures = []string{"validator: start not in future"}
	auditTo(&buf, AuditLoggingConfig{Enabled: true}).LogBooking(a.Complete("failed"))

	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), "booking_failed") {
		t.Errorf("expected a warn level booking_failed entry: %s", buf.String())
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	auditTo(&buf, AuditLoggingConfig{Enabled: false}).LogBooking(sampleAudit().Complete("booked"))
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %s", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.LogBooking(sampleAudit())
}
