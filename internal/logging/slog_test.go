package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestScopedLoggers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "booking.schedule") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithProvider(logger, "webex") == nil {
		t.Error("WithProvider returned nil")
	}
	if WithTool(logger, "book_meeting") == nil {
		t.Error("WithTool returned nil")
	}
	if WithRequestID(logger, "") != logger {
		t.Error("WithRequestID with empty id should return the same logger")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("interpret"), KeyOperation, "interpret"},
		{"provider", Provider("google_calendar"), KeyProvider, "google_calendar"},
		{"status", Status(StatusSuccess), KeyStatus, StatusSuccess},
		{"domain", Domain("Jane@Example.com"), "user_domain", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("calendar down"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "calendar down" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "calendar down")
	}

	if attr := Err(nil); attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty group", attr.Key)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	h1 := AnonymizeEmail("bob@x.com")
	if len(h1) != 21 || h1[:5] != "user:" {
		t.Errorf("AnonymizeEmail(bob@x.com) = %q, want user:<16 hex>", h1)
	}
	if h2 := AnonymizeEmail(" BOB@x.com "); h1 != h2 {
		t.Errorf("hash should ignore case and surrounding space: %q != %q", h1, h2)
	}
	if h3 := AnonymizeEmail("alice@x.com"); h1 == h3 {
		t.Error("different emails should produce different hashes")
	}
}

func TestUserHashAndInvitees(t *testing.T) {
	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash || len(attr.Value.String()) != 21 {
		t.Errorf("UserHash = %v", attr)
	}

	inv := Invitees([]string{"a@x.com", "b@x.com"})
	if inv.Key != KeyInvitees {
		t.Errorf("Invitees key = %q, want %q", inv.Key, KeyInvitees)
	}
	hashed, ok := inv.Value.Any().([]string)
	if !ok || len(hashed) != 2 {
		t.Fatalf("Invitees value = %#v", inv.Value.Any())
	}
	if hashed[0] != AnonymizeEmail("a@x.com") {
		t.Errorf("Invitees[0] = %q", hashed[0])
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[token:6 chars]"},
		{"a_very_long_token_string", "[token:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.expected {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"invalid", ""},
		{"", ""},
		{"user@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate long = %q", got)
	}
	if got := Truncate("hello", 0); got != "hello" {
		t.Errorf("Truncate zero limit = %q", got)
	}
}
