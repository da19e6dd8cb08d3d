// Package logging provides structured logging helpers for donna.
//
// Everything logs through log/slog. This package only standardizes attribute
// names and keeps personal data out of log lines:
//
//	logger := logging.WithProvider(slog.Default(), "webex")
//	logger.Info("meeting created",
//	    logging.Invitees(m.Invitees),
//	    logging.Status(logging.StatusSuccess))
//
// Invitee addresses are hashed (AnonymizeEmail) so entries can be correlated
// without exposing the address. Tokens are reduced to their length
// (SanitizeToken) and never logged.
package logging
