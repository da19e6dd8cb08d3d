// Package meeting holds the domain model shared by the interpreter, the
// booking orchestrator and the transports: drafts as produced from free text,
// validated meetings, booking results and the error taxonomy that drives
// status mapping.
package meeting
