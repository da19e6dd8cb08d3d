// Package google holds the plumbing shared by the Google API clients.
//
// The Calendar and Meet clients are built on the generated google.golang.org/api
// services. This package turns an authorized *http.Client into the service
// options they need and converts googleapi errors into meeting.ProviderError
// values so the booking layer can report provider status codes.
package google
