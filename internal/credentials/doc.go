// Package credentials keeps the OAuth2 tokens donna uses to call its
// downstream providers (Webex and Google).
//
// A single Store serves every provider. It is created at startup, loads
// tokens lazily from a Backend (JSON files by default, so authorization
// survives restarts), refreshes them shortly before expiry and persists the
// result. Refreshes for the same provider are deduplicated with
// golang.org/x/sync/singleflight.
//
// Tokens are obtained through the authorization code flow: AuthCodeURL
// produces the consent URL and Exchange stores the token for the returned
// code.
package credentials
