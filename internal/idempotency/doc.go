// Package idempotency replays booking results for repeated requests.
//
// Clients send an Idempotency-Key header (or the MCP idempotency_key argument)
// and a retried request with the same key returns the stored result instead of
// booking a second meeting. Keys are hashed before storage. Two backends exist:
// an in-process map for single-instance deployments and redis for replicas
// that share state.
package idempotency
