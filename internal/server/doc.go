// Package server exposes the booking service over HTTP.
//
// The API router serves:
//
//	POST /book_meeting           {"text": "..."}; optional Idempotency-Key header
//	GET  /auth/{provider}        redirect to the webex or google consent page
//	GET  /auth/{provider}/callback
//	GET  /healthz, /readyz, /healthz/detailed
//	     /mcp                    MCP streamable HTTP endpoint, when enabled
//
// Booked and partially booked meetings answer 200 with the result document.
// Input and time errors answer 400, interpretation and provider failures 502
// and anything unexpected 500. Prometheus metrics are served by MetricsServer
// on a separate port.
package server
