// Package booking_tools exposes meeting booking to MCP clients.
//
// Tools:
//   - book_meeting: book a meeting from a plain-language request
//   - credentials_status: report which providers are authorized
package booking_tools
