// Package cmd implements the command-line interface for donna.
//
// This package provides the following commands:
//   - serve: Run the booking HTTP API, or the MCP server over stdio
//   - auth: Authorize a provider (webex or google) from the terminal
//   - book: Book a single meeting from the command line
//   - calendar-test: Create a test event to verify calendar credentials
//   - generate-docs: Generate markdown documentation for the MCP tools
//   - version: Display version information
package cmd
