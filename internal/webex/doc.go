// Package webex schedules meetings through the Webex REST API.
//
// The client is the primary provider of a booking: the meeting it creates
// supplies the join link, meeting number and dial-in address that the
// calendar event carries. Authorization comes from the credential store's
// HTTP client for the webex provider.
package webex
