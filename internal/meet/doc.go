// Package meet provides a client for the Google Meet API v2.
//
// It creates meeting spaces and can serve as the primary provider of a
// booking when the deployment uses Google Meet instead of Webex. The calendar
// event then carries the space's join link.
package meet
