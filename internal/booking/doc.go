// Package booking drives a meeting request from free text to a booked meeting.
//
// Service.Schedule interprets the text, validates the resulting draft and hands
// the meeting to the Orchestrator. The Orchestrator calls the primary
// MeetingsProvider and, only when that succeeds, the CalendarProvider. The
// outcome is always a meeting.Result:
//
//   - booked: both providers succeeded
//   - partial_failure: the meeting exists but the calendar entry failed
//   - failed: nothing was created; Errors names the stage that stopped it
//
// No call is retried. Each provider call runs under its own timeout.
package booking
