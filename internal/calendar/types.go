package calendar

import (
	"time"
)

// ProviderName tags calendar results and errors.
const ProviderName = "google_calendar"

// PrimaryCalendar is the calendar ID of the authorized user's main calendar.
const PrimaryCalendar = "primary"

// SendUpdatesAll asks Google to email every attendee about the new event.
const SendUpdatesAll = "all"

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string

	// RequestID, when it is a UUID, becomes the event id so the event can be
	// matched to the request that created it.
	RequestID string
}

// EventSummary represents a created calendar event
type EventSummary struct {
	ID        string
	Summary   string
	Location  string
	Start     time.Time
	End       time.Time
	Organizer string
	Status    string
	HTMLLink  string
	Attendees []string
}
