package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/donna/internal/google"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// DefaultTimeZone is used for events when no time zone is configured.
const DefaultTimeZone = "Europe/London"

// Options configures a Client.
type Options struct {
	// CalendarID defaults to PrimaryCalendar.
	CalendarID string
	// TimeZone is the IANA zone written on created events.
	TimeZone string
	// Endpoint overrides the Calendar API base URL.
	Endpoint string
	Logger   *slog.Logger
}

// Client wraps the Google Calendar service
type Client struct {
	svc        *calendar.Service
	calendarID string
	timeZone   string
	logger     *slog.Logger
}

// NewClient creates a Calendar client on top of an authorized HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts Options) (*Client, error) {
	svc, err := calendar.NewService(ctx, google.ClientOptions(httpClient, opts.Endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	if opts.CalendarID == "" {
		opts.CalendarID = PrimaryCalendar
	}
	if opts.TimeZone == "" {
		opts.TimeZone = DefaultTimeZone
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		svc:        svc,
		calendarID: opts.CalendarID,
		timeZone:   opts.TimeZone,
		logger:     logging.WithProvider(logger, ProviderName),
	}, nil
}

// Name identifies the client in booking results.
func (c *Client) Name() meeting.Provider {
	return ProviderName
}

// CalendarID returns the calendar events are written to.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// CreateEvent creates a new calendar event and notifies its attendees.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	if input.TimeZone == "" {
		input.TimeZone = c.timeZone
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}
	if id, err := uuid.Parse(input.RequestID); err == nil {
		// Event IDs must be base32hex; a hyphen-free lowercase UUID qualifies.
		event.Id = strings.ReplaceAll(id.String(), "-", "")
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{
			Email: email,
		})
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).
		SendUpdates(SendUpdatesAll).
		Context(ctx).
		Do()
	if err != nil {
		return nil, google.ProviderError(ProviderName, fmt.Errorf("failed to create event: %w", err))
	}

	c.logger.DebugContext(ctx, "calendar event created",
		slog.String("event_id", created.Id),
		logging.Invitees(input.Attendees))

	summary := toEventSummary(created)
	return &summary, nil
}

// AddMeeting records m in the calendar with the join details of conf.
func (c *Client) AddMeeting(ctx context.Context, m meeting.Meeting, conf meeting.Conference, requestID string) (meeting.CalendarEntry, error) {
	summary, err := c.CreateEvent(ctx, EventInput{
		Summary:     m.Title,
		Description: Description(conf),
		Location:    conf.JoinURL,
		Start:       m.Start,
		End:         m.End,
		Attendees:   m.Invitees,
		RequestID:   requestID,
	})
	if err != nil {
		return meeting.CalendarEntry{}, err
	}
	return meeting.CalendarEntry{ID: summary.ID, Link: summary.HTMLLink}, nil
}

// Description renders the join instructions placed in the event body.
func Description(conf meeting.Conference) string {
	var b strings.Builder
	b.WriteString("Join the online meeting using the details below:\n\n")
	if conf.JoinURL != "" {
		fmt.Fprintf(&b, "Meeting Link: %s\n", conf.JoinURL)
	}
	if conf.Number != "" {
		fmt.Fprintf(&b, "Meeting Number: %s\n", conf.Number)
	}
	if conf.SIP != "" {
		fmt.Fprintf(&b, "Dial: %s\n", conf.SIP)
	}
	if conf.Password != "" {
		fmt.Fprintf(&b, "Password: %s\n", conf.Password)
	}
	return strings.TrimRight(b.String(), "\n")
}

func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:       event.Id,
		Summary:  event.Summary,
		Location: event.Location,
		Status:   event.Status,
		HTMLLink: event.HtmlLink,
	}

	if event.Start != nil && event.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
			summary.Start = t
		}
	}
	if event.End != nil && event.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
			summary.End = t
		}
	}
	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}
	for _, a := range event.Attendees {
		summary.Attendees = append(summary.Attendees, a.Email)
	}

	return summary
}
