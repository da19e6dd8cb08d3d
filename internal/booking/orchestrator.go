package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// DefaultProviderTimeout bounds each provider call.
const DefaultProviderTimeout = 30 * time.Second

// MeetingsProvider creates the online meeting. It is the primary provider:
// when it fails nothing else is attempted.
type MeetingsProvider interface {
	Name() meeting.Provider
	CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Conference, error)
}

// CalendarProvider records a booked meeting in a calendar. It is the
// secondary provider: its failure leaves the meeting booked.
type CalendarProvider interface {
	Name() meeting.Provider
	AddMeeting(ctx context.Context, m meeting.Meeting, conf meeting.Conference, requestID string) (meeting.CalendarEntry, error)
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	// Organizer and SecondaryAttendee are added to every meeting's invitees.
	Organizer         string
	SecondaryAttendee string
	// PrimaryTimeout and CalendarTimeout default to DefaultProviderTimeout.
	PrimaryTimeout  time.Duration
	CalendarTimeout time.Duration
	Logger          *slog.Logger
	Metrics         *instrumentation.Metrics
}

// Orchestrator books a validated meeting with the primary provider and then
// records it with the calendar provider.
type Orchestrator struct {
	primary  MeetingsProvider
	calendar CalendarProvider
	cfg      OrchestratorConfig
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(primary MeetingsProvider, calendar CalendarProvider, cfg OrchestratorConfig) *Orchestrator {
	if cfg.PrimaryTimeout <= 0 {
		cfg.PrimaryTimeout = DefaultProviderTimeout
	}
	if cfg.CalendarTimeout <= 0 {
		cfg.CalendarTimeout = DefaultProviderTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{
		primary:  primary,
		calendar: calendar,
		cfg:      cfg,
		logger:   logging.WithOperation(logger, "book"),
		metrics:  cfg.Metrics,
	}
}

// Book creates the meeting and its calendar entry. Provider calls are made
// one after the other, each under its own timeout. They run on a context
// detached from ctx's cancellation, so a caller that goes away does not leave
// a meeting without its calendar entry. requestID becomes the calendar event
// id; an empty one is replaced with a fresh UUID.
func (o *Orchestrator) Book(ctx context.Context, m meeting.Meeting, requestID string) meeting.Result {
	ctx = context.WithoutCancel(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	m.Invitees = meeting.NormalizeInvitees(m.Invitees, o.cfg.Organizer, o.cfg.SecondaryAttendee)

	conf, err := o.createMeeting(ctx, m)
	if err != nil {
		o.logger.WarnContext(ctx, "primary provider failed",
			logging.Provider(string(o.primary.Name())), logging.Err(err))
		result := meeting.Failed(o.primary.Name(), err)
		result.Meeting = &m
		return result
	}

	ref := &meeting.Reference{MeetingID: conf.ID, JoinURL: conf.JoinURL}

	entry, err := o.addToCalendar(ctx, m, conf, requestID)
	if err != nil {
		o.logger.WarnContext(ctx, "calendar provider failed, meeting stays booked",
			logging.Provider(string(o.calendar.Name())),
			slog.String(logging.KeyMeetingRef, conf.ID),
			logging.Err(err))
		return meeting.Result{
			Status:           meeting.StatusPartialFailure,
			MeetingReference: ref,
			Errors:           []meeting.ProviderFailure{meeting.FailureFrom(o.calendar.Name(), err)},
			Meeting:          &m,
		}
	}

	ref.CalendarEvent = entry.ID
	ref.CalendarLink = entry.Link
	o.logger.InfoContext(ctx, "meeting booked",
		slog.String(logging.KeyMeetingRef, conf.ID),
		logging.Invitees(m.Invitees))

	return meeting.Result{
		Status:           meeting.StatusBooked,
		MeetingReference: ref,
		Errors:           []meeting.ProviderFailure{},
		Meeting:          &m,
	}
}

func (o *Orchestrator) createMeeting(ctx context.Context, m meeting.Meeting) (meeting.Conference, error) {
	name := string(o.primary.Name())
	ctx, span := instrumentation.StartProviderSpan(ctx, name, instrumentation.OperationCreateMeeting,
		attribute.String(instrumentation.SpanAttrRole, string(meeting.RolePrimary)))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.PrimaryTimeout)
	defer cancel()

	started := time.Now()
	conf, err := o.primary.CreateMeeting(callCtx, m)
	err = withRole(o.primary.Name(), meeting.RolePrimary, err)
	o.record(ctx, span, name, instrumentation.OperationCreateMeeting, started, err)
	if err == nil {
		span.SetAttributes(attribute.String(instrumentation.SpanAttrResourceID, conf.ID))
	}
	return conf, err
}

func (o *Orchestrator) addToCalendar(ctx context.Context, m meeting.Meeting, conf meeting.Conference, requestID string) (meeting.CalendarEntry, error) {
	name := string(o.calendar.Name())
	ctx, span := instrumentation.StartProviderSpan(ctx, name, instrumentation.OperationCreateEvent,
		attribute.String(instrumentation.SpanAttrRole, string(meeting.RoleSecondary)))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CalendarTimeout)
	defer cancel()

	started := time.Now()
	entry, err := o.calendar.AddMeeting(callCtx, m, conf, requestID)
	err = withRole(o.calendar.Name(), meeting.RoleSecondary, err)
	o.record(ctx, span, name, instrumentation.OperationCreateEvent, started, err)
	return entry, err
}

func (o *Orchestrator) record(ctx context.Context, span trace.Span, provider, operation string, started time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	o.metrics.RecordProviderOperation(ctx, provider, operation, status, time.Since(started))
}

// withRole makes sure err is a ProviderError tagged with provider and role.
func withRole(provider meeting.Provider, role meeting.Role, err error) error {
	if err == nil {
		return nil
	}
	var perr *meeting.ProviderError
	if errors.As(err, &perr) {
		if perr.Provider == "" {
			perr.Provider = provider
		}
		perr.Role = role
		return err
	}
	return &meeting.ProviderError{Provider: provider, Role: role, Err: err}
}
