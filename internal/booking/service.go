package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/donna/internal/idempotency"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// Interpreter turns free text into a meeting draft.
type Interpreter interface {
	Interpret(ctx context.Context, rawText string, reference time.Time) (meeting.Draft, error)
}

// Booker books a validated meeting.
type Booker interface {
	Book(ctx context.Context, m meeting.Meeting, requestID string) meeting.Result
}

// Request is one scheduling request.
type Request struct {
	Text string
	// IdempotencyKey is optional. A repeated key replays the stored result.
	IdempotencyKey string
	RequestID      string
	// Source names the surface the request came in on, "http" or "mcp".
	Source string
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Location is the zone naive timestamps from the interpreter are read in.
	Location *time.Location
	// Idempotency is optional. Without it keys are ignored.
	Idempotency idempotency.Store
	// Now defaults to time.Now.
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// Service runs a request through interpretation, validation and booking.
type Service struct {
	interpreter Interpreter
	booker      Booker
	cfg         ServiceConfig
	logger      *slog.Logger
	inflight    singleflight.Group
}

// NewService creates a Service.
func NewService(interpreter Interpreter, booker Booker, cfg ServiceConfig) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		interpreter: interpreter,
		booker:      booker,
		cfg:         cfg,
		logger:      logging.WithOperation(logger, "schedule"),
	}
}

// Schedule interprets req.Text, validates the draft and books the meeting.
// Domain failures are reported in the Result; the error is only set when the
// idempotency store cannot be read.
func (s *Service) Schedule(ctx context.Context, req Request) (meeting.Result, error) {
	ctx, span := instrumentation.StartSpan(ctx, "booking.schedule",
		attribute.String("donna.source", req.Source))
	defer span.End()

	logger := logging.WithRequestID(s.logger, req.RequestID)

	if req.IdempotencyKey == "" || s.cfg.Idempotency == nil {
		result := s.schedule(ctx, logger, req)
		span.SetAttributes(attribute.String(instrumentation.SpanAttrStatus, string(result.Status)))
		return result, nil
	}

	if err := idempotency.ValidateKey(req.IdempotencyKey); err != nil {
		return meeting.Failed(meeting.ProviderInput, err), nil
	}

	if cached, ok, err := s.lookup(ctx, req.IdempotencyKey); err != nil {
		instrumentation.SetSpanError(span, err)
		return meeting.Result{}, err
	} else if ok {
		logger.InfoContext(ctx, "replaying stored result", logging.Status(string(cached.Status)))
		span.SetAttributes(attribute.Bool("donna.idempotent_replay", true))
		return cached, nil
	}

	// Concurrent requests with the same key share a single booking. It runs
	// detached from the first caller so the others do not inherit its
	// cancellation.
	v, err, _ := s.inflight.Do(req.IdempotencyKey, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		cached, ok, err := s.cfg.Idempotency.Get(shared, req.IdempotencyKey)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "idempotency re-check failed, booking anyway", logging.Err(err))
		case ok:
			return cached, nil
		}
		result := s.schedule(shared, logger, req)
		if createdSomething(result) {
			if err := s.cfg.Idempotency.Set(shared, req.IdempotencyKey, result); err != nil {
				logger.WarnContext(ctx, "failed to store idempotency record", logging.Err(err))
			}
		}
		return result, nil
	})
	if err != nil {
		return meeting.Result{}, err
	}
	result := v.(meeting.Result)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrStatus, string(result.Status)))
	return result, nil
}

func (s *Service) lookup(ctx context.Context, key string) (meeting.Result, bool, error) {
	cached, ok, err := s.cfg.Idempotency.Get(ctx, key)
	if err != nil {
		return meeting.Result{}, false, fmt.Errorf("idempotency lookup failed: %w", err)
	}
	if ok {
		s.cfg.Metrics.RecordIdempotencyLookup(ctx, instrumentation.IdempotencyHit)
	} else {
		s.cfg.Metrics.RecordIdempotencyLookup(ctx, instrumentation.IdempotencyMiss)
	}
	return cached, ok, nil
}

func (s *Service) schedule(ctx context.Context, logger *slog.Logger, req Request) meeting.Result {
	audit := instrumentation.NewBookingAudit(ctx, req.RequestID, req.Source)
	audit.IdempotencyKey = req.IdempotencyKey

	result := s.run(ctx, logger, req)

	if result.Meeting != nil {
		audit.Title = result.Meeting.Title
		audit.Start = result.Meeting.Start
		audit.Invitees = result.Meeting.Invitees
	}
	if result.MeetingReference != nil {
		audit.MeetingRef = result.MeetingReference.MeetingID
	}
	for _, f := range result.Errors {
		audit.Failures = append(audit.Failures, string(f.Provider)+": "+string(f.Kind))
	}
	s.cfg.Audit.LogBooking(audit.Complete(string(result.Status)))
	s.cfg.Metrics.RecordBooking(ctx, string(result.Status))

	return result
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, req Request) meeting.Result {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		return meeting.Failed(meeting.ProviderInput, &meeting.InputError{Reason: "text is required"})
	}

	now := s.cfg.Now()

	draft, err := s.interpreter.Interpret(ctx, text, now)
	if err != nil {
		logger.InfoContext(ctx, "request could not be interpreted", logging.Err(err))
		provider := meeting.ProviderInterpreter
		if meeting.KindOf(err) == meeting.KindInput {
			provider = meeting.ProviderInput
		}
		return meeting.Failed(provider, err)
	}

	m, err := meeting.ValidateIn(draft, now, s.cfg.Location)
	if err != nil {
		logger.InfoContext(ctx, "draft rejected", logging.Err(err))
		return meeting.Failed(meeting.ProviderValidator, err)
	}

	return s.booker.Book(ctx, m, req.RequestID)
}

// createdSomething reports whether a provider produced a side effect that a
// retry must not repeat.
func createdSomething(r meeting.Result) bool {
	return r.Status == meeting.StatusBooked || r.Status == meeting.StatusPartialFailure
}
