package interpret

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 30 * time.Second

// Completer is a text-completion backend.
type Completer interface {
	// Name identifies the backend in logs, metrics and error records.
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures an Interpreter.
type Config struct {
	// Location is the user's time zone, used for the prompt's reference date.
	Location *time.Location
	// Timeout bounds the completion call. Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Interpreter turns free-text requests into meeting drafts.
type Interpreter struct {
	completer Completer
	validate  *validator.Validate
	location  *time.Location
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// New returns an Interpreter backed by completer.
func New(completer Completer, cfg Config) *Interpreter {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Interpreter{
		completer: completer,
		validate:  newValidator(),
		location:  cfg.Location,
		timeout:   cfg.Timeout,
		logger:    logging.WithProvider(cfg.Logger, completer.Name()),
		metrics:   cfg.Metrics,
	}
}

// Name returns the backing completer's name.
func (i *Interpreter) Name() string {
	return i.completer.Name()
}

// Location returns the time zone used to read the model's answers.
func (i *Interpreter) Location() *time.Location {
	return i.location
}

// Interpret asks the completer to structure rawText relative to reference.
// Any completer failure, missing JSON or malformed draft is reported as a
// *meeting.InterpretationError. Times are not checked here; that is
// meeting.Validate's job.
func (i *Interpreter) Interpret(ctx context.Context, rawText string, reference time.Time) (meeting.Draft, error) {
	if strings.TrimSpace(rawText) == "" {
		return meeting.Draft{}, &meeting.InputError{Reason: "text is required"}
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, i.completer.Name(), instrumentation.OperationComplete)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	started := time.Now()
	answer, err := i.completer.Complete(callCtx, BuildPrompt(rawText, reference, i.location))
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	i.metrics.RecordProviderOperation(ctx, i.completer.Name(), instrumentation.OperationComplete, status, time.Since(started))

	if err != nil {
		i.logger.Warn("completion failed", logging.Err(err))
		i.metrics.RecordInterpretation(ctx, instrumentation.InterpretUpstream)
		instrumentation.SetSpanError(span, err)
		return meeting.Draft{}, &meeting.InterpretationError{Reason: "completion request failed", Err: err}
	}

	candidates := JSONObjects(answer)
	if len(candidates) == 0 {
		i.logger.Warn("completion contained no JSON object", slog.String("answer", logging.Truncate(answer, 200)))
		i.metrics.RecordInterpretation(ctx, instrumentation.InterpretNoJSON)
		ierr := &meeting.InterpretationError{Reason: "no JSON object in completion"}
		instrumentation.SetSpanError(span, ierr)
		return meeting.Draft{}, ierr
	}

	draft, err := firstDraft(i.validate, candidates)
	if err != nil {
		i.logger.Warn("completion did not match the draft shape", logging.Err(err))
		i.metrics.RecordInterpretation(ctx, instrumentation.InterpretInvalid)
		ierr := &meeting.InterpretationError{Reason: "malformed draft", Err: err}
		instrumentation.SetSpanError(span, ierr)
		return meeting.Draft{}, ierr
	}

	i.logger.Debug("request interpreted", logging.Invitees(draft.Invitees), slog.String("start", draft.Start))
	i.metrics.RecordInterpretation(ctx, instrumentation.InterpretOK)
	instrumentation.SetSpanSuccess(span)
	return draft, nil
}

// firstDraft decodes the first candidate that is a well-formed draft. When
// none is, the error of the first candidate is returned.
func firstDraft(v *validator.Validate, candidates []string) (meeting.Draft, error) {
	var firstErr error
	for _, raw := range candidates {
		draft, err := decodeDraft(v, raw)
		if err == nil {
			return draft, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return meeting.Draft{}, firstErr
}
