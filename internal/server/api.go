package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/donna/internal/booking"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// IdempotencyKeyHeader lets clients retry a booking safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxBodyBytes bounds the booking request body.
const maxBodyBytes = 64 << 10

// providerServer tags failures that happen in the server itself.
const providerServer meeting.Provider = "server"

// APIConfig configures the HTTP API router.
type APIConfig struct {
	ServerContext *ServerContext
	Health        *HealthChecker
	// MCPHandler, when set, is mounted at /mcp.
	MCPHandler http.Handler
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics
}

// NewRouter builds the HTTP API.
func NewRouter(cfg APIConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	api := &api{
		sc:     cfg.ServerContext,
		logger: logger,
		states: newStateStore(),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(instrument(logger, cfg.Metrics))
	r.Use(middleware.Recoverer)

	r.Post("/book_meeting", api.bookMeeting)
	r.Get("/auth/{provider}", api.authorize)
	r.Get("/auth/{provider}/callback", api.callback)

	if cfg.Health != nil {
		cfg.Health.RegisterHealthEndpoints(r)
	}
	if cfg.MCPHandler != nil {
		r.Handle("/mcp", cfg.MCPHandler)
	}

	return otelhttp.NewHandler(r, "donna.http")
}

type api struct {
	sc     *ServerContext
	logger *slog.Logger
	states *stateStore
}

type bookRequest struct {
	Text string `json:"text"`
}

type bookResponse struct {
	meeting.Result
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (a *api) bookMeeting(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	logger := logging.WithRequestID(a.logger, reqID)

	var body bookRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		result := meeting.Failed(meeting.ProviderInput, &meeting.InputError{Reason: "request body must be a JSON object with a text field"})
		a.respond(w, reqID, result, nil)
		return
	}

	result, err := a.sc.Scheduler().Schedule(r.Context(), booking.Request{
		Text:           body.Text,
		IdempotencyKey: r.Header.Get(IdempotencyKeyHeader),
		RequestID:      reqID,
		Source:         "http",
	})
	if err != nil {
		logger.Error("booking request failed", logging.Err(err))
		result = meeting.Failed(providerServer, err)
	}
	a.respond(w, reqID, result, err)
}

func (a *api) respond(w http.ResponseWriter, reqID string, result meeting.Result, err error) {
	if result.Errors == nil {
		result.Errors = []meeting.ProviderFailure{}
	}
	writeJSON(w, statusFor(result, err), bookResponse{
		Result:    result,
		Message:   messageFor(result),
		RequestID: reqID,
	})
}

// statusFor maps a booking outcome to an HTTP status. A booked meeting is a
// success even when the calendar entry failed.
func statusFor(result meeting.Result, err error) int {
	if err != nil {
		return http.StatusInternalServerError
	}
	switch result.Status {
	case meeting.StatusBooked, meeting.StatusPartialFailure:
		return http.StatusOK
	}
	if len(result.Errors) == 0 {
		return http.StatusInternalServerError
	}
	switch result.Errors[0].Kind {
	case meeting.KindInput, meeting.KindTime:
		return http.StatusBadRequest
	case meeting.KindInterpretation, meeting.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(result meeting.Result) string {
	switch result.Status {
	case meeting.StatusBooked:
		return "Meeting booked and added to the calendar."
	case meeting.StatusPartialFailure:
		return "Meeting booked, but it could not be added to the calendar."
	default:
		return "Meeting could not be booked."
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var errNoAuthorizer = errors.New("credential store is not available")
