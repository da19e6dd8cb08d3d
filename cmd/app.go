package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/donna/internal/booking"
	"github.com/teemow/donna/internal/calendar"
	"github.com/teemow/donna/internal/config"
	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/idempotency"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/interpret"
	"github.com/teemow/donna/internal/meet"
	"github.com/teemow/donna/internal/webex"
)

// app holds the components every command builds from the same config.
type app struct {
	cfg      *config.Config
	location *time.Location
	logger   *slog.Logger
	instr    *instrumentation.Provider

	credentials *credentials.Store
	calendar    *calendar.Client
	primary     booking.MeetingsProvider
	interpreter *interpret.Interpreter
	idempotency idempotency.Store
	service     *booking.Service

	closers []func() error
}

// newCredentialStore opens the token backend and registers every provider
// that has a client registration.
func newCredentialStore(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*credentials.Store, error) {
	var backend credentials.Backend
	switch cfg.Credentials.Backend {
	case config.CredentialsMemory:
		backend = credentials.NewMemoryBackend()
	default:
		fb, err := credentials.NewFileBackend(cfg.Credentials.TokenDir)
		if err != nil {
			return nil, err
		}
		backend = fb
	}

	store := credentials.NewStore(backend, credentials.Options{
		HTTPClient: &http.Client{Timeout: cfg.ProviderTimeout},
		Logger:     logger,
		Metrics:    metrics,
	})
	if cfg.Webex.Configured() {
		store.Register(credentials.ProviderWebex, cfg.Webex.OAuthConfig(credentials.ProviderWebex))
	}
	if cfg.Google.Configured() {
		store.Register(credentials.ProviderGoogle, cfg.Google.OAuthConfig(credentials.ProviderGoogle))
	}
	return store, nil
}

func newCalendarClient(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*calendar.Client, error) {
	return calendar.NewClient(ctx, httpClient, calendar.Options{
		CalendarID: cfg.CalendarID,
		TimeZone:   cfg.TimeZone,
		Logger:     logger,
	})
}

func newCompleter(ctx context.Context, cfg config.LLMConfig) (interpret.Completer, func() error, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("llm.api_key is required for the %s interpreter", cfg.Provider)
	}
	switch cfg.Provider {
	case config.LLMGemini:
		c, err := interpret.NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return interpret.NewOpenAICompleter(cfg.APIKey, cfg.Model, cfg.BaseURL), func() error { return nil }, nil
	}
}

// newApp wires the booking pipeline from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, instr *instrumentation.Provider) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, location: loc, logger: logger, instr: instr}
	metrics := instr.Metrics()

	a.credentials, err = newCredentialStore(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.credentials.Close)

	if !cfg.Google.Configured() {
		_ = a.Close()
		return nil, errors.New("google.client_id and google.client_secret are required for the calendar")
	}
	googleHTTP := a.credentials.HTTPClient(ctx, credentials.ProviderGoogle)

	a.calendar, err = newCalendarClient(ctx, cfg, googleHTTP, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	switch cfg.MeetingsProvider {
	case config.MeetingsMeet:
		a.primary, err = meet.NewClient(ctx, googleHTTP, meet.Options{
			Defaults: meet.SpaceInput{AccessType: cfg.Meet.AccessType},
			Logger:   logger,
		})
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	default:
		if !cfg.Webex.Configured() {
			_ = a.Close()
			return nil, errors.New("webex.client_id and webex.client_secret are required for the webex meetings provider")
		}
		a.primary = webex.NewClient(a.credentials.HTTPClient(ctx, credentials.ProviderWebex), webex.Options{
			BaseURL:   cfg.Webex.BaseURL,
			HostEmail: cfg.Organizer,
			Location:  loc,
			SendEmail: cfg.Webex.SendEmail,
			Logger:    logger,
		})
	}

	completer, closeCompleter, err := newCompleter(ctx, cfg.LLM)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeCompleter)
	a.interpreter = interpret.New(completer, interpret.Config{
		Location: loc,
		Timeout:  cfg.LLM.Timeout,
		Logger:   logger,
		Metrics:  metrics,
	})

	a.idempotency, err = idempotency.Open(ctx, cfg.Idempotency)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.idempotency.Close)

	orchestrator := booking.NewOrchestrator(a.primary, a.calendar, booking.OrchestratorConfig{
		Organizer:         cfg.Organizer,
		SecondaryAttendee: cfg.SecondaryAttendee,
		PrimaryTimeout:    cfg.ProviderTimeout,
		CalendarTimeout:   cfg.ProviderTimeout,
		Logger:            logger,
		Metrics:           metrics,
	})

	a.service = booking.NewService(a.interpreter, orchestrator, booking.ServiceConfig{
		Location:    loc,
		Idempotency: a.idempotency,
		Logger:      logger,
		Metrics:     metrics,
		Audit:       instrumentation.NewAuditLogger(logger, instr.Config().AuditLogging),
	})
	return a, nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
