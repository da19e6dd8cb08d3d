package server

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/donna/internal/booking"
	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/meeting"
)

// Scheduler runs a booking request.
type Scheduler interface {
	Schedule(ctx context.Context, req booking.Request) (meeting.Result, error)
}

// Authorizer drives the OAuth authorization-code flow for a provider.
// *credentials.Store implements it.
type Authorizer interface {
	Providers() []credentials.Provider
	HasToken(ctx context.Context, provider credentials.Provider) bool
	AuthCodeURL(provider credentials.Provider, state string) (string, error)
	Exchange(ctx context.Context, provider credentials.Provider, code string) (*oauth2.Token, error)
}

// ServerContext holds the dependencies shared by the HTTP and MCP surfaces.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler Scheduler
	auth      Authorizer
	version   string
	mu        sync.RWMutex
	shutdown  bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, scheduler Scheduler, auth Authorizer, version string) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		scheduler: scheduler,
		auth:      auth,
		version:   version,
	}
}

// Context returns the server context. It is canceled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Scheduler returns the booking scheduler
func (sc *ServerContext) Scheduler() Scheduler {
	return sc.scheduler
}

// Authorizer returns the credential authorizer, which may be nil.
func (sc *ServerContext) Authorizer() Authorizer {
	return sc.auth
}

// Version returns the running build version
func (sc *ServerContext) Version() string {
	return sc.version
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
