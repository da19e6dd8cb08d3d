package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/logging"
)

// stateTTL is how long an authorization attempt may take.
const stateTTL = 10 * time.Minute

// stateStore remembers the OAuth state values handed out by /auth/{provider}.
// Each state is valid once, for the provider it was issued for.
type stateStore struct {
	mu     sync.Mutex
	states map[string]issuedState
	now    func() time.Time
}

type issuedState struct {
	provider credentials.Provider
	expires  time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]issuedState), now: time.Now}
}

func (s *stateStore) issue(provider credentials.Provider) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, st := range s.states {
		if now.After(st.expires) {
			delete(s.states, k)
		}
	}

	state := uuid.NewString()
	s.states[state] = issuedState{provider: provider, expires: now.Add(stateTTL)}
	return state
}

func (s *stateStore) consume(state string, provider credentials.Provider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return st.provider == provider && !s.now().After(st.expires)
}

func (a *api) provider(w http.ResponseWriter, r *http.Request) (credentials.Provider, Authorizer, bool) {
	auth := a.sc.Authorizer()
	if auth == nil {
		writeError(w, http.StatusServiceUnavailable, errNoAuthorizer.Error())
		return "", nil, false
	}
	provider, err := credentials.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", nil, false
	}
	return provider, auth, true
}

// authorize redirects the browser to the provider's consent page.
func (a *api) authorize(w http.ResponseWriter, r *http.Request) {
	provider, auth, ok := a.provider(w, r)
	if !ok {
		return
	}

	state := a.states.issue(provider)
	url, err := auth.AuthCodeURL(provider, state)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// callback completes the flow and stores the token.
func (a *api) callback(w http.ResponseWriter, r *http.Request) {
	provider, auth, ok := a.provider(w, r)
	if !ok {
		return
	}
	logger := logging.WithProvider(a.logger, string(provider))
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		logger.Warn("authorization denied", slog.String("error", e))
		writeError(w, http.StatusBadRequest, "authorization denied: "+e)
		return
	}
	if !a.states.consume(q.Get("state"), provider) {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	if _, err := auth.Exchange(r.Context(), provider, code); err != nil {
		logger.Error("authorization code exchange failed", logging.Err(err))
		writeError(w, http.StatusBadGateway, "failed to exchange authorization code")
		return
	}

	logger.Info("provider authorized")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "authorized",
		"provider": string(provider),
	})
}
