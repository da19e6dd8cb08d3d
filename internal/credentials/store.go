package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
)

// DefaultRefreshThreshold refreshes tokens this long before they expire.
const DefaultRefreshThreshold = 5 * time.Minute

// Options configures a Store.
type Options struct {
	// RefreshThreshold is how early a token is refreshed before expiry.
	RefreshThreshold time.Duration
	// HTTPClient is used for token endpoint calls. Nil uses http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *instrumentation.Metrics
}

// Store is the process-wide credential store. It loads, saves and refreshes
// OAuth2 tokens per provider. Refreshes for one provider are collapsed into a
// single in-flight request, so concurrent callers never race on the stored
// token.
type Store struct {
	backend    Backend
	threshold  time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	refresh singleflight.Group

	mu      sync.RWMutex
	configs map[Provider]*oauth2.Config
	cache   map[Provider]*oauth2.Token
}

// NewStore creates a store on top of backend.
func NewStore(backend Backend, opts Options) *Store {
	if opts.RefreshThreshold <= 0 {
		opts.RefreshThreshold = DefaultRefreshThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		backend:    backend,
		threshold:  opts.RefreshThreshold,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger.With(slog.String("component", "credentials")),
		metrics:    opts.Metrics,
		configs:    make(map[Provider]*oauth2.Config),
		cache:      make(map[Provider]*oauth2.Token),
	}
}

// Register sets the OAuth2 client configuration for provider.
func (s *Store) Register(provider Provider, cfg *oauth2.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[provider] = cfg
}

// Providers lists registered providers in name order.
func (s *Store) Providers() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Provider, 0, len(s.configs))
	for p := range s.configs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) config(provider Provider) (*oauth2.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", provider)
	}
	return cfg, nil
}

// oauthContext carries the store's HTTP client into oauth2 calls.
func (s *Store) oauthContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Load returns the current token for provider without refreshing it.
func (s *Store) Load(ctx context.Context, provider Provider) (*oauth2.Token, error) {
	s.mu.RLock()
	tok, ok := s.cache[provider]
	s.mu.RUnlock()
	if ok {
		return tok, nil
	}

	tok, err := s.backend.Load(ctx, provider)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[provider] = tok
	s.mu.Unlock()
	return tok, nil
}

// Save persists token for provider and makes it current.
func (s *Store) Save(ctx context.Context, provider Provider, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("refusing to save an empty token")
	}
	if err := s.backend.Save(ctx, provider, token); err != nil {
		return fmt.Errorf("failed to persist %s token: %w", provider, err)
	}
	s.mu.Lock()
	s.cache[provider] = token
	s.mu.Unlock()
	return nil
}

// HasToken reports whether a token is stored for provider.
func (s *Store) HasToken(ctx context.Context, provider Provider) bool {
	_, err := s.Load(ctx, provider)
	return err == nil
}

// Token returns a usable token for provider, refreshing it first when it
// expires within the refresh threshold.
func (s *Store) Token(ctx context.Context, provider Provider) (*oauth2.Token, error) {
	tok, err := s.Load(ctx, provider)
	if err != nil {
		return nil, err
	}
	if !isTokenExpired(tok, s.threshold) {
		return tok, nil
	}
	return s.doRefresh(ctx, provider, false)
}

// Refresh forces a token refresh for provider.
func (s *Store) Refresh(ctx context.Context, provider Provider) (*oauth2.Token, error) {
	return s.doRefresh(ctx, provider, true)
}

func (s *Store) doRefresh(ctx context.Context, provider Provider, force bool) (*oauth2.Token, error) {
	v, err, shared := s.refresh.Do(string(provider), func() (any, error) {
		// A refresh that finished just before this one may already have
		// stored a fresh token.
		tok, err := s.Load(ctx, provider)
		if err != nil {
			return nil, err
		}
		if !force && !isTokenExpired(tok, s.threshold) {
			return tok, nil
		}
		return s.refreshToken(ctx, provider, tok)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("joined in-flight token refresh", logging.Provider(string(provider)))
	}
	return v.(*oauth2.Token), nil
}

func (s *Store) refreshToken(ctx context.Context, provider Provider, tok *oauth2.Token) (*oauth2.Token, error) {
	logger := logging.WithProvider(s.logger, string(provider))

	cfg, err := s.config(provider)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		s.metrics.RecordOAuthTokenRefresh(ctx, string(provider), instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("%w: %s token expired and has no refresh token", ErrNotAuthorized, provider)
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, string(provider), instrumentation.OperationRefresh)
	defer span.End()

	// Clearing the access token makes the token source treat it as invalid
	// and hit the token endpoint even if the expiry is still in the future.
	stale := *tok
	stale.AccessToken = ""
	fresh, err := cfg.TokenSource(s.oauthContext(ctx), &stale).Token()
	if err != nil {
		s.metrics.RecordOAuthTokenRefresh(ctx, string(provider), instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		logger.Warn("token refresh failed", logging.Err(err))
		return nil, fmt.Errorf("failed to refresh %s token: %w", provider, err)
	}

	if err := s.Save(ctx, provider, fresh); err != nil {
		// The fresh token is still good for this process.
		logger.Warn("failed to persist refreshed token", logging.Err(err))
		s.mu.Lock()
		s.cache[provider] = fresh
		s.mu.Unlock()
	}

	s.metrics.RecordOAuthTokenRefresh(ctx, string(provider), instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	logger.Info("token refreshed", slog.Time("expiry", fresh.Expiry))
	return fresh, nil
}

// isTokenExpired reports whether token expires within threshold.
// Tokens without an expiry never expire.
func isTokenExpired(token *oauth2.Token, threshold time.Duration) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(threshold).After(token.Expiry)
}

// AuthCodeURL returns the provider's consent page URL for state.
func (s *Store) AuthCodeURL(provider Provider, state string) (string, error) {
	cfg, err := s.config(provider)
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{}
	if provider == ProviderGoogle {
		// Google only returns a refresh token on offline, consented grants.
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

// Exchange trades an authorization code for a token and stores it.
func (s *Store) Exchange(ctx context.Context, provider Provider, code string) (*oauth2.Token, error) {
	cfg, err := s.config(provider)
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, string(provider), instrumentation.OperationExchange)
	defer span.End()

	tok, err := cfg.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		s.metrics.RecordOAuthAuth(ctx, string(provider), instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to exchange %s authorization code: %w", provider, err)
	}
	if err := s.Save(ctx, provider, tok); err != nil {
		s.metrics.RecordOAuthAuth(ctx, string(provider), instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	s.metrics.RecordOAuthAuth(ctx, string(provider), instrumentation.OAuthResultSuccess)
	instrumentation.SetSpanSuccess(span)
	logging.WithProvider(s.logger, string(provider)).Info("provider authorized",
		slog.String("access_token", logging.SanitizeToken(tok.AccessToken)),
		slog.Bool("has_refresh_token", tok.RefreshToken != ""),
	)
	return tok, nil
}

// TokenSource returns an oauth2.TokenSource backed by the store.
func (s *Store) TokenSource(ctx context.Context, provider Provider) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: s, provider: provider}
}

type storeTokenSource struct {
	ctx      context.Context
	store    *Store
	provider Provider
}

func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	return ts.store.Token(ts.ctx, ts.provider)
}

// HTTPClient returns a client that authenticates requests with the
// provider's current token. HTTP/2 is disabled; some provider front ends
// reset long-lived HTTP/2 connections.
func (s *Store) HTTPClient(ctx context.Context, provider Provider) *http.Client {
	base := http.DefaultTransport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		clone := t.Clone()
		clone.ForceAttemptHTTP2 = false
		base = clone
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: s.TokenSource(ctx, provider),
			Base:   base,
		},
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
