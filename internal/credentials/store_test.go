package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenServer fakes an OAuth2 token endpoint and counts refresh grants.
type tokenServer struct {
	*httptest.Server
	refreshes atomic.Int32
	exchanges atomic.Int32
	delay     time.Duration
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			ts.refreshes.Add(1)
		case "authorization_code":
			ts.exchanges.Add(1)
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
		}
		time.Sleep(ts.delay)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "fresh-access",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "fresh-refresh",
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/webex/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   ts.URL + "/authorize",
			TokenURL:  ts.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func newTestStore(t *testing.T, ts *tokenServer) (*Store, *FileBackend) {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	s := NewStore(backend, Options{})
	s.Register(ProviderWebex, ts.config())
	return s, backend
}

func TestStore_TokenValidIsNotRefreshed(t *testing.T) {
	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ProviderWebex, &oauth2.Token{
		AccessToken:  "current",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(time.Hour),
	}))

	tok, err := s.Token(ctx, ProviderWebex)
	require.NoError(t, err)
	assert.Equal(t, "current", tok.AccessToken)
	assert.Zero(t, ts.refreshes.Load())
}

func TestStore_TokenExpiringIsRefreshedAndPersisted(t *testing.T) {
	ts := newTokenServer(t)
	s, backend := newTestStore(t, ts)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ProviderWebex, &oauth2.Token{
		AccessToken:  "old",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(time.Minute), // inside the 5m threshold
	}))

	tok, err := s.Token(ctx, ProviderWebex)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", tok.AccessToken)
	assert.Equal(t, int32(1), ts.refreshes.Load())

	// A new process sees the refreshed token.
	reloaded, err := NewStore(backend, Options{}).Load(ctx, ProviderWebex)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", reloaded.AccessToken)
	assert.Equal(t, "fresh-refresh", reloaded.RefreshToken)
}

func TestStore_ConcurrentRefreshHitsEndpointOnce(t *testing.T) {
	ts := newTokenServer(t)
	ts.delay = 50 * time.Millisecond
	s, _ := newTestStore(t, ts)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ProviderWebex, &oauth2.Token{
		AccessToken:  "old",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(-time.Minute),
	}))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := s.Token(ctx, ProviderWebex)
			assert.NoError(t, err)
			if tok != nil {
				assert.Equal(t, "fresh-access", tok.AccessToken)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ts.refreshes.Load())
}

func TestStore_ForcedRefresh(t *testing.T) {
	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ProviderWebex, &oauth2.Token{
		AccessToken:  "still-valid",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(time.Hour),
	}))

	tok, err := s.Refresh(ctx, ProviderWebex)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", tok.AccessToken)
	assert.Equal(t, int32(1), ts.refreshes.Load())
}

func TestStore_ExpiredWithoutRefreshToken(t *testing.T) {
	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ProviderWebex, &oauth2.Token{
		AccessToken: "old",
		Expiry:      time.Now().Add(-time.Minute),
	}))

	_, err := s.Token(ctx, ProviderWebex)
	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Zero(t, ts.refreshes.Load())
}

func TestStore_NotAuthorized(t *testing.T) {
	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)

	_, err := s.Token(context.Background(), ProviderWebex)
	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.False(t, s.HasToken(context.Background(), ProviderWebex))
}

func TestStore_Exchange(t *testing.T) {
	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)
	ctx := context.Background()

	_, err := s.Exchange(ctx, ProviderWebex, "bad-code")
	require.Error(t, err)
	assert.False(t, s.HasToken(ctx, ProviderWebex))

	tok, err := s.Exchange(ctx, ProviderWebex, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", tok.AccessToken)
	assert.True(t, s.HasToken(ctx, ProviderWebex))
	assert.Equal(t, int32(2), ts.exchanges.Load())
}

func TestStore_UnregisteredProvider(t *testing.T) {
	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)

	_, err := s.AuthCodeURL(ProviderGoogle, "state")
	require.Error(t, err)
	_, err = s.Exchange(context.Background(), ProviderGoogle, "code")
	require.Error(t, err)
}

func TestStore_AuthCodeURL(t *testing.T) {
	s := NewStore(NewMemoryBackend(), Options{})
	defer func() { _ = s.Close() }()

	s.Register(ProviderGoogle, ClientConfig{ClientID: "gid", ClientSecret: "gs", RedirectURL: "http://localhost/cb"}.OAuthConfig(ProviderGoogle))
	s.Register(ProviderWebex, ClientConfig{ClientID: "wid", ClientSecret: "ws"}.OAuthConfig(ProviderWebex))
	assert.Equal(t, []Provider{ProviderGoogle, ProviderWebex}, s.Providers())

	raw, err := s.AuthCodeURL(ProviderGoogle, "xyz")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "gid", u.Query().Get("client_id"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, "offline", u.Query().Get("access_type"))

	raw, err = s.AuthCodeURL(ProviderWebex, "abc")
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "webexapis.com", u.Host)
	assert.Contains(t, u.Query().Get("scope"), "meeting:schedules_write")
	assert.Empty(t, u.Query().Get("access_type"))
}

func TestStore_HTTPClientSetsBearer(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer current", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	ts := newTokenServer(t)
	s, _ := newTestStore(t, ts)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, ProviderWebex, &oauth2.Token{AccessToken: "current", TokenType: "Bearer"}))

	resp, err := s.HTTPClient(ctx, ProviderWebex).Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStore_SaveRejectsEmptyToken(t *testing.T) {
	s := NewStore(NewMemoryBackend(), Options{})
	defer func() { _ = s.Close() }()

	require.Error(t, s.Save(context.Background(), ProviderWebex, nil))
	require.Error(t, s.Save(context.Background(), ProviderWebex, &oauth2.Token{}))
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = b.Load(ctx, ProviderGoogle)
	require.ErrorIs(t, err, ErrNotAuthorized)

	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}
	require.NoError(t, b.Save(ctx, ProviderGoogle, want))

	info, err := os.Stat(b.path(ProviderGoogle))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := b.Load(ctx, ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))

	require.NoError(t, os.WriteFile(b.path(ProviderWebex), []byte("not json"), 0o600))
	_, err = b.Load(ctx, ProviderWebex)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAuthorized)
}

func TestMemoryBackend(t *testing.T) {
	b := NewMemoryBackend()
	defer func() { _ = b.Close() }()
	ctx := context.Background()

	_, err := b.Load(ctx, ProviderWebex)
	require.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, b.Save(ctx, ProviderWebex, &oauth2.Token{
		AccessToken:  "a",
		RefreshToken: "r",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))
	got, err := b.Load(ctx, ProviderWebex)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Webex ")
	require.NoError(t, err)
	assert.Equal(t, ProviderWebex, p)

	_, err = ParseProvider("zoom")
	require.Error(t, err)
}

func TestClientConfig(t *testing.T) {
	assert.False(t, ClientConfig{ClientID: "id"}.Configured())
	assert.True(t, ClientConfig{ClientID: "id", ClientSecret: "s"}.Configured())

	cfg := ClientConfig{ClientID: "id", Scopes: []string{"spark:all"}}.OAuthConfig(ProviderWebex)
	assert.Equal(t, []string{"spark:all"}, cfg.Scopes)
	assert.Equal(t, WebexEndpoint.TokenURL, cfg.Endpoint.TokenURL)

	cfg = ClientConfig{}.OAuthConfig(ProviderGoogle)
	assert.Equal(t, DefaultGoogleScopes, cfg.Scopes)
}
