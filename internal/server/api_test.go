package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/donna/internal/booking"
	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

type fakeScheduler struct {
	mu       sync.Mutex
	requests []booking.Request
	result   meeting.Result
	err      error
}

func (f *fakeScheduler) Schedule(ctx context.Context, req booking.Request) (meeting.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result, f.err
}

type fakeAuthorizer struct {
	tokens    map[credentials.Provider]bool
	exchanged []string
	failCode  string
}

func (f *fakeAuthorizer) Providers() []credentials.Provider {
	return []credentials.Provider{credentials.ProviderGoogle, credentials.ProviderWebex}
}

func (f *fakeAuthorizer) HasToken(_ context.Context, p credentials.Provider) bool {
	return f.tokens[p]
}

func (f *fakeAuthorizer) AuthCodeURL(p credentials.Provider, state string) (string, error) {
	if p == credentials.ProviderGoogle {
		return "", errors.New("provider google is not configured")
	}
	return "https://webexapis.com/v1/authorize?state=" + url.QueryEscape(state), nil
}

func (f *fakeAuthorizer) Exchange(_ context.Context, p credentials.Provider, code string) (*oauth2.Token, error) {
	if code == f.failCode {
		return nil, errors.New("invalid_grant")
	}
	f.exchanged = append(f.exchanged, string(p)+":"+code)
	return &oauth2.Token{AccessToken: "tok"}, nil
}

func newTestRouter(s Scheduler, a Authorizer) http.Handler {
	sc := NewServerContext(context.Background(), s, a, "test")
	return NewRouter(APIConfig{
		ServerContext: sc,
		Health:        NewHealthChecker(sc),
		Logger:        logging.Discard(),
	})
}

func postBooking(t *testing.T, h http.Handler, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/book_meeting", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	return rec, doc
}

func TestBookMeetingStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		result     meeting.Result
		err        error
		wantStatus int
		wantState  string
	}{
		{
			name: "booked",
			result: meeting.Result{
				Status:           meeting.StatusBooked,
				MeetingReference: &meeting.Reference{MeetingID: "m1", CalendarEvent: "e1"},
				Errors:           []meeting.ProviderFailure{},
			},
			wantStatus: http.StatusOK,
			wantState:  "booked",
		},
		{
			name: "partial failure",
			result: meeting.Result{
				Status:           meeting.StatusPartialFailure,
				MeetingReference: &meeting.Reference{MeetingID: "m1"},
				Errors:           []meeting.ProviderFailure{{Provider: "google_calendar", Kind: meeting.KindProvider, Detail: "403"}},
			},
			wantStatus: http.StatusOK,
			wantState:  "partial_failure",
		},
		{
			name:       "time error",
			result:     meeting.Failed(meeting.ProviderValidator, &meeting.TimeError{Reason: meeting.ReasonStartNotFuture}),
			wantStatus: http.StatusBadRequest,
			wantState:  "failed",
		},
		{
			name:       "input error",
			result:     meeting.Failed(meeting.ProviderInput, &meeting.InputError{Reason: "text is required"}),
			wantStatus: http.StatusBadRequest,
			wantState:  "failed",
		},
		{
			name:       "interpretation error",
			result:     meeting.Failed(meeting.ProviderInterpreter, &meeting.InterpretationError{Reason: "no JSON object in completion"}),
			wantStatus: http.StatusBadGateway,
			wantState:  "failed",
		},
		{
			name:       "primary provider error",
			result:     meeting.Failed("webex", &meeting.ProviderError{Provider: "webex", Role: meeting.RolePrimary, Code: "401"}),
			wantStatus: http.StatusBadGateway,
			wantState:  "failed",
		},
		{
			name:       "internal error",
			err:        errors.New("idempotency lookup failed"),
			wantStatus: http.StatusInternalServerError,
			wantState:  "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&fakeScheduler{result: tt.result, err: tt.err}, nil)

			rec, doc := postBooking(t, h, `{"text":"lunch tomorrow"}`, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantState, doc["status"])
			assert.Contains(t, doc, "meeting_reference")
			assert.NotNil(t, doc["errors"])
			assert.NotEmpty(t, doc["message"])
		})
	}
}

func TestBookMeetingPassesRequest(t *testing.T) {
	sched := &fakeScheduler{result: meeting.Result{Status: meeting.StatusBooked}}
	h := newTestRouter(sched, nil)

	rec, doc := postBooking(t, h, `{"text":"sync with bob@example.com tomorrow"}`, http.Header{
		IdempotencyKeyHeader: {"retry-1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, sched.requests, 1)
	got := sched.requests[0]
	assert.Equal(t, "sync with bob@example.com tomorrow", got.Text)
	assert.Equal(t, "retry-1", got.IdempotencyKey)
	assert.Equal(t, "http", got.Source)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, got.RequestID, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, got.RequestID, doc["request_id"])
}

func TestBookMeetingRequestIDPropagation(t *testing.T) {
	sched := &fakeScheduler{result: meeting.Result{Status: meeting.StatusBooked}}
	h := newTestRouter(sched, nil)

	const id = "3f2b8c1e-9d4a-4f6b-8e2a-1c5d7b9e0f12"
	rec, _ := postBooking(t, h, `{"text":"x"}`, http.Header{RequestIDHeader: {id}})
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	require.Len(t, sched.requests, 1)
	assert.Equal(t, id, sched.requests[0].RequestID)

	rec, _ = postBooking(t, h, `{"text":"x"}`, http.Header{RequestIDHeader: {"not-a-uuid"}})
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestBookMeetingMalformedBody(t *testing.T) {
	sched := &fakeScheduler{}
	h := newTestRouter(sched, nil)

	for _, body := range []string{"", "not json", `["text"]`} {
		rec, doc := postBooking(t, h, body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "failed", doc["status"])
		errs := doc["errors"].([]any)
		require.Len(t, errs, 1)
		assert.Equal(t, "input_error", errs[0].(map[string]any)["kind"])
	}
	assert.Empty(t, sched.requests)
}

func TestBookMeetingMethodNotAllowed(t *testing.T) {
	h := newTestRouter(&fakeScheduler{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/book_meeting", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	auth := &fakeAuthorizer{failCode: "bad"}
	h := newTestRouter(&fakeScheduler{}, auth)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/webex", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "webexapis.com", loc.Host)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	// A state issued for webex is not accepted for google.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The failed attempt consumed the state.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/webex/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, auth.exchanged)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/webex", nil))
	loc, _ = url.Parse(rec.Header().Get("Location"))
	state = loc.Query().Get("state")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/webex/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"webex:abc"}, auth.exchanged)
	assert.Contains(t, rec.Body.String(), `"authorized"`)
}

func TestAuthErrors(t *testing.T) {
	auth := &fakeAuthorizer{failCode: "bad"}
	h := newTestRouter(&fakeScheduler{}, auth)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusNotFound, get("/auth/zoom").Code)
	assert.Equal(t, http.StatusNotFound, get("/auth/google").Code)
	assert.Equal(t, http.StatusBadRequest, get("/auth/webex/callback?error=access_denied").Code)
	assert.Equal(t, http.StatusBadRequest, get("/auth/webex/callback?code=abc").Code)

	loc, _ := url.Parse(get("/auth/webex").Header().Get("Location"))
	state := loc.Query().Get("state")
	assert.Equal(t, http.StatusBadRequest, get("/auth/webex/callback?state="+state).Code)

	loc, _ = url.Parse(get("/auth/webex").Header().Get("Location"))
	state = loc.Query().Get("state")
	assert.Equal(t, http.StatusBadGateway, get("/auth/webex/callback?code=bad&state="+state).Code)

	noAuth := newTestRouter(&fakeScheduler{}, nil)
	rec := httptest.NewRecorder()
	noAuth.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/webex", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStateStoreExpiry(t *testing.T) {
	s := newStateStore()
	now := s.now()
	s.now = func() time.Time { return now }

	state := s.issue(credentials.ProviderWebex)
	s.now = func() time.Time { return now.Add(stateTTL + time.Second) }
	assert.False(t, s.consume(state, credentials.ProviderWebex))

	s.now = func() time.Time { return now }
	state = s.issue(credentials.ProviderGoogle)
	assert.True(t, s.consume(state, credentials.ProviderGoogle))
	assert.False(t, s.consume(state, credentials.ProviderGoogle))
}
