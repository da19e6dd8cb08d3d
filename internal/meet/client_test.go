package meet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	meet "google.golang.org/api/meet/v2"

	"github.com/teemow/donna/internal/meeting"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, defaults SpaceInput) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.Client(), Options{
		Defaults: defaults,
		Endpoint: srv.URL + "/",
	})
	require.NoError(t, err)
	return client
}

func TestCreateMeeting(t *testing.T) {
	var received meet.Space
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/spaces", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&meet.Space{
			Name:        "spaces/jQCFfuBOdN5z",
			MeetingUri:  "https://meet.google.com/abc-mnop-xyz",
			MeetingCode: "abc-mnop-xyz",
			Config:      received.Config,
		})
	}, SpaceInput{AccessType: AccessTypeTrusted, EnableRecording: true})

	start := time.Date(2025, 1, 21, 14, 0, 0, 0, time.UTC)
	conf, err := client.CreateMeeting(context.Background(), meeting.Meeting{
		Title: "Sync",
		Start: start,
		End:   start.Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, meeting.Conference{
		ID:      "spaces/jQCFfuBOdN5z",
		JoinURL: "https://meet.google.com/abc-mnop-xyz",
		Number:  "abc-mnop-xyz",
	}, conf)

	require.NotNil(t, received.Config)
	assert.Equal(t, AccessTypeTrusted, received.Config.AccessType)
	require.NotNil(t, received.Config.ArtifactConfig)
	assert.Equal(t, "ON", received.Config.ArtifactConfig.RecordingConfig.AutoRecordingGeneration)
	assert.Nil(t, received.Config.ArtifactConfig.TranscriptionConfig)
}

func TestCreateSpaceWithoutConfig(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var space meet.Space
		require.NoError(t, json.NewDecoder(r.Body).Decode(&space))
		assert.Nil(t, space.Config)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"spaces/a","meetingUri":"https://meet.google.com/a"}`))
	}, SpaceInput{})

	space, err := client.CreateSpace(context.Background(), SpaceInput{})
	require.NoError(t, err)
	assert.Equal(t, "spaces/a", space.Name)
	assert.Empty(t, space.AccessType)
}

func TestCreateMeetingProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Request had invalid authentication credentials."}}`))
	}, SpaceInput{})

	_, err := client.CreateMeeting(context.Background(), meeting.Meeting{})
	require.Error(t, err)

	var perr *meeting.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, meeting.Provider(ProviderName), perr.Provider)
	assert.Equal(t, "401", perr.Code)
}
