package meet

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	meet "google.golang.org/api/meet/v2"

	"github.com/teemow/donna/internal/google"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// Options configures a Client.
type Options struct {
	// Defaults applies to every space created through CreateMeeting.
	Defaults SpaceInput
	// Endpoint overrides the Meet API base URL.
	Endpoint string
	Logger   *slog.Logger
}

// Client wraps the Google Meet service
type Client struct {
	svc      *meet.Service
	defaults SpaceInput
	logger   *slog.Logger
}

// NewClient creates a Meet client on top of an authorized HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts Options) (*Client, error) {
	svc, err := meet.NewService(ctx, google.ClientOptions(httpClient, opts.Endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Meet service: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		svc:      svc,
		defaults: opts.Defaults,
		logger:   logging.WithProvider(logger, ProviderName),
	}, nil
}

// Name identifies the client in booking results.
func (c *Client) Name() meeting.Provider {
	return ProviderName
}

// CreateSpace creates a new Google Meet space
func (c *Client) CreateSpace(ctx context.Context, input SpaceInput) (*Space, error) {
	space := &meet.Space{}

	if input.AccessType != "" || input.EnableRecording || input.EnableTranscription {
		config := &meet.SpaceConfig{AccessType: input.AccessType}
		if input.EnableRecording || input.EnableTranscription {
			artifacts := &meet.ArtifactConfig{}
			if input.EnableRecording {
				artifacts.RecordingConfig = &meet.RecordingConfig{AutoRecordingGeneration: "ON"}
			}
			if input.EnableTranscription {
				artifacts.TranscriptionConfig = &meet.TranscriptionConfig{AutoTranscriptionGeneration: "ON"}
			}
			config.ArtifactConfig = artifacts
		}
		space.Config = config
	}

	created, err := c.svc.Spaces.Create(space).Context(ctx).Do()
	if err != nil {
		return nil, google.ProviderError(ProviderName, fmt.Errorf("failed to create space: %w", err))
	}

	c.logger.DebugContext(ctx, "meet space created", slog.String("space", created.Name))
	return toSpace(created), nil
}

// CreateMeeting opens a space for m. Meet spaces are not scheduled, so only the
// join details are returned; attendees learn about the meeting from the calendar.
func (c *Client) CreateMeeting(ctx context.Context, _ meeting.Meeting) (meeting.Conference, error) {
	space, err := c.CreateSpace(ctx, c.defaults)
	if err != nil {
		return meeting.Conference{}, err
	}
	return meeting.Conference{
		ID:      space.Name,
		JoinURL: space.MeetingURI,
		Number:  space.MeetingCode,
	}, nil
}

func toSpace(s *meet.Space) *Space {
	if s == nil {
		return &Space{}
	}
	space := &Space{
		Name:        s.Name,
		MeetingURI:  s.MeetingUri,
		MeetingCode: s.MeetingCode,
	}
	if s.Config != nil {
		space.AccessType = s.Config.AccessType
	}
	return space
}
