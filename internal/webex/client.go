package webex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/meeting"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL string
	// HostEmail is the account the meeting is scheduled for. Webex rejects the
	// host as an invitee, so it is removed from the invitee list.
	HostEmail string
	// Location is the zone start and end are expressed in.
	Location *time.Location
	// SendEmail makes Webex mail invitations itself.
	SendEmail bool
	Logger    *slog.Logger
}

// Client talks to the Webex meetings API with an authorized HTTP client.
type Client struct {
	http      *http.Client
	baseURL   string
	hostEmail string
	loc       *time.Location
	sendEmail bool
	logger    *slog.Logger
}

// NewClient creates a Webex client. httpClient must attach the bearer token.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	traced := *httpClient
	base := traced.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	traced.Transport = otelhttp.NewTransport(base)

	return &Client{
		http:      &traced,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		hostEmail: strings.ToLower(strings.TrimSpace(opts.HostEmail)),
		loc:       opts.Location,
		sendEmail: opts.SendEmail,
		logger:    logging.WithProvider(logger, ProviderName),
	}
}

// Name identifies the client in booking results.
func (c *Client) Name() meeting.Provider {
	return ProviderName
}

// CreateMeeting schedules m on Webex.
func (c *Client) CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Conference, error) {
	input := MeetingInput{
		Title:     m.Title,
		Start:     m.Start.In(c.loc).Format(time.RFC3339),
		End:       m.End.In(c.loc).Format(time.RFC3339),
		Timezone:  c.loc.String(),
		SendEmail: c.sendEmail,
	}
	for _, email := range m.Invitees {
		if strings.EqualFold(email, c.hostEmail) {
			continue
		}
		input.Invitees = append(input.Invitees, Invitee{Email: email})
	}

	created, err := c.Schedule(ctx, input)
	if err != nil {
		return meeting.Conference{}, err
	}

	return meeting.Conference{
		ID:       created.ID,
		JoinURL:  created.WebLink,
		Number:   created.MeetingNumber,
		Password: created.Password,
		SIP:      created.SIPAddress,
	}, nil
}

// Schedule posts input to the meetings endpoint.
func (c *Client) Schedule(ctx context.Context, input MeetingInput) (*Meeting, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode meeting: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp)
	}

	var created Meeting
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &meeting.ProviderError{
			Provider: ProviderName,
			Code:     strconv.Itoa(resp.StatusCode),
			Message:  "undecodable response",
			Err:      err,
		}
	}

	c.logger.DebugContext(ctx, "webex meeting scheduled",
		slog.String(logging.KeyMeetingRef, created.ID),
		slog.Int("invitee_count", len(input.Invitees)))

	return &created, nil
}

func transportError(err error) error {
	perr := &meeting.ProviderError{Provider: ProviderName, Err: err}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		perr.Code = "timeout"
		perr.Message = "request timed out"
	case errors.Is(err, context.Canceled):
		perr.Code = "canceled"
		perr.Message = "request canceled"
	}
	return perr
}

func responseError(resp *http.Response) error {
	perr := &meeting.ProviderError{
		Provider: ProviderName,
		Code:     strconv.Itoa(resp.StatusCode),
		Message:  http.StatusText(resp.StatusCode),
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body apiError
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case len(body.Errors) > 0 && body.Errors[0].Description != "":
			perr.Message = body.Errors[0].Description
		case body.Message != "":
			perr.Message = body.Message
		}
		if body.TrackingID != "" {
			perr.Message += " (tracking id " + body.TrackingID + ")"
		}
	}
	return perr
}
