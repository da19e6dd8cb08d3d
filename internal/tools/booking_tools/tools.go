package booking_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/donna/internal/booking"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/meeting"
	"github.com/teemow/donna/internal/server"
	"github.com/teemow/donna/internal/tools/common"
)

// Tool names.
const (
	ToolBookMeeting       = "book_meeting"
	ToolCredentialsStatus = "credentials_status"
)

// Options configures the registered tools.
type Options struct {
	// PublicURL is where the /auth endpoints are reachable. It is shown to
	// the user when a provider still needs authorization.
	PublicURL string
	Metrics   *instrumentation.Metrics
	Logger    *slog.Logger
}

// RegisterBookingTools registers the booking tools with the MCP server.
func RegisterBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext, opts Options) error {
	if sc == nil || sc.Scheduler() == nil {
		return fmt.Errorf("booking tools need a scheduler")
	}

	bookTool := mcp.NewTool(ToolBookMeeting,
		mcp.WithDescription("Book an online meeting and add it to the calendar from a plain-language request, "+
			"e.g. 'Lunch with alice@example.com tomorrow at 2pm for 30 minutes'"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The meeting request in plain language, including invitee email addresses"),
		),
		mcp.WithString("idempotency_key",
			mcp.Description("Optional key; repeating a request with the same key returns the first result instead of booking twice"),
		),
	)
	s.AddTool(bookTool, common.InstrumentedToolHandler(ToolBookMeeting, opts.Metrics, opts.Logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBookMeeting(ctx, request, sc)
		}))

	statusTool := mcp.NewTool(ToolCredentialsStatus,
		mcp.WithDescription("Show which meeting and calendar providers are authorized and how to authorize the rest"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler(ToolCredentialsStatus, opts.Metrics, opts.Logger,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCredentialsStatus(ctx, sc, opts.PublicURL)
		}))

	return nil
}

func handleBookMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}

	result, err := sc.Scheduler().Schedule(ctx, booking.Request{
		Text:           text,
		IdempotencyKey: request.GetString("idempotency_key", ""),
		RequestID:      uuid.NewString(),
		Source:         "mcp",
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("booking failed: %v", err)), nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking result: %w", err)
	}

	res := mcp.NewToolResultText(summarize(result) + "\n\n" + string(out))
	res.IsError = result.Status == meeting.StatusFailed
	return res, nil
}

// summarize renders a one-paragraph, human readable outcome.
func summarize(r meeting.Result) string {
	switch r.Status {
	case meeting.StatusBooked:
		ref := r.MeetingReference
		return fmt.Sprintf("Meeting booked (%s) and added to the calendar: %s", ref.MeetingID, ref.JoinURL)
	case meeting.StatusPartialFailure:
		ref := r.MeetingReference
		return fmt.Sprintf("Meeting booked (%s) but the calendar entry failed. Join link: %s", ref.MeetingID, ref.JoinURL)
	}

	reasons := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		reasons = append(reasons, fmt.Sprintf("%s: %s", e.Provider, e.Detail))
	}
	return "Meeting could not be booked. " + strings.Join(reasons, "; ")
}

func handleCredentialsStatus(ctx context.Context, sc *server.ServerContext, publicURL string) (*mcp.CallToolResult, error) {
	auth := sc.Authorizer()
	if auth == nil {
		return mcp.NewToolResultError("credential store is not available"), nil
	}

	var b strings.Builder
	for _, p := range auth.Providers() {
		if auth.HasToken(ctx, p) {
			fmt.Fprintf(&b, "%s: authorized\n", p)
			continue
		}
		fmt.Fprintf(&b, "%s: not authorized, visit %s/auth/%s\n", p, strings.TrimSuffix(publicURL, "/"), p)
	}
	return mcp.NewToolResultText(b.String()), nil
}
