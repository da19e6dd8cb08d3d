package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/donna/internal/config"
	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/instrumentation"
	"github.com/teemow/donna/internal/logging"
	"github.com/teemow/donna/internal/tools/booking_tools"
)

func TestReadAuthCode(t *testing.T) {
	const state = "s-123"

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "bare code", input: "4/0AbCd\n", want: "4/0AbCd"},
		{name: "code without newline", input: "abc", want: "abc"},
		{name: "redirect url", input: "http://localhost:8080/auth/google/callback?code=xyz&state=s-123\n", want: "xyz"},
		{name: "empty", input: "\n", wantErr: "no authorization code"},
		{name: "state mismatch", input: "http://localhost:8080/auth/webex/callback?code=xyz&state=other\n", wantErr: "state mismatch"},
		{name: "denied", input: "http://localhost:8080/auth/webex/callback?error=access_denied&state=s-123\n", wantErr: "access_denied"},
		{name: "url without code", input: "http://localhost:8080/auth/webex/callback?state=s-123\n", wantErr: "no code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAuthCode(strings.NewReader(tt.input), state)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestEventStart(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	now := time.Date(2025, 1, 20, 9, 41, 12, 0, time.UTC)
	got := testEventStart(now, london)
	want := time.Date(2025, 1, 21, 9, 0, 0, 0, london)
	assert.True(t, want.Equal(got), "got %s, want %s", got, want)
	assert.Equal(t, london, got.Location())
}

func TestToolsMarkdown(t *testing.T) {
	md, err := toolsMarkdown()
	require.NoError(t, err)

	assert.Contains(t, md, "## "+booking_tools.ToolBookMeeting)
	assert.Contains(t, md, "## "+booking_tools.ToolCredentialsStatus)
	assert.Contains(t, md, "- `text` (required):")
	assert.Contains(t, md, "- `idempotency_key` (optional):")
	assert.Less(t, strings.Index(md, "## book_meeting"), strings.Index(md, "## credentials_status"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "donna version "+version+"\n", out.String())
}

func TestServeFlagsMatchConfigKeys(t *testing.T) {
	cmd := newServeCmd()
	for _, name := range []string{"transport", "addr", "metrics-addr", "organizer", "timezone", "meetings-provider", "llm-provider", "token-dir"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		TimeZone:         "Europe/London",
		MeetingsProvider: config.MeetingsWebex,
		ProviderTimeout:  time.Second,
		LLM:              config.LLMConfig{Provider: config.LLMOpenAI},
		Credentials:      config.CredentialsConfig{Backend: config.CredentialsMemory},
	}
}

func disabledInstrumentation(t *testing.T) *instrumentation.Provider {
	t.Helper()
	p, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)
	return p
}

func TestNewAppRequiresProviders(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	cfg := testConfig()
	_, err := newApp(ctx, cfg, logger, disabledInstrumentation(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.client_id")

	cfg.Google = credentials.ClientConfig{ClientID: "id", ClientSecret: "secret"}
	_, err = newApp(ctx, cfg, logger, disabledInstrumentation(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webex.client_id")

	cfg.Webex.ClientConfig = credentials.ClientConfig{ClientID: "id", ClientSecret: "secret"}
	_, err = newApp(ctx, cfg, logger, disabledInstrumentation(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.api_key")
}

func TestNewAppWiresPipeline(t *testing.T) {
	cfg := testConfig()
	cfg.MeetingsProvider = config.MeetingsMeet
	cfg.Google = credentials.ClientConfig{ClientID: "id", ClientSecret: "secret"}
	cfg.LLM.APIKey = "sk-test"

	a, err := newApp(context.Background(), cfg, logging.Discard(), disabledInstrumentation(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.NotNil(t, a.service)
	assert.NotNil(t, a.calendar)
	assert.Equal(t, "google_meet", string(a.primary.Name()))
	assert.Equal(t, []credentials.Provider{credentials.ProviderGoogle}, a.credentials.Providers())
	assert.Equal(t, "openai", a.interpreter.Name())
}
