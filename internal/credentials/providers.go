package credentials

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Provider names an OAuth2 authorization server whose tokens the store keeps.
type Provider string

const (
	ProviderWebex  Provider = "webex"
	ProviderGoogle Provider = "google"
)

// ParseProvider validates a provider name taken from a URL or flag.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderWebex, ProviderGoogle:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q (expected webex or google)", name)
	}
}

// WebexEndpoint is the Webex integration authorization server.
var WebexEndpoint = oauth2.Endpoint{
	AuthURL:   "https://webexapis.com/v1/authorize",
	TokenURL:  "https://webexapis.com/v1/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DefaultWebexScopes are the scopes a Webex integration needs to schedule meetings.
var DefaultWebexScopes = []string{
	"spark:kms",
	"meeting:schedules_read",
	"meeting:schedules_write",
	"meeting:participants_read",
}

// DefaultGoogleScopes cover calendar event creation and Meet space creation.
var DefaultGoogleScopes = []string{
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/meetings.space.created",
}

// ClientConfig holds the client registration for one provider.
type ClientConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
}

// Configured reports whether a client id and secret are present.
func (c ClientConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthConfig builds the oauth2.Config for provider from c, filling in the
// provider's endpoint and default scopes.
func (c ClientConfig) OAuthConfig(provider Provider) *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
	}
	switch provider {
	case ProviderWebex:
		cfg.Endpoint = WebexEndpoint
		if len(cfg.Scopes) == 0 {
			cfg.Scopes = DefaultWebexScopes
		}
	case ProviderGoogle:
		cfg.Endpoint = google.Endpoint
		if len(cfg.Scopes) == 0 {
			cfg.Scopes = DefaultGoogleScopes
		}
	}
	return cfg
}
