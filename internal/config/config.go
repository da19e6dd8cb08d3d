package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/donna/internal/credentials"
	"github.com/teemow/donna/internal/idempotency"
)

// EnvPrefix is prepended to every environment variable, e.g. DONNA_ORGANIZER.
const EnvPrefix = "DONNA"

// ConfigName is the base name of the optional config file (donna.yaml).
const ConfigName = "donna"

// Meetings providers
const (
	MeetingsWebex = "webex"
	MeetingsMeet  = "meet"
)

// LLM providers
const (
	LLMOpenAI = "openai"
	LLMGemini = "gemini"
)

// Credential backends
const (
	CredentialsFile   = "file"
	CredentialsMemory = "memory"
)

// ServerConfig configures the HTTP surfaces.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	// PublicURL is used to derive OAuth redirect URLs when none are set.
	PublicURL       string        `mapstructure:"public_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LLMConfig selects the text-understanding backend.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WebexConfig is the Webex integration registration.
type WebexConfig struct {
	credentials.ClientConfig `mapstructure:",squash"`
	BaseURL                  string `mapstructure:"base_url"`
	SendEmail                bool   `mapstructure:"send_email"`
}

// MeetConfig configures spaces created when Meet is the meetings provider.
type MeetConfig struct {
	AccessType string `mapstructure:"access_type"`
}

// CredentialsConfig selects where OAuth tokens are kept.
type CredentialsConfig struct {
	Backend  string `mapstructure:"backend"`
	TokenDir string `mapstructure:"token_dir"`
}

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`

	// Organizer and SecondaryAttendee are invited to every meeting.
	Organizer         string `mapstructure:"organizer"`
	SecondaryAttendee string `mapstructure:"secondary_attendee"`
	TimeZone          string `mapstructure:"timezone"`
	CalendarID        string `mapstructure:"calendar_id"`
	MeetingsProvider  string `mapstructure:"meetings_provider"`
	// ProviderTimeout bounds each call to the meetings and calendar providers.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	LLM         LLMConfig                `mapstructure:"llm"`
	Google      credentials.ClientConfig `mapstructure:"google"`
	Webex       WebexConfig              `mapstructure:"webex"`
	Meet        MeetConfig               `mapstructure:"meet"`
	Credentials CredentialsConfig        `mapstructure:"credentials"`
	Idempotency idempotency.Config       `mapstructure:"idempotency"`
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("organizer", "")
	v.SetDefault("secondary_attendee", "")
	v.SetDefault("timezone", "Europe/London")
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("meetings_provider", MeetingsWebex)
	v.SetDefault("provider_timeout", 30*time.Second)

	v.SetDefault("llm.provider", LLMOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 30*time.Second)

	for _, p := range []string{"google", "webex"} {
		v.SetDefault(p+".client_id", "")
		v.SetDefault(p+".client_secret", "")
		v.SetDefault(p+".redirect_url", "")
		v.SetDefault(p+".scopes", []string{})
	}
	v.SetDefault("webex.base_url", "https://webexapis.com/v1")
	v.SetDefault("webex.send_email", true)

	v.SetDefault("meet.access_type", "")

	v.SetDefault("credentials.backend", CredentialsFile)
	v.SetDefault("credentials.token_dir", "")

	v.SetDefault("idempotency.backend", idempotency.BackendMemory)
	v.SetDefault("idempotency.ttl", idempotency.DefaultTTL)
	v.SetDefault("idempotency.redis.addr", "localhost:6379")
	v.SetDefault("idempotency.redis.password", "")
	v.SetDefault("idempotency.redis.db", 0)
}

// New returns a viper instance wired for donna: defaults, DONNA_ environment
// variables and the donna.yaml search path.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/donna")
	v.AddConfigPath("/etc/donna")
	return v
}

// Load reads the config file (explicit path or search path), applies flags
// and environment variables, and validates the result.
func Load(v *viper.Viper, file string, flags *pflag.FlagSet) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"addr":              "server.addr",
	"metrics-addr":      "server.metrics_addr",
	"organizer":         "organizer",
	"timezone":          "timezone",
	"meetings-provider": "meetings_provider",
	"llm-provider":      "llm.provider",
	"token-dir":         "credentials.token_dir",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	return nil
}

func (c *Config) applyDerived() {
	base := strings.TrimRight(c.Server.PublicURL, "/")
	if c.Google.RedirectURL == "" && base != "" {
		c.Google.RedirectURL = base + "/auth/google/callback"
	}
	if c.Webex.RedirectURL == "" && base != "" {
		c.Webex.RedirectURL = base + "/auth/webex/callback"
	}
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Validate checks the configuration for consistency. Provider credentials are
// not required here: commands that need them check Configured themselves.
func (c *Config) Validate() error {
	var errs []error

	if c.Organizer != "" {
		if _, err := mail.ParseAddress(c.Organizer); err != nil {
			errs = append(errs, fmt.Errorf("organizer: %w", err))
		}
	}
	if c.SecondaryAttendee != "" {
		if _, err := mail.ParseAddress(c.SecondaryAttendee); err != nil {
			errs = append(errs, fmt.Errorf("secondary_attendee: %w", err))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	switch c.MeetingsProvider {
	case MeetingsWebex, MeetingsMeet:
	default:
		errs = append(errs, fmt.Errorf("meetings_provider must be %q or %q, got %q", MeetingsWebex, MeetingsMeet, c.MeetingsProvider))
	}
	switch c.LLM.Provider {
	case LLMOpenAI, LLMGemini:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be %q or %q, got %q", LLMOpenAI, LLMGemini, c.LLM.Provider))
	}
	switch c.Credentials.Backend {
	case CredentialsFile, CredentialsMemory:
	default:
		errs = append(errs, fmt.Errorf("credentials.backend must be %q or %q, got %q", CredentialsFile, CredentialsMemory, c.Credentials.Backend))
	}
	switch c.Idempotency.Backend {
	case idempotency.BackendMemory, idempotency.BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("idempotency.backend must be %q or %q, got %q", idempotency.BackendMemory, idempotency.BackendRedis, c.Idempotency.Backend))
	}

	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("provider_timeout must be positive"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}

	return errors.Join(errs...)
}
