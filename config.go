package noted

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// BaseURLEnv overrides the API base address when Config.API.BaseURL is empty.
const BaseURLEnv = "NOTED_API_BASE_URL"

// DefaultBaseURL is the same-origin address used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8080"

// SessionBackend selects where the session is kept.
type SessionBackend string

const (
	SessionMemory SessionBackend = "memory"
	SessionFile   SessionBackend = "file"
	SessionRedis  SessionBackend = "redis"
)

// Config is the complete client configuration. Start from [DefaultConfig] or
// [LoadConfig] and adjust fields before passing it to [Builder.WithConfig].
type Config struct {
	API     APIConfig
	Session SessionConfig
	Routes  RoutesConfig
	Metrics MetricsConfig
	Events  EventsConfig
	Log     LogConfig
}

// APIConfig locates the notes service.
type APIConfig struct {
	// BaseURL is the service root. Empty means BaseURLEnv, then DefaultBaseURL.
	BaseURL string
	// Timeout bounds every HTTP exchange. Zero means no timeout.
	Timeout time.Duration
}

// SessionConfig selects and configures the session backend.
type SessionConfig struct {
	Backend SessionBackend
	// File is the JSON document used by the file backend. Empty means
	// ~/.noted/session.json.
	File string
	// RedisAddr is dialled when the redis backend has no client.
	RedisAddr   string
	RedisPrefix string
}

// RoutesConfig points at the navigation table.
type RoutesConfig struct {
	// File is a YAML route table. Empty means the built-in table.
	File string
	// Login and Landing override the table's login and landing routes when set.
	Login   string
	Landing string
}

// MetricsConfig controls the in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// EventsConfig controls asynchronous event delivery.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// LogConfig configures the logger built by LoadConfig callers; the client itself
// only receives a *slog.Logger.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns an in-memory session with the built-in routes.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Backend:     SessionMemory,
			RedisPrefix: "noted",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ResolvedBaseURL returns the base URL the client will use, without trailing "/".
func (c *Config) ResolvedBaseURL() string {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		base = strings.TrimSpace(os.Getenv(BaseURLEnv))
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	base := c.ResolvedBaseURL()
	u, err := url.Parse(base)
	if err != nil {
		return invalidConfig("API BaseURL %q: %v", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalidConfig("API BaseURL %q must use http or https", base)
	}
	if u.Host == "" {
		return invalidConfig("API BaseURL %q has no host", base)
	}
	if c.API.Timeout < 0 {
		return invalidConfig("API Timeout must be >= 0")
	}

	switch c.Session.Backend {
	case SessionMemory, SessionFile, SessionRedis:
	default:
		return invalidConfig("unsupported session backend %q", c.Session.Backend)
	}
	if c.Session.Backend == SessionRedis && strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return invalidConfig("Session RedisPrefix must be set for the redis backend")
	}

	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return invalidConfig("Events BufferSize must be > 0 when events are enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalidConfig("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return invalidConfig("unsupported log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return invalidConfig("unsupported log format %q", c.Log.Format)
	}

	return nil
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
