package noted

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NOTED_SESSION_BACKEND.
const EnvPrefix = "NOTED"

// EnvFileEnv names an alternative dotenv file; the default is ".env".
const EnvFileEnv = "NOTED_ENV_FILE"

type fileConfig struct {
	APIBaseURL       string        `mapstructure:"api-base-url"`
	APITimeout       time.Duration `mapstructure:"api-timeout"`
	SessionBackend   string        `mapstructure:"session-backend"`
	SessionFile      string        `mapstructure:"session-file"`
	RedisAddr        string        `mapstructure:"redis-addr"`
	RedisPrefix      string        `mapstructure:"redis-prefix"`
	RoutesFile       string        `mapstructure:"routes-file"`
	LoginRoute       string        `mapstructure:"login-route"`
	LandingRoute     string        `mapstructure:"landing-route"`
	MetricsEnabled   bool          `mapstructure:"metrics-enabled"`
	MetricsLatency   bool          `mapstructure:"metrics-latency"`
	EventsEnabled    bool          `mapstructure:"events-enabled"`
	EventsBuffer     int           `mapstructure:"events-buffer"`
	EventsDropIfFull bool          `mapstructure:"events-drop-if-full"`
	LogLevel         string        `mapstructure:"log-level"`
	LogFormat        string        `mapstructure:"log-format"`
}

// DefaultConfigPath returns ~/.config/noted/config.yml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "noted", "config.yml"), nil
}

// LoadConfig layers DefaultConfig, the YAML file at path, a dotenv file and NOTED_*
// environment variables, later layers winning. An empty path reads
// DefaultConfigPath and tolerates its absence; an explicit path must exist.
// The result is validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := loadDotenv(); err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	setDefaults(v, cfg)

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || os.IsNotExist(err) || errors.Is(err, fs.ErrNotExist)
		if !missing || explicit {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	fc.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotenv populates the environment from a dotenv file without overriding
// variables that are already set.
func loadDotenv() error {
	envFile := os.Getenv(EnvFileEnv)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("api-base-url", cfg.API.BaseURL)
	v.SetDefault("api-timeout", cfg.API.Timeout)
	v.SetDefault("session-backend", string(cfg.Session.Backend))
	v.SetDefault("session-file", cfg.Session.File)
	v.SetDefault("redis-addr", cfg.Session.RedisAddr)
	v.SetDefault("redis-prefix", cfg.Session.RedisPrefix)
	v.SetDefault("routes-file", cfg.Routes.File)
	v.SetDefault("login-route", cfg.Routes.Login)
	v.SetDefault("landing-route", cfg.Routes.Landing)
	v.SetDefault("metrics-enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics-latency", cfg.Metrics.EnableLatencyHistograms)
	v.SetDefault("events-enabled", cfg.Events.Enabled)
	v.SetDefault("events-buffer", cfg.Events.BufferSize)
	v.SetDefault("events-drop-if-full", cfg.Events.DropIfFull)
	v.SetDefault("log-level", cfg.Log.Level)
	v.SetDefault("log-format", cfg.Log.Format)
}

func (fc fileConfig) apply(cfg *Config) {
	cfg.API.BaseURL = strings.TrimSpace(fc.APIBaseURL)
	cfg.API.Timeout = fc.APITimeout
	cfg.Session.Backend = SessionBackend(strings.ToLower(strings.TrimSpace(fc.SessionBackend)))
	cfg.Session.File = expandHome(fc.SessionFile)
	cfg.Session.RedisAddr = fc.RedisAddr
	cfg.Session.RedisPrefix = fc.RedisPrefix
	cfg.Routes.File = expandHome(fc.RoutesFile)
	cfg.Routes.Login = fc.LoginRoute
	cfg.Routes.Landing = fc.LandingRoute
	cfg.Metrics.Enabled = fc.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = fc.MetricsEnabled && fc.MetricsLatency
	cfg.Events.Enabled = fc.EventsEnabled
	cfg.Events.BufferSize = fc.EventsBuffer
	cfg.Events.DropIfFull = fc.EventsDropIfFull
	cfg.Log.Level = strings.ToLower(fc.LogLevel)
	cfg.Log.Format = strings.ToLower(fc.LogFormat)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
