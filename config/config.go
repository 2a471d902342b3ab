package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	Routing       RoutingConfig
	Remote        RemoteConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// RequestTimeout bounds a whole request, remote attempt and fallback included
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"45s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// RoutingConfig holds the routing and fallback settings
type RoutingConfig struct {
	Threshold              int    `env:"ROUTING_THRESHOLD" envDefault:"1000"`
	Metric                 string `env:"ROUTING_METRIC" envDefault:"chars"`
	FallbackOnForcedRemote bool   `env:"FALLBACK_ON_FORCED_REMOTE" envDefault:"true"`
	MinTextLength          int    `env:"MIN_TEXT_LENGTH" envDefault:"0"`
	LocalMaxSentences      int    `env:"LOCAL_MAX_SENTENCES" envDefault:"3"`
	HistoryLimit           int    `env:"HISTORY_DEFAULT_LIMIT" envDefault:"20"`
}

// RemoteConfig selects and configures the remote summarization backend
type RemoteConfig struct {
	Provider        string        `env:"REMOTE_PROVIDER" envDefault:"gemini"`
	Timeout         time.Duration `env:"REMOTE_TIMEOUT" envDefault:"30s"`
	MaxOutputTokens int64         `env:"REMOTE_MAX_OUTPUT_TOKENS" envDefault:"512"`
	// RedactPII masks emails, phone numbers and similar before text leaves the process
	RedactPII bool `env:"REMOTE_REDACT_PII" envDefault:"false"`

	// Caps on remote calls, zero disables a window
	RequestsPerMinute int `env:"REMOTE_REQUESTS_PER_MINUTE" envDefault:"0"`
	RequestsPerHour   int `env:"REMOTE_REQUESTS_PER_HOUR" envDefault:"0"`
	RequestsPerDay    int `env:"REMOTE_REQUESTS_PER_DAY" envDefault:"0"`

	Gemini    ProviderCredentials `envPrefix:"GEMINI_"`
	OpenAI    ProviderCredentials `envPrefix:"OPENAI_"`
	Anthropic ProviderCredentials `envPrefix:"ANTHROPIC_"`
}

// ProviderCredentials holds the endpoint and credential of one remote provider
type ProviderCredentials struct {
	APIKey  string `env:"API_KEY"`
	BaseURL string `env:"BASE_URL"`
	Model   string `env:"MODEL"`
}

// DatabaseConfig holds the history database configuration.
// An empty Driver disables history.
type DatabaseConfig struct {
	Driver          string        `env:"DATABASE_DRIVER"`
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate     bool          `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

var (
	knownProviders = []string{"gemini", "openai", "anthropic"}
	knownMetrics   = []string{"chars", "words"}
	knownDrivers   = []string{"", "postgres", "sqlite3"}
)

// New creates a new Config instance by loading .env and environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	return Load()
}

// Load parses and validates the configuration from the process environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// PORT takes precedence over SERVER_PORT (PaaS convention)
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Remote.Provider = strings.ToLower(strings.TrimSpace(cfg.Remote.Provider))
	cfg.Routing.Metric = strings.ToLower(strings.TrimSpace(cfg.Routing.Metric))

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all configuration fields hold usable values
func (c *Config) Validate() error {
	if c.Routing.Threshold <= 0 {
		return fmt.Errorf("routing threshold must be positive")
	}
	if !contains(knownMetrics, c.Routing.Metric) {
		return fmt.Errorf("unknown routing metric %q", c.Routing.Metric)
	}
	if c.Routing.MinTextLength < 0 {
		return fmt.Errorf("minimum text length cannot be negative")
	}

	if !contains(knownProviders, c.Remote.Provider) {
		return fmt.Errorf("unknown remote provider %q", c.Remote.Provider)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}
	// The remote call must time out first so its failure can still fall back to local
	if c.Server.RequestTimeout > 0 && c.Server.RequestTimeout <= c.Remote.Timeout {
		return fmt.Errorf("server request timeout (%s) must be longer than remote timeout (%s)",
			c.Server.RequestTimeout, c.Remote.Timeout)
	}
	if c.Remote.RequestsPerMinute < 0 || c.Remote.RequestsPerHour < 0 || c.Remote.RequestsPerDay < 0 {
		return fmt.Errorf("remote rate limits cannot be negative")
	}

	// The selected provider needs a credential in production
	if c.IsProduction() {
		creds, _ := c.Remote.Credentials(c.Remote.Provider)
		if creds.APIKey == "" {
			return fmt.Errorf("%s API key is required in production", c.Remote.Provider)
		}
	}

	if !contains(knownDrivers, c.Database.Driver) {
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Enabled() && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is set")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Credentials returns the credentials of the named provider
func (c *RemoteConfig) Credentials(provider string) (ProviderCredentials, bool) {
	switch provider {
	case "gemini":
		return c.Gemini, true
	case "openai":
		return c.OpenAI, true
	case "anthropic":
		return c.Anthropic, true
	default:
		return ProviderCredentials{}, false
	}
}

// Enabled reports whether history storage is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.Driver != ""
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.Driver == "sqlite3" {
		return "file=" + strings.SplitN(c.URL, "?", 2)[0]
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
