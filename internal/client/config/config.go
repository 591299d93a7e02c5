package config

import (
	"fmt"
	"os"
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderRemote = "remote"
)

// Config holds runtime settings for the client.
type Config struct {
	DatabasePath       string
	Provider           string
	ServerEndpointAddr string
	// SessionSecret signs sessions issued by the local provider.
	SessionSecret   string
	SessionTTL      time.Duration
	AlertDuration   time.Duration
	AlertGraceDelay time.Duration
	AuthSettleDelay time.Duration
	LogLevel        string
}

// Environment variables read by LoadConfig.
const (
	EnvConfigFile      = "BOOKSUMMARY_CLIENT_CONFIG"
	EnvDotEnvFile      = "BOOKSUMMARY_ENV_FILE"
	EnvDatabasePath    = "BOOKSUMMARY_DATABASE_PATH"
	EnvProvider        = "BOOKSUMMARY_PROVIDER"
	EnvServerAddr      = "BOOKSUMMARY_SERVER_ADDR"
	EnvSessionSecret   = "BOOKSUMMARY_SESSION_SECRET"
	EnvSessionTTL      = "BOOKSUMMARY_SESSION_TTL"
	EnvAlertDuration   = "BOOKSUMMARY_ALERT_DURATION"
	EnvAlertGraceDelay = "BOOKSUMMARY_ALERT_GRACE_DELAY"
	EnvAuthSettleDelay = "BOOKSUMMARY_AUTH_SETTLE_DELAY"
	EnvLogLevel        = "BOOKSUMMARY_LOG_LEVEL"
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "booksummary.db"
	c.Provider = ProviderLocal
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionSecret = "local-session-secret"
	c.SessionTTL = 30 * 24 * time.Hour
	c.AlertDuration = 3 * time.Second
	c.AlertGraceDelay = 300 * time.Millisecond
	c.AuthSettleDelay = 500 * time.Millisecond
	c.LogLevel = "warn"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal, ProviderRemote:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
