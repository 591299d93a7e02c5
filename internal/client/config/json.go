package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/flagx"
	"github.com/dmitrijs2005/booksummary/internal/timex"
)

// JsonConfig is the on-disk shape of the client configuration.
type JsonConfig struct {
	DatabasePath       string         `json:"database_path"`
	Provider           string         `json:"provider"`
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	SessionSecret      string         `json:"session_secret"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	AlertDuration      timex.Duration `json:"alert_duration"`
	AlertGraceDelay    timex.Duration `json:"alert_grace_delay"`
	AuthSettleDelay    timex.Duration `json:"auth_settle_delay"`
	LogLevel           string         `json:"log_level"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}

// parseJson overlays the configured JSON file onto config. Absent fields
// keep their current values.
func parseJson(config *Config) error {
	path := flagx.ConfigPath(EnvConfigFile)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.DatabasePath, c.DatabasePath)
	setString(&config.Provider, c.Provider)
	setString(&config.ServerEndpointAddr, c.ServerEndpointAddr)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.LogLevel, c.LogLevel)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.AlertDuration, c.AlertDuration)
	setDuration(&config.AlertGraceDelay, c.AlertGraceDelay)
	setDuration(&config.AuthSettleDelay, c.AuthSettleDelay)
	return nil
}
