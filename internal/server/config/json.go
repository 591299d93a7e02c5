package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/booksummary/internal/flagx"
	"github.com/dmitrijs2005/booksummary/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations
// accept "1h" style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays the JSON file named by -c/-config (or
// BOOKSUMMARY_SERVER_CONFIG) onto config. Fields absent from the file keep
// their current values. No file configured means nothing to do.
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

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	return nil
}
