package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/envx"
)

func parseEnv(config *Config) error {
	dotenv := ".env"
	if v := os.Getenv(EnvDotEnvFile); v != "" {
		dotenv = v
	}
	if err := envx.LoadDotEnv(dotenv); err != nil {
		return err
	}

	envx.String(EnvDatabasePath, &config.DatabasePath)
	envx.String(EnvProvider, &config.Provider)
	envx.String(EnvServerAddr, &config.ServerEndpointAddr)
	envx.String(EnvSessionSecret, &config.SessionSecret)
	envx.String(EnvLogLevel, &config.LogLevel)

	for key, dst := range map[string]*time.Duration{
		EnvSessionTTL:      &config.SessionTTL,
		EnvAlertDuration:   &config.AlertDuration,
		EnvAlertGraceDelay: &config.AlertGraceDelay,
		EnvAuthSettleDelay: &config.AuthSettleDelay,
	} {
		if err := envx.Duration(key, dst); err != nil {
			return err
		}
	}
	return nil
}
