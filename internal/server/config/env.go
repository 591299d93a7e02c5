package config

import (
	"os"

	"github.com/dmitrijs2005/booksummary/internal/envx"
)

// parseEnv overlays BOOKSUMMARY_* variables. A .env file (path from
// BOOKSUMMARY_ENV_FILE, default ".env") seeds variables that are not
// already set.
func parseEnv(config *Config) error {
	dotenv := ".env"
	if v := os.Getenv(EnvDotEnvFile); v != "" {
		dotenv = v
	}
	if err := envx.LoadDotEnv(dotenv); err != nil {
		return err
	}

	envx.String(EnvGRPCAddr, &config.EndpointAddrGRPC)
	envx.String(EnvDatabaseDSN, &config.DatabaseDSN)
	envx.String(EnvSecretKey, &config.SecretKey)
	envx.String(EnvLogLevel, &config.LogLevel)
	return envx.Duration(EnvSessionTTL, &config.SessionTTL)
}
