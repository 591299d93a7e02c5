// Package config loads runtime configuration for the book summary client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected by -c / -config or BOOKSUMMARY_CLIENT_CONFIG.
//  3. Environment variables (BOOKSUMMARY_*), seeded from an optional .env file.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     address:port of the credential server (remote provider)
//	-db string    path of the local SQLite database
//	-p string     credential provider: "local" or "remote"
//	-l string     log level
//
// # JSON schema
//
// Durations are timex.Duration values, so they can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "database_path": "booksummary.db",
//	  "provider": "remote",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "alert_duration": "3s",
//	  "auth_settle_delay": "500ms"
//	}
package config
