package config

import (
	"flag"

	"github.com/dmitrijs2005/booksummary/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. Flags owned
// by other loaders are filtered out first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-db", "-p", "-l"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "address and port of the credential server")
	fs.StringVar(&config.DatabasePath, "db", config.DatabasePath, "path of the local database")
	fs.StringVar(&config.Provider, "p", config.Provider, "credential provider: local or remote")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
