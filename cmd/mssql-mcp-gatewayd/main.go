// Command mssql-mcp-gatewayd runs the gateway as a standalone process. It
// builds an internal/config.GatewayConfig from flags, environment
// variables, and an optional config file (via viper, in the spf13 idiom
// autobrr-qui's cmd/qui commands are built around), constructs a
// gateway.Gateway from it, and serves the tool catalogue over line-delimited
// JSON-RPC on stdio -- documenting the framing an MCP client expects without
// depending on a specific Go MCP SDK, none of which appears in the retrieved
// dependency corpus.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string
	var logFormat string

	root := &cobra.Command{
		Use:   "mssql-mcp-gatewayd",
		Short: "SQL Server MCP gateway",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, console)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func configureLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
