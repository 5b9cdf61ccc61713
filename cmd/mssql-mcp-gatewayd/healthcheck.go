package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxiomlabs/mssql-mcp-server-sub000/gateway"
)

func newHealthcheckCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Dial the configured SQL Server and run a trivial round-trip query",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}

			gw, err := gateway.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connecting: %w", err)
			}
			defer gw.Shutdown(ctx)

			if err := gw.HealthCheck(ctx); err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a YAML/JSON/TOML config file")
	return cmd
}
