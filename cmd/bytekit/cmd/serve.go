/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/bytekit/pkg/api"
	"github.com/ssargent/bytekit/pkg/config"
	"github.com/ssargent/bytekit/pkg/storage"
)

// generatedKeyMarker in security.api_key asks serve to generate a key per run.
const generatedKeyMarker = "auto"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the bytekit REST API server. Settings come from the config file
and can be overridden with flags.

Examples:
  bytekit serve
  bytekit serve --api-key=mysecretkey --port=8080 --bind=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cfg := a.cfg

			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind, _ = cmd.Flags().GetString("bind")
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Security.APIKey == "" || cfg.Security.APIKey == generatedKeyMarker {
				key, err := config.GenerateSecureKey(32)
				if err != nil {
					return err
				}
				cfg.Security.APIKey = key
				a.log.Warn("no API key configured; generated one for this run", "api_key", key)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withDB(cmd, func(db *storage.DB) error {
				return api.StartServer(ctx, db, api.ServerConfig{
					Port:   cfg.Port,
					Bind:   cfg.Bind,
					APIKey: cfg.Security.APIKey,
				}, a.log)
			})
		},
	}
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
	cmd.Flags().String("bind", "", "Address to bind (overrides config)")
	cmd.Flags().String("api-key", "", "API key for authentication (overrides config)")
	return cmd
}
