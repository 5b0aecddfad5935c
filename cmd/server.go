/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hotelbook/apiserver/config"
	"github.com/hotelbook/apiserver/internal/logger"
	"github.com/hotelbook/apiserver/internal/server"
	"github.com/hotelbook/apiserver/internal/telemetry"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the hotelbook API server",
	Long: `Starts the hotelbook API server. Usage:

	hotelbook server

Configuration is read from the environment (and .env when ENV=dev).
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, version)
		if err != nil {
			return fmt.Errorf("failed to init telemetry: %w", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
			}
		}()
		logger.Init(os.Stderr, cfg.Log, telemetry.Enabled(cfg.Telemetry))

		srv, err := server.New(ctx, cfg)
		if err != nil {
			slog.ErrorContext(ctx, "failed to start server", "error", err)
			return err
		}
		if err := srv.Start(ctx); err != nil {
			slog.ErrorContext(ctx, "server error", "error", err)
			return err
		}
		slog.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
