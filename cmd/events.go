/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hotelbook/apiserver/config"
	"github.com/hotelbook/apiserver/internal/mq"
	"github.com/hotelbook/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd groups commands that work with listing change events.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect listing change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print listing events as JSON lines until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if errors.Is(err, mq.ErrDisabled) {
			return errors.New("MQ_BACKEND is not set")
		}
		if err != nil {
			return err
		}
		events, err := mq.NewEvents(backend, cfg.MQ.Topic)
		if err != nil {
			_ = backend.Close()
			return err
		}
		defer events.Close()

		out := json.NewEncoder(cmd.OutOrStdout())
		err = events.Tail(ctx, func(_ context.Context, event types.HotelEvent) error {
			return out.Encode(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tail events: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
