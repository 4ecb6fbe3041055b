package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/square-key-labs/voicebridge/src/calendar"
	"github.com/square-key-labs/voicebridge/src/config"
	"github.com/square-key-labs/voicebridge/src/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the call relay server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tz, err := time.LoadLocation(cfg.CalendarTimeZone)
			if err != nil {
				return fmt.Errorf("invalid calendar timezone %q: %w", cfg.CalendarTimeZone, err)
			}

			scheduler, err := calendar.NewGoogleScheduler(ctx, calendar.GoogleConfig{
				CalendarID: cfg.CalendarID,
				TimeZone:   tz,
			})
			if err != nil {
				return fmt.Errorf("calendar setup failed: %w", err)
			}

			return server.New(cfg, scheduler).Run(ctx)
		},
	}
}
