package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/coworking-booking/internal/config"
	"github.com/iliyamo/coworking-booking/internal/queue"
)

func newWorkerCmd() *cobra.Command {
	var logDir string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume booking events into the booking log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadEventsConfig()
			log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
			if logDir != "" {
				cfg.LogDir = logDir
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Infof("booking-consumer: writing to %s", cfg.LogDir)
			err := queue.NewConsumer(cfg.URL, cfg.LogDir).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory for booking.log (default EVENTS_LOG_DIR or logs)")
	return cmd
}
