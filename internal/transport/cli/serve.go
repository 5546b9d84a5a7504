package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	apperrors "github.com/reshetovitsme/steam-browser/internal/shared/errors"
	"github.com/reshetovitsme/steam-browser/internal/shared/logging"
	httpServer "github.com/reshetovitsme/steam-browser/internal/transport/http"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func (a *app) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when a token is configured, the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			// Server logs: text to stdout, errors also as JSON to stderr
			logging.Setup(cmd.OutOrStdout(), cmd.ErrOrStderr(), a.cfg.SlogLevel())

			ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			server, err := do.Invoke[*httpServer.Server](a.injector)
			if err != nil {
				return err
			}

			// Telegram bot is optional
			b, err := do.Invoke[*bot.Bot](a.injector)
			switch {
			case err == nil:
				go b.Start(ctx)
				slog.Info("Telegram bot started")
			case errors.Is(err, apperrors.ErrMissingBotToken):
				slog.Info("Telegram bot disabled", "reason", err)
			default:
				return err
			}

			errCh := make(chan error, 1)

			// Start HTTP server
			go func() {
				errCh <- server.Start()
			}()

			slog.Info("Application started", "port", a.cfg.HTTPPort, "env", a.cfg.AppEnv, "storage", a.cfg.StorageDriver)
			slog.Info("Press Ctrl+C to stop")

			select {
			case <-ctx.Done():
				slog.Info("Shutting down...")
				return nil
			case err := <-errCh:
				return err
			}
		}),
	}
}
