package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"duetrack/internal/bootstrap"
	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
	"duetrack/internal/usecase/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API for the admin console",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *tracker.Service) error {
		ctx := logging.WithComponent(cmd.Context(), "serve")

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}
		shutdownTimeout := app.Config.HTTP.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := app.InitSchema(ctx); err != nil {
				logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "initialize schema")
			}
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           newTrackerHTTPHandler(ctx, svc),
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server started", slog.String("addr", addr))
			serveErr <- server.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-sigCtx.Done():
		}

		logging.Info(ctx, "http server shutting down", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error(ctx, "http server shutdown failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "shutdown http server")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to http.addr)")
	serveCmd.Flags().Bool("migrate", false, "Run schema migration before serving")
}
