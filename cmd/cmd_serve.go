package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "boiler_collector/docs"
	"boiler_collector/internal/handlers"
	"boiler_collector/internal/logger"
	"boiler_collector/internal/repository"
	"boiler_collector/internal/server"
	"boiler_collector/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collectors and the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// @title        Boiler Collector API
// @version      1.0
// @description  Read-only access to recorded thermostat telemetry.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	db, err := openDB(log, cfg.DB.Path)
	if err != nil {
		log.Errorw("failed to init sqlite", "err", err)
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	sinks, closeSinks := buildSinks(cfg, log)
	defer closeSinks()

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, serviceOptions(cfg, loc, sinks, log))
	group, err := buildCollectors(cfg, services.Recorder, repos.EventRepo, loc, log)
	if err != nil {
		return err
	}
	services.Collectors = group
	apiHandler := handlers.NewHandler(services, log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	collectorsDone := make(chan error, 1)
	go func() { collectorsDone <- group.Run(ctx) }()
	log.Infow("collectors started", "devices", len(cfg.Devices), "interval", cfg.Collector.Interval)

	srv := &server.Server{}
	serverErr := runHTTPServer(srv, cfg.Port, server.WithCORS(apiHandler.InitRoutes(), cfg.CORS.AllowedOrigins), log)

	return waitForShutdown(ctx, cancel, srv, serverErr, collectorsDone, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine. The channel
// receives the error that stopped it, if any.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// waitForShutdown blocks until a termination signal or a fatal server error,
// then stops the collectors and lets in-flight requests complete.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *server.Server,
	serverErr <-chan error, collectorsDone <-chan error, log *logger.Logger) error {
	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("shutting down server...")
	case err, ok := <-serverErr:
		if ok && err != nil {
			log.Errorw("error starting server", "err", err)
			runErr = err
		}
	}

	// stop collectors; each finishes its in-flight poll within the grace period
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	select {
	case err := <-collectorsDone:
		if err != nil {
			log.Errorw("collectors stopped with error", "err", err)
			runErr = errors.Join(runErr, err)
		}
	case <-shutdownCtx.Done():
		log.Warnw("collectors did not stop in time")
	}
	log.Infow("shutdown complete")
	return runErr
}
