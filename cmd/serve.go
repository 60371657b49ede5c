package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/dclone/internal/server"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Serve runs the HTTP API until interrupted, then drains running clones.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, runner, err := r.buildServer()
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr, "version", r.version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		r.logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("clones still running at exit", "error", err)
	}
	return nil
}

// buildServer wires the task runner, sessions, and API handlers from the config.
func (r *Runner) buildServer() (http.Handler, *tasks.Runner, error) {
	sessions, err := server.NewSessions(r.config.Server.SessionSecret)
	if err != nil {
		return nil, nil, err
	}
	if r.config.Server.SessionSecret == "change-me" {
		r.logger.Warn("server.session_secret is the template default; set a real secret")
	}

	runner := tasks.NewRunner(tasks.RunnerOpts{
		Workers:    r.config.Tasks.Workers,
		QueueSize:  r.config.Tasks.QueueSize,
		NamePrefix: r.config.Clone.NamePrefix,
		Logger:     r.logger,
	})

	stores := r.stores
	if stores == nil && r.auth != nil {
		opts := services.DriveOptsFromConfig(r.config.Drive)
		opts.Logger = r.logger
		stores = func(ctx context.Context, token *oauth2.Token) (services.RemoteStore, error) {
			return r.auth.NewDriveService(ctx, token, opts)
		}
	}

	opts := server.APIOpts{
		Runner:   runner,
		Sessions: sessions,
		Stores:   server.StoreFactory(stores),
		Logger:   r.logger,
	}
	if r.auth != nil {
		opts.Auth = r.auth
	} else {
		r.logger.Warn("no OAuth client configured; login endpoints will return 503")
	}

	return server.NewHandler(server.NewAPI(opts), r.config.Server.AllowedOrigins), runner, nil
}
