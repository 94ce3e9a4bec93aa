package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/server"
	"github.com/rewired-gh/propboard/internal/session"
)

func (a *app) runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.Server.HTTPAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	defaults, err := initialState(a.cfg)
	if err != nil {
		return err
	}

	feedSession := session.NewFeed(a.client, a.cfg.API.FeedLimit)
	if lines, fetchedAt, err := a.store.Load(ctx, defaults.QueryKey()); err == nil {
		feedSession.Restore(defaults.QueryKey(), lines, fetchedAt)
		logger.Info("Restored %d stored lines for %s", len(lines), defaults.QueryKey())
	}

	h := server.NewHandler(feedSession, session.NewHistory(a.client), a.client, defaults)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      server.NewRouter(h, a.cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("View API listening on %s (backend: %s)", *addr, a.cfg.API.BaseURL)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping server...")

		// Give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed: %v", err)
			return srv.Close()
		}
		logger.Info("Server stopped")
		return nil
	}
}
