package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ridelink/notify"
	"ridelink/routes"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket event stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	db, closeDB, err := a.connect()
	if err != nil {
		return err
	}
	defer closeDB()

	hub := notify.NewHub(a.log)
	fanout := notify.Fanout{hub}
	if a.cfg.RabbitMQ.URL != "" {
		pub, err := notify.DialPublisher(a.cfg.RabbitMQ.URL, a.cfg.RabbitMQ.Exchange, a.log)
		if err != nil {
			a.log.Error("cannot create connection to rabbitMQ", "action", "connect to rabbitMQ", "error", err)
			return err
		}
		defer pub.Close()
		fanout = append(fanout, pub)
	}

	svc, tokens, err := a.services(db, notify.Logged(fanout, a.log))
	if err != nil {
		return err
	}

	gin.SetMode(a.cfg.Server.Mode)
	router, err := routes.SetupRouter(routes.Deps{
		DB:                  db,
		Services:            svc,
		Tokens:              tokens,
		Hub:                 hub,
		Log:                 a.log,
		EmailSuffix:         a.cfg.Auth.EmailSuffix,
		RequireVerification: a.cfg.Auth.RequireVerification,
		SecureCookie:        a.cfg.Server.Mode == gin.ReleaseMode,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting the server", "action", "start the server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.log.Error("server stopped", "action", "start the server", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down", "action", "shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("graceful shutdown failed", "action", "shutdown", "error", err)
		return err
	}
	return nil
}
