package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scieloorg/oaipmh/internal/config"
	delivery "github.com/scieloorg/oaipmh/internal/delivery/http"
	"github.com/scieloorg/oaipmh/internal/oai"
	"github.com/scieloorg/oaipmh/internal/repository/mongodb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the OAI-PMH protocol endpoint.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	store, err := connectWithRetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("could not close mongodb connection")
		}
	}()

	server := oai.NewServer(store.Documents(), oai.RepositoryInfo{
		Name:        cfg.Repo.Name,
		BaseURL:     cfg.Repo.BaseURL,
		AdminEmails: cfg.Repo.AdminEmails,
		SiteBaseURL: cfg.Repo.SiteBaseURL,
		BatchSize:   cfg.Repo.ResumptionTokenBatchSize,
	})
	handler := delivery.NewHandler(server, cfg.Repo.BaseURL)
	router := delivery.NewRouter(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// connectWithRetry keeps trying MongoDB for a few attempts so the server
// can start before the database is up.
func connectWithRetry(ctx context.Context, cfg *config.Config) (*mongodb.Store, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		store, err := mongodb.Connect(connectCtx, cfg.MongoDB.DSN, cfg.MongoDB.DBName, cfg.MongoDB.ReplicaSet)
		cancel()
		if err == nil {
			log.Info("connected to mongodb")
			return store, nil
		}
		lastErr = err
		log.WithError(err).Warnf("attempt %d: could not connect to mongodb", attempt)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
	return nil, lastErr
}
