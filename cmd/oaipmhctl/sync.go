package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scieloorg/oaipmh/internal/config"
	"github.com/scieloorg/oaipmh/internal/harvest"
	"github.com/scieloorg/oaipmh/internal/repository/mongodb"
	"github.com/scieloorg/oaipmh/pkg/kernel"
	"github.com/scieloorg/oaipmh/pkg/retry"
)

var (
	syncConcurrency int
	syncReplicaSet  string
	syncSince       string
)

var syncCmd = &cobra.Command{
	Use:   "sync SOURCE MONGODB_DSN",
	Short: "Sync data with a remote source.",
	Args:  cobra.ExactArgs(2),
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().IntVarP(&syncConcurrency, "concurrency", "c", harvest.DefaultConcurrency, "number of harvest workers")
	syncCmd.Flags().StringVarP(&syncReplicaSet, "replicaset", "r", "", "MongoDB replica set name")
	syncCmd.Flags().StringVarP(&syncSince, "since", "s", "", "changelog timestamp to start from (default: the stored watermark)")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source, mongodbDSN := args[0], args[1]
	cfg := config.Load()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := mongodb.Connect(connectCtx, mongodbDSN, cfg.MongoDB.DBName, syncReplicaSet)
	cancel()
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

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	client := kernel.NewClient(source, kernel.WithRetryPolicy(retry.Policy{
		MaxRetries:    uint64(cfg.Retry.MaxRetries),
		BackoffFactor: cfg.Retry.BackoffFactor,
	}))

	sync := harvest.NewSynchronizer(client, store.Documents(), store.Variables(), syncConcurrency)
	if _, err := sync.Sync(ctx, syncSince); err != nil {
		return err
	}
	return nil
}
